package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/rahul/scout/internal/llm"
	"github.com/rahul/scout/internal/observability"
	"github.com/rahul/scout/internal/tools"
)

// ErrSynthesisFailed means the final report-generation call failed. There is
// no meaningful fallback report, so this aborts the whole run.
var ErrSynthesisFailed = errors.New("report synthesis failed")

// StepAction labels how a plan step should be executed. The planning model
// is not bound to a fixed vocabulary: unknown actions are preserved in the
// plan and executed as no-ops.
type StepAction string

const ActionSearch StepAction = "search"

// ResearchStep is one planned sub-task. Immutable once created.
type ResearchStep struct {
	Action    StepAction `json:"action"`
	Query     string     `json:"query"`
	Reasoning string     `json:"reasoning"`
}

// StepExecution pairs a step with the results gathered for it. Non-search
// steps carry no results.
type StepExecution struct {
	Step    ResearchStep
	Results []tools.SearchResult
}

// RunResult is everything one research call produced.
type RunResult struct {
	Query  string
	Steps  []StepExecution
	Report string
}

// LLM is the narrow model surface the researcher needs. *llm.Client
// satisfies it; tests stub it.
type LLM interface {
	Execute(ctx context.Context, system, user string, temperature float64) (*llm.Response, error)
}

// Searcher turns a query into candidate results.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]tools.SearchResult, error)
}

// Scraper returns cleaned page text, empty on failure.
type Scraper interface {
	Scrape(ctx context.Context, url string, maxLength int) (string, error)
}

const (
	planTemperature      = 0.7
	synthesisTemperature = 0.3
)

// Researcher drives one research run: plan, execute each step in order,
// synthesize a report from the gathered evidence.
type Researcher struct {
	LLM     LLM
	Search  Searcher
	Scraper Scraper
	Prompts *PromptManager
	Logger  *observability.Logger

	ResultsPerStep int // search results requested per step
	ScrapesPerStep int // how many of those get their pages fetched
	ScrapeLength   int // max characters kept per fetched page
	ExcerptLength  int // max characters per result in the synthesis context
}

func NewResearcher(model LLM, search Searcher, scraper Scraper, prompts *PromptManager, logger *observability.Logger) *Researcher {
	if prompts == nil {
		prompts = NewPromptManager("")
	}
	if logger == nil {
		logger = observability.NewLogger()
	}
	return &Researcher{
		LLM:            model,
		Search:         search,
		Scraper:        scraper,
		Prompts:        prompts,
		Logger:         logger,
		ResultsPerStep: 5,
		ScrapesPerStep: 3,
		ScrapeLength:   5000,
		ExcerptLength:  1000,
	}
}

// Plan asks the model to decompose the query into steps. It never fails:
// any model or parse error degrades to a single direct-search step.
func (r *Researcher) Plan(ctx context.Context, query string) []ResearchStep {
	steps, _ := r.plan(ctx, query)
	return steps
}

func (r *Researcher) plan(ctx context.Context, query string) ([]ResearchStep, bool) {
	resp, err := r.LLM.Execute(ctx, r.Prompts.PlannerPrompt(),
		fmt.Sprintf("Research query: %s", query), planTemperature)
	if err != nil {
		log.Printf("Warning: plan generation failed, using fallback plan: %v", err)
		return fallbackPlan(query), true
	}

	r.Logger.LogLLM("plan", r.Prompts.PlannerPrompt(), query, resp.Message,
		resp.PromptTokens, resp.CompletionTokens, resp.Duration)

	steps, err := parsePlan(resp.Message)
	if err != nil || len(steps) == 0 {
		log.Printf("Warning: plan output unusable, using fallback plan: %v", err)
		return fallbackPlan(query), true
	}
	return steps, false
}

func fallbackPlan(query string) []ResearchStep {
	return []ResearchStep{{
		Action:    ActionSearch,
		Query:     query,
		Reasoning: "Direct search fallback for the research query",
	}}
}

func parsePlan(raw string) ([]ResearchStep, error) {
	var steps []ResearchStep
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &steps); err != nil {
		return nil, fmt.Errorf("plan is not a JSON step array: %v", err)
	}
	return steps, nil
}

// stripCodeFence unwraps a ```json ... ``` block if the model added one
// despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// Research runs the full pipeline for query. Steps execute strictly in plan
// order; failures local to one step or URL degrade to empty results. Only a
// failed synthesis aborts the run.
func (r *Researcher) Research(ctx context.Context, query string) (*RunResult, error) {
	r.Logger.LogPlanStarted(query)
	steps, fallback := r.plan(ctx, query)
	r.Logger.LogPlanProduced(query, steps, fallback)

	run := &RunResult{Query: query, Steps: make([]StepExecution, 0, len(steps))}
	for _, step := range steps {
		exec := StepExecution{Step: step}
		if step.Action == ActionSearch {
			exec.Results = r.executeSearch(ctx, query, step)
		}
		// Anything but a search step is a no-op: kept in the run, never
		// executed, never a reason to stop.
		run.Steps = append(run.Steps, exec)
	}

	report, err := r.synthesize(ctx, query, run.Steps)
	if err != nil {
		return nil, err
	}
	run.Report = report
	return run, nil
}

func (r *Researcher) executeSearch(ctx context.Context, query string, step ResearchStep) []tools.SearchResult {
	results, err := r.Search.Search(ctx, step.Query, r.ResultsPerStep)
	if err != nil {
		// A dead search provider contributes zero results, nothing more.
		log.Printf("Warning: search failed for %q: %v", step.Query, err)
		results = nil
	}
	r.Logger.LogSearch(query, step.Query, len(results))

	for i := range results {
		if i >= r.ScrapesPerStep {
			break
		}
		content, err := r.Scraper.Scrape(ctx, results[i].URL, r.ScrapeLength)
		if err != nil {
			content = ""
		}
		results[i].Content = content
		r.Logger.LogScrape(query, results[i].URL, len(content))
	}
	return results
}

func (r *Researcher) synthesize(ctx context.Context, query string, steps []StepExecution) (string, error) {
	evidence := buildContext(steps, r.ExcerptLength)
	r.Logger.LogSynthesisStarted(query, len(evidence))

	user := fmt.Sprintf("Research query: %s\n\nGathered information:\n%s", query, evidence)
	resp, err := r.LLM.Execute(ctx, r.Prompts.SynthesisPrompt(), user, synthesisTemperature)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	r.Logger.LogLLM("synthesis", r.Prompts.SynthesisPrompt(), user, resp.Message,
		resp.PromptTokens, resp.CompletionTokens, resp.Duration)

	return resp.Message, nil
}

// buildContext assembles the evidence passed to synthesis: every result with
// content, in plan order, as title/url/excerpt blocks.
func buildContext(steps []StepExecution, excerptLength int) string {
	var blocks []string
	for _, exec := range steps {
		for _, res := range exec.Results {
			if res.Content == "" {
				continue
			}
			excerpt := res.Content
			if len(excerpt) > excerptLength {
				excerpt = excerpt[:excerptLength]
			}
			blocks = append(blocks, fmt.Sprintf("Title: %s\nURL: %s\nContent: %s", res.Title, res.URL, excerpt))
		}
	}
	return strings.Join(blocks, "\n\n---\n\n")
}
