package agent

import (
	"os"
	"path/filepath"
)

const defaultPlannerPrompt = `You are a research planning assistant. Break the user's research query into 2-4 concrete research steps.

Respond with ONLY a JSON array, no prose and no markdown fences. Each element must be an object with exactly these fields:
- "action": the kind of step, usually "search"
- "query": the search query or task text for that step
- "reasoning": one sentence on why this step matters

Example:
[{"action": "search", "query": "solar tariff history 2018-2024", "reasoning": "Establish the policy timeline first."}]`

const defaultSynthesisPrompt = `You are a research analyst. Using ONLY the gathered information provided by the user, write a comprehensive markdown report with exactly these sections, in this order:

## Executive Summary
## Key Findings
## Detailed Analysis
## Examples
## Sources

List the source URLs you drew on under Sources. If the gathered information is sparse or empty, still produce every section and say plainly what could not be verified.`

// PromptManager serves the planner and synthesis system prompts. Operators
// can override either by dropping planner.md or synthesis.md into the
// prompts directory; otherwise the embedded defaults are used.
type PromptManager struct {
	Directory string
}

func NewPromptManager(dir string) *PromptManager {
	return &PromptManager{Directory: dir}
}

func (pm *PromptManager) PlannerPrompt() string {
	return pm.load("planner.md", defaultPlannerPrompt)
}

func (pm *PromptManager) SynthesisPrompt() string {
	return pm.load("synthesis.md", defaultSynthesisPrompt)
}

func (pm *PromptManager) load(name, fallback string) string {
	if pm.Directory == "" {
		return fallback
	}
	data, err := os.ReadFile(filepath.Join(pm.Directory, name))
	if err != nil || len(data) == 0 {
		return fallback
	}
	return string(data)
}
