package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rahul/scout/internal/agent"
	"github.com/rahul/scout/internal/governance"
	"github.com/rahul/scout/internal/llm"
	"github.com/rahul/scout/internal/notify"
	"github.com/rahul/scout/internal/observability"
	"github.com/rahul/scout/internal/render"
	"github.com/rahul/scout/internal/store"
	"github.com/rahul/scout/internal/tools"
	"github.com/rahul/scout/pkg/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	history := flag.Bool("history", false, "list recent research runs and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(cfg.App.DataDir, 0755); err != nil {
		log.Fatalf("failed to create data directory: %v", err)
	}

	db, err := store.New(filepath.Join(cfg.App.DataDir, "cache.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if *history {
		printHistory(db)
		return
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, `Usage: scout "your research query"`)
		os.Exit(1)
	}
	query := strings.Join(flag.Args(), " ")

	// Hard precondition: no model credential, no run.
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	pName, pCfg := cfg.DefaultProvider()
	var model llms.Model
	switch pName {
	case "openai", "openrouter":
		opts := []openai.Option{
			openai.WithToken(pCfg.APIKey),
			openai.WithModel(pCfg.Model),
		}
		if pCfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(pCfg.BaseURL))
		}
		model, err = openai.New(opts...)
	default:
		log.Fatalf("Provider %s not yet implemented in main", pName)
	}
	if err != nil {
		log.Fatal(err)
	}

	logger := observability.NewLogger()
	client := llm.New(model)

	webSearch := tools.NewWebSearch(func() string { return cfg.Search.BraveAPIKey })

	gov := governance.NewDefaultPolicyEngine()
	// Never fetch loopback or private-network targets a search engine
	// should not be handing back anyway.
	_ = gov.DenyTarget(`^https?://(localhost|127\.|0\.0\.0\.0|10\.|192\.168\.|169\.254\.)`)

	scraper := tools.NewScraper(db)
	scraper.Policy = gov
	if cfg.Scraper.BrowserEnabled {
		renderer := tools.NewBrowserRenderer()
		defer renderer.Close()
		scraper.Renderer = renderer
	}

	researcher := agent.NewResearcher(client, webSearch, scraper, agent.NewPromptManager("./prompts"), logger)
	if cfg.Scraper.MaxLength > 0 {
		researcher.ScrapeLength = cfg.Scraper.MaxLength
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := researcher.Research(ctx, query)
	if err != nil {
		log.Fatalf("Research failed: %v", err)
	}

	divider := strings.Repeat("=", 80)
	fmt.Println("\n" + divider + "\n")
	fmt.Print(render.Markdown(run.Report))
	fmt.Println("\n" + divider + "\n")

	reportPath := filepath.Join(cfg.App.DataDir,
		fmt.Sprintf("report_%s.md", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(reportPath, []byte(run.Report), 0644); err != nil {
		log.Printf("Warning: failed to save report: %v", err)
	} else {
		logger.LogReport(query, reportPath, len(run.Report))
		log.Printf("Report saved to %s", reportPath)
	}

	if err := db.AddRun(query, run.Report); err != nil {
		log.Printf("Warning: failed to record run: %v", err)
	}

	if tg := cfg.Notify.Telegram; tg.Enabled && tg.Token != "" {
		sender, err := notify.NewTelegram(tg.Token, tg.ChatID)
		if err != nil {
			log.Printf("Warning: telegram setup failed: %v", err)
		} else if err := sender.SendReport(query, run.Report); err != nil {
			log.Printf("Warning: telegram delivery failed: %v", err)
		}
	}
}

func printHistory(db *store.Store) {
	runs, err := db.RecentRuns(10)
	if err != nil {
		log.Fatal(err)
	}
	if len(runs) == 0 {
		fmt.Println("No research runs recorded yet.")
		return
	}
	for _, r := range runs {
		fmt.Printf("%s  %s\n", r.CreatedAt.Format("2006-01-02 15:04"), r.Query)
	}
}
