package observability

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypePlan      EventType = "plan"
	EventTypeSearch    EventType = "search"
	EventTypeScrape    EventType = "scrape"
	EventTypeSynthesis EventType = "synthesis"
	EventTypeReport    EventType = "report"
	EventTypeLLM       EventType = "llm"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger emits pipeline progress as JSON lines. LLM exchanges are also
// appended to a size-rotated file so prompt issues can be diagnosed later.
type Logger struct {
	llmLogPath string
	maxSize    int64
}

func NewLogger() *Logger {
	return &Logger{
		llmLogPath: filepath.Join("logs", "llm.jsonl"),
		maxSize:    10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event to stdout.
func (l *Logger) Log(evt Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		fmt.Printf("{\"error\": \"failed to marshal event: %v\"}\n", err)
		return
	}
	fmt.Println(string(data))

	if evt.Type == EventTypeLLM {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	// Check size before writing
	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// Simple rotation: keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

// Helper methods for common events

func (l *Logger) LogPlanStarted(query string) {
	l.Log(Event{
		Type:  EventTypePlan,
		Query: query,
		Data:  map[string]string{"status": "started"},
	})
}

func (l *Logger) LogPlanProduced(query string, steps any, fallback bool) {
	l.Log(Event{
		Type:  EventTypePlan,
		Query: query,
		Data: map[string]any{
			"status":   "produced",
			"steps":    steps,
			"fallback": fallback,
		},
	})
}

func (l *Logger) LogSearch(query string, stepQuery string, results int) {
	l.Log(Event{
		Type:  EventTypeSearch,
		Query: query,
		Data: map[string]any{
			"step_query": stepQuery,
			"results":    results,
		},
	})
}

func (l *Logger) LogScrape(query string, url string, chars int) {
	l.Log(Event{
		Type:  EventTypeScrape,
		Query: query,
		Data: map[string]any{
			"url":   url,
			"chars": chars,
		},
	})
}

func (l *Logger) LogSynthesisStarted(query string, contextChars int) {
	l.Log(Event{
		Type:  EventTypeSynthesis,
		Query: query,
		Data: map[string]any{
			"status":        "started",
			"context_chars": contextChars,
		},
	})
}

func (l *Logger) LogReport(query string, path string, chars int) {
	l.Log(Event{
		Type:  EventTypeReport,
		Query: query,
		Data: map[string]any{
			"path":  path,
			"chars": chars,
		},
	})
}

func (l *Logger) LogLLM(kind string, system, user, response string, promptTokens, completionTokens int, duration time.Duration) {
	l.Log(Event{
		Type: EventTypeLLM,
		Data: map[string]any{
			"kind":              kind,
			"system":            system,
			"user":              user,
			"response":          response,
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
			"duration_ms":       duration.Milliseconds(),
		},
	})
}
