package tools

import (
	"context"
	"errors"
)

// ErrSearchUnavailable wraps network and parse failures from either search
// strategy. The researcher treats a failed search step as zero results.
var ErrSearchUnavailable = errors.New("search unavailable")

// SearchResult is one candidate web result. Content starts empty and is
// filled in by the researcher once the page has been scraped.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Content string `json:"content,omitempty"`
}

// Provider turns a query into an ordered list of results, at most limit long.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// WebSearch searches with the Brave API when a key is configured and falls
// back to scraping DuckDuckGo's HTML results otherwise. The key is read
// through a func on every call, so a credential added mid-run takes effect
// on the next search.
type WebSearch struct {
	BraveKey func() string
	Brave    *BraveSearch
	Fallback *DuckDuckGoSearch
}

func NewWebSearch(braveKey func() string) *WebSearch {
	return &WebSearch{
		BraveKey: braveKey,
		Brave:    NewBraveSearch(),
		Fallback: NewDuckDuckGoSearch(),
	}
}

func (w *WebSearch) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if key := w.BraveKey(); key != "" {
		return w.Brave.Search(ctx, key, query, limit)
	}
	return w.Fallback.Search(ctx, query, limit)
}
