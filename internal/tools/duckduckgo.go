package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultDuckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGoSearch scrapes DuckDuckGo's HTML results page. It needs no API
// key, which makes it the fallback strategy when no Brave key is configured.
type DuckDuckGoSearch struct {
	Endpoint  string
	Client    *http.Client
	UserAgent string
}

func NewDuckDuckGoSearch() *DuckDuckGoSearch {
	return &DuckDuckGoSearch{
		Endpoint:  defaultDuckDuckGoEndpoint,
		Client:    &http.Client{Timeout: 15 * time.Second},
		UserAgent: "Mozilla/5.0",
	}
}

func (d *DuckDuckGoSearch) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	endpoint := d.Endpoint + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	req.Header.Set("User-Agent", d.UserAgent)

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: duckduckgo http %d", ErrSearchUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}

	var results []SearchResult
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		anchor := sel.Find(".result__a").First()
		if anchor.Length() == 0 {
			// Malformed block; skip it rather than failing the search.
			return true
		}
		href, _ := anchor.Attr("href")
		title := strings.TrimSpace(anchor.Text())
		if href == "" || title == "" {
			return true
		}
		snippet := strings.TrimSpace(sel.Find(".result__snippet").First().Text())

		results = append(results, SearchResult{
			Title:   title,
			URL:     href,
			Snippet: snippet,
		})
		return len(results) < limit
	})

	return results, nil
}
