package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const defaultBraveEndpoint = "https://api.search.brave.com/res/v1/web/search"

// BraveSearch queries the Brave Search API. The key is passed per call so
// the strategy selection in WebSearch stays credential-driven.
type BraveSearch struct {
	Endpoint string
	Client   *http.Client
}

func NewBraveSearch() *BraveSearch {
	return &BraveSearch{
		Endpoint: defaultBraveEndpoint,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *BraveSearch) Search(ctx context.Context, apiKey, query string, limit int) ([]SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	q := req.URL.Query()
	q.Set("q", query)
	q.Set("count", strconv.Itoa(limit))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", apiKey)

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: brave http %d", ErrSearchUnavailable, resp.StatusCode)
	}

	var payload struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchUnavailable, err)
	}

	// Missing fields decode to empty strings rather than failing the call.
	results := make([]SearchResult, 0, limit)
	for _, item := range payload.Web.Results {
		if len(results) >= limit {
			break
		}
		results = append(results, SearchResult{
			Title:   item.Title,
			URL:     item.URL,
			Snippet: item.Description,
		})
	}
	return results, nil
}
