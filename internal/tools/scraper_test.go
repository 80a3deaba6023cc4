package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rahul/scout/internal/governance"
	"github.com/rahul/scout/internal/store"
)

const samplePage = `
<html>
<head><script>alert("tracking");</script><style>.x{color:red}</style></head>
<body>
<nav>nav link one</nav>
<header>site header</header>
<p>Solar  tariffs reshaped   battery supply chains.</p>
<p>Manufacturers moved production.</p>
<footer>footer text</footer>
</body>
</html>`

func newTestScraper(t *testing.T) (*Scraper, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return NewScraper(st), st
}

func TestScrape_CleansHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	s, _ := newTestScraper(t)

	text, err := s.Scrape(context.Background(), srv.URL+"/page", 5000)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(text, "Solar tariffs reshaped battery supply chains.") {
		t.Errorf("expected whitespace-normalized content, got %q", text)
	}
	if !strings.Contains(text, "Manufacturers moved production.") {
		t.Errorf("expected paragraph text, got %q", text)
	}
	for _, junk := range []string{"alert", "color:red", "nav link", "site header", "footer text"} {
		if strings.Contains(text, junk) {
			t.Errorf("non-content element %q leaked into %q", junk, text)
		}
	}
}

func TestScrape_SecondCallServedFromCache(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	s, _ := newTestScraper(t)
	url := srv.URL + "/page"

	first, err := s.Scrape(context.Background(), url, 5000)
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Scrape(context.Background(), url, 5000)
	if err != nil {
		t.Fatal(err)
	}

	if requests != 1 {
		t.Errorf("expected at most one network request, got %d", requests)
	}
	if first != second {
		t.Errorf("cached read should match original: %q vs %q", first, second)
	}
}

func TestScrape_TruncatesPerRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	s, st := newTestScraper(t)
	url := srv.URL + "/page"

	full, err := s.Scrape(context.Background(), url, 0)
	if err != nil {
		t.Fatal(err)
	}

	// The cache stores the untruncated text; every read truncates anew.
	stored, ok, err := st.GetContent(url)
	if err != nil || !ok {
		t.Fatalf("expected cached row, ok=%v err=%v", ok, err)
	}
	if stored != full {
		t.Errorf("cache should hold full text")
	}

	for _, max := range []int{5, 10, len(full)} {
		got, err := s.Scrape(context.Background(), url, max)
		if err != nil {
			t.Fatal(err)
		}
		if got != full[:max] {
			t.Errorf("max=%d: expected leading %d chars of cached content", max, max)
		}
	}
}

func TestScrape_FailsSoft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	url := srv.URL + "/down"
	srv.Close() // transport error, not just a bad status

	s, st := newTestScraper(t)

	text, err := s.Scrape(context.Background(), url, 5000)
	if err != nil {
		t.Fatalf("failed fetch must not return an error: %v", err)
	}
	if text != "" {
		t.Errorf("failed fetch should yield empty content, got %q", text)
	}

	if _, ok, _ := st.GetContent(url); ok {
		t.Error("failed fetch must not write to the cache")
	}
}

func TestScrape_DuplicateURLSingleCacheRow(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	s, st := newTestScraper(t)
	url := srv.URL + "/a"

	// Two results resolving to the same URL get scraped back to back.
	if _, err := s.Scrape(context.Background(), url, 5000); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Scrape(context.Background(), url, 5000); err != nil {
		t.Fatal(err)
	}

	var count int
	if err := st.DB.QueryRow(`SELECT COUNT(*) FROM cache WHERE url = ?`, url).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected a single cache row for %s, got %d", url, count)
	}
}

func TestScrape_DeniedByPolicy(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	s, st := newTestScraper(t)
	pol := governance.NewDefaultPolicyEngine()
	if err := pol.DenyTarget(`^http://127\.`); err != nil {
		t.Fatal(err)
	}
	s.Policy = pol

	url := srv.URL + "/blocked"
	text, err := s.Scrape(context.Background(), url, 5000)
	if err != nil {
		t.Fatal(err)
	}
	if text != "" {
		t.Errorf("denied scrape should yield empty content, got %q", text)
	}
	if requests != 0 {
		t.Errorf("denied scrape must not touch the network, got %d requests", requests)
	}
	if _, ok, _ := st.GetContent(url); ok {
		t.Error("denied scrape must not write to the cache")
	}
}

// brokenCache simulates an unavailable backing store.
type brokenCache struct{}

func (brokenCache) GetContent(string) (string, bool, error) {
	return "", false, fmt.Errorf("%w: disk gone", store.ErrStorageUnavailable)
}

func (brokenCache) SetContent(string, string) error {
	return fmt.Errorf("%w: disk gone", store.ErrStorageUnavailable)
}

func TestScrape_StorageUnavailableIsNonFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	s := NewScraper(brokenCache{})

	text, err := s.Scrape(context.Background(), srv.URL+"/page", 5000)
	if err != nil {
		t.Fatalf("cache failure must not fail the scrape: %v", err)
	}
	if !strings.Contains(text, "Solar tariffs") {
		t.Errorf("expected direct fetch to proceed without caching, got %q", text)
	}
	if errors.Is(err, store.ErrStorageUnavailable) {
		t.Error("storage errors must be absorbed, not propagated")
	}
}
