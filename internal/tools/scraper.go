package tools

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rahul/scout/internal/governance"
)

// ContentCache is what the scraper needs from the store. Entries hold the
// full normalized text; truncation happens on every read.
type ContentCache interface {
	GetContent(url string) (string, bool, error)
	SetContent(url, content string) error
}

// Renderer loads a page in a real browser and returns the rendered HTML.
// Used for pages whose static HTML carries no readable text.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Scraper extracts clean plain text from URLs, backed by the content cache.
type Scraper struct {
	Cache     ContentCache
	Client    *http.Client
	UserAgent string
	Renderer  Renderer                // optional
	Policy    governance.PolicyEngine // optional
}

func NewScraper(cache ContentCache) *Scraper {
	return &Scraper{
		Cache:     cache,
		Client:    &http.Client{Timeout: 10 * time.Second},
		UserAgent: "Mozilla/5.0",
	}
}

// Scrape returns the page text for pageURL truncated to maxLength. A fetch
// that fails returns "" rather than an error: one unreachable page must not
// abort a research run. Cache failures are also non-fatal; the text is
// simply not cached.
func (s *Scraper) Scrape(ctx context.Context, pageURL string, maxLength int) (string, error) {
	if s.Policy != nil {
		res, err := s.Policy.Evaluate(ctx, governance.Request{Operation: "scrape", Target: pageURL})
		if err == nil && res.Effect == governance.EffectDeny {
			log.Printf("Scrape of %s denied: %s", pageURL, res.Reason)
			return "", nil
		}
	}

	cached, ok, err := s.Cache.GetContent(pageURL)
	if err != nil {
		log.Printf("Warning: cache read failed for %s: %v", pageURL, err)
	} else if ok {
		return truncate(cached, maxLength), nil
	}

	text := s.fetchStatic(ctx, pageURL)
	if text == "" && s.Renderer != nil {
		text = s.fetchRendered(ctx, pageURL)
	}
	if text == "" {
		return "", nil
	}

	if err := s.Cache.SetContent(pageURL, text); err != nil {
		log.Printf("Warning: failed to cache content for %s: %v", pageURL, err)
	}

	return truncate(text, maxLength), nil
}

// fetchStatic downloads the page and extracts text from the raw HTML.
func (s *Scraper) fetchStatic(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		log.Printf("Error scraping %s: %v", pageURL, err)
		return ""
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		log.Printf("Error scraping %s: %v", pageURL, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Error scraping %s: status code %d", pageURL, resp.StatusCode)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		log.Printf("Error scraping %s: %v", pageURL, err)
		return ""
	}

	doc.Find("script, style, nav, footer, header").Remove()
	return normalizeText(doc.Text())
}

// fetchRendered renders the page in a browser and extracts the main article.
func (s *Scraper) fetchRendered(ctx context.Context, pageURL string) string {
	html, err := s.Renderer.Render(ctx, pageURL)
	if err != nil {
		log.Printf("Error rendering %s: %v", pageURL, err)
		return ""
	}

	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(html), parsed)
	if err != nil {
		log.Printf("Error extracting article from %s: %v", pageURL, err)
		return ""
	}

	sanitized := bluemonday.StrictPolicy().Sanitize(article.TextContent)
	return normalizeText(sanitized)
}

// normalizeText collapses extracted text into single-spaced prose: lines are
// trimmed, split on double-space runs, and non-empty fragments rejoined.
func normalizeText(raw string) string {
	var chunks []string
	for _, line := range strings.Split(raw, "\n") {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			if p := strings.TrimSpace(phrase); p != "" {
				chunks = append(chunks, p)
			}
		}
	}
	return strings.Join(chunks, " ")
}

func truncate(s string, maxLength int) string {
	if maxLength > 0 && len(s) > maxLength {
		return s[:maxLength]
	}
	return s
}
