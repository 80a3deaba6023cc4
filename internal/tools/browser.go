package tools

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
)

// BrowserRenderer drives a headless Chrome instance to render JS-heavy
// pages. The browser is started lazily on first use and reused until Close.
type BrowserRenderer struct {
	mu            sync.Mutex
	allocCtx      context.Context
	browserCtx    context.Context
	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
}

func NewBrowserRenderer() *BrowserRenderer {
	return &BrowserRenderer{}
}

func (b *BrowserRenderer) initBrowser() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		select {
		case <-b.browserCtx.Done():
			b.cleanup()
		default:
			return nil
		}
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	b.browserCtx, b.browserCancel = chromedp.NewContext(b.allocCtx)

	return chromedp.Run(b.browserCtx)
}

func (b *BrowserRenderer) cleanup() {
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.browserCtx = nil
	b.allocCtx = nil
}

// Close shuts the browser down.
func (b *BrowserRenderer) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanup()
}

// Render navigates to url and returns the document's outer HTML after the
// page has loaded.
func (b *BrowserRenderer) Render(ctx context.Context, url string) (string, error) {
	if err := b.initBrowser(); err != nil {
		return "", err
	}

	actionCtx, cancel := context.WithTimeout(b.browserCtx, 60*time.Second)
	defer cancel()
	go func() {
		// Propagate caller cancellation into the browser action.
		select {
		case <-ctx.Done():
			cancel()
		case <-actionCtx.Done():
		}
	}()

	var html string
	err := chromedp.Run(actionCtx,
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			node, err := dom.GetDocument().Do(ctx)
			if err != nil {
				return err
			}
			html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return "", err
	}
	return html, nil
}
