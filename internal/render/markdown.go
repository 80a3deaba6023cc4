// Package render formats reports for the console.
package render

import (
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const fallbackWidth = 100

// Markdown renders a markdown report for the terminal. On any render
// problem the raw markdown is returned instead; the report always reaches
// the user.
func Markdown(report string) string {
	width := fallbackWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
		width = w
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return report
	}
	out, err := r.Render(report)
	if err != nil {
		return report
	}
	return out
}
