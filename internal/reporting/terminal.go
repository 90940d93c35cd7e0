package reporting

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

const defaultWrapWidth = 100

// RenderTerminal styles a Markdown document for a terminal. An empty style
// picks one from the terminal background; width <= 0 uses the default wrap.
func RenderTerminal(markdown string, style string, width int) (string, error) {
	if width <= 0 {
		width = defaultWrapWidth
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}

	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}

	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return out, nil
}
