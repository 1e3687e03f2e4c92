package services

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer renders assistant replies for the terminal.
type MarkdownRenderer interface {
	Render(markdown string, width int) (string, error)
}

// GlamourRenderer renders markdown with glamour's auto style.
type GlamourRenderer struct{}

func (GlamourRenderer) Render(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(markdown)
}

// RenderMarkdown renders content, trimming glamour's surrounding blank lines.
func RenderMarkdown(content string, width int, r MarkdownRenderer) (string, error) {
	if r == nil {
		return content, nil
	}
	out, err := r.Render(content, width)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}
