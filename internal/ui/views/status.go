package views

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/kiro/internal/ui/models"
)

// RenderStatus renders the status bar
func RenderStatus(s models.State) string {
	var left string
	switch s.StatusPhase {
	case "thinking":
		dots := strings.Repeat(".", s.DotCount)
		left = StatusThinkingStyle.Render(fmt.Sprintf("%s Generating%s", s.Spinner.View(), dots))
	case "executing":
		left = StatusExecutingStyle.Render(fmt.Sprintf("%s %s", s.Spinner.View(), s.StatusMessage))
	case "done":
		left = StatusDoneStyle.Render("✔ " + s.StatusMessage)
	case "awaiting":
		left = StatusAwaitingStyle.Render("Waiting for approval")
	default:
		msg := "Ready"
		if s.StatusMessage != "" {
			msg = s.StatusMessage
		}
		left = StatusDefaultStyle.Render(msg)
	}

	if s.CurrentModel == "" {
		return left
	}
	return fmt.Sprintf("%s  %s", left, StatusDefaultStyle.Render(s.CurrentModel))
}
