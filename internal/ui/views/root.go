package views

import (
	"github.com/Cyclone1070/kiro/internal/ui/models"
	"github.com/charmbracelet/lipgloss"
)

// RenderRoot renders the complete UI layout
func RenderRoot(s models.State) string {
	if s.PendingApproval != nil {
		return lipgloss.Place(
			s.Width,
			s.Height,
			lipgloss.Center,
			lipgloss.Center,
			RenderApprovalPopup(s),
			lipgloss.WithWhitespaceChars(" "),
		)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		RenderChat(s),
		InputStyle.Render(s.Input.View()),
		RenderStatus(s),
	)
}
