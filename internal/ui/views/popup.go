package views

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/kiro/internal/ui/models"
	"github.com/Cyclone1070/kiro/internal/ui/services"
	"github.com/charmbracelet/lipgloss"
)

const maxPreviewLines = 30

// RenderApprovalPopup renders the y/n prompt for the pending change.
func RenderApprovalPopup(s models.State) string {
	c := s.PendingApproval
	if c == nil {
		return ""
	}

	lines := []string{lipgloss.NewStyle().Bold(true).Render(services.DescribeChange(*c))}
	if c.Reason != "" {
		lines = append(lines, lipgloss.NewStyle().Faint(true).Render(c.Reason))
	}
	lines = append(lines, "")

	preview := strings.Split(services.RenderPreview(c.Preview), "\n")
	if len(preview) > maxPreviewLines {
		hidden := len(preview) - maxPreviewLines
		preview = append(preview[:maxPreviewLines],
			lipgloss.NewStyle().Faint(true).Render(fmt.Sprintf("... %d more lines", hidden)))
	}
	lines = append(lines, preview...)
	lines = append(lines, "", lipgloss.NewStyle().Faint(true).Render("y: Approve  n: Reject"))

	return ApprovalBoxStyle.Render(strings.Join(lines, "\n"))
}
