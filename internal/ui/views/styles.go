package views

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("12")
	ColorMuted   = lipgloss.Color("241")
	ColorError   = lipgloss.Color("9")

	UserMessageStyle      = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	AssistantMessageStyle = lipgloss.NewStyle()
	ToolMessageStyle      = lipgloss.NewStyle().Foreground(ColorMuted)
	ErrorMessageStyle     = lipgloss.NewStyle().Foreground(ColorError)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1)

	ApprovalBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.DoubleBorder()).
				BorderForeground(lipgloss.Color("11")).
				Padding(1, 2)

	StatusDefaultStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	StatusThinkingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	StatusExecutingStyle = lipgloss.NewStyle().Foreground(ColorPrimary)
	StatusDoneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	StatusAwaitingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
