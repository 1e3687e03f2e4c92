// Package services formats tool activity and change previews for display.
package services

import (
	"fmt"
	"strings"

	"github.com/Cyclone1070/kiro/internal/approval"
	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/charmbracelet/lipgloss"
)

var (
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	commandStyle = lipgloss.NewStyle().Bold(true)
)

// FormatToolDescription summarises a tool call for the status bar.
func FormatToolDescription(name string, args map[string]any) string {
	str := func(key string) string {
		v, _ := args[key].(string)
		return v
	}
	switch name {
	case "read_file", "create_file", "modify_file", "delete_file", "read_pdf", "pdf_info":
		if p := str("path"); p != "" {
			return fmt.Sprintf("%s %s", name, p)
		}
	case "list_directory":
		p := str("path")
		if p == "" {
			p = "."
		}
		return fmt.Sprintf("%s %s", name, p)
	case "execute_shell":
		if c := str("command"); c != "" {
			return fmt.Sprintf("execute_shell '%s'", c)
		}
	case "execute_code":
		if c := strings.TrimSpace(str("code")); c != "" {
			line, _, more := strings.Cut(c, "\n")
			if more {
				line += " ..."
			}
			return fmt.Sprintf("execute_code '%s'", line)
		}
	case "web_search", "quick_answer":
		if q := str("query"); q != "" {
			return fmt.Sprintf("%s '%s'", name, q)
		}
	case "search_pdf":
		if q := str("query"); q != "" {
			return fmt.Sprintf("search_pdf '%s' in %s", q, str("path"))
		}
	case "fetch_url":
		if u := str("url"); u != "" {
			return fmt.Sprintf("fetch_url %s", u)
		}
	}
	return name
}

// RenderPreview renders a change preview with diff colouring.
func RenderPreview(p tool.Preview) string {
	switch v := p.(type) {
	case tool.DiffPreview:
		return renderDiff(v)
	case tool.CommandPreview:
		dir := v.WorkingDir
		if dir == "" {
			dir = "."
		}
		return fmt.Sprintf("in %s\n%s", dir, commandStyle.Render("$ "+v.Command))
	case tool.TextPreview:
		return string(v)
	default:
		return ""
	}
}

func renderDiff(d tool.DiffPreview) string {
	lines := strings.Split(strings.TrimRight(d.Diff, "\n"), "\n")
	inHunk := false
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "@@"):
			inHunk = true
			lines[i] = hunkStyle.Render(line)
		case !inHunk:
		case strings.HasPrefix(line, "+"):
			lines[i] = addedStyle.Render(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = removedStyle.Render(line)
		}
	}
	return fmt.Sprintf("+%d -%d\n%s", d.AddedLines, d.RemovedLines, strings.Join(lines, "\n"))
}

// DescribeChange is the popup title for a pending change.
func DescribeChange(c approval.PendingChange) string {
	switch c.Kind {
	case tool.KindCreate:
		return "Create " + c.Target
	case tool.KindModify:
		return "Modify " + c.Target
	case tool.KindDelete:
		return "Delete " + c.Target
	case tool.KindExecute:
		return "Run " + c.Target
	default:
		return c.Tool + " " + c.Target
	}
}
