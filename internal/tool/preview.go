package tool

// Preview is implemented by all preview types attached to a Change.
// Front ends use type switches to render each type appropriately.
type Preview interface {
	isPreview()
}

// TextPreview is for plain content (new files, deletions, external calls).
type TextPreview string

func (TextPreview) isPreview() {}

// DiffPreview is for file modifications with unified diff content.
type DiffPreview struct {
	Diff         string
	AddedLines   int
	RemovedLines int
}

func (DiffPreview) isPreview() {}

// CommandPreview is for shell command execution.
type CommandPreview struct {
	Command    string
	WorkingDir string
}

func (CommandPreview) isPreview() {}

// PreviewText flattens a preview to plain text.
func PreviewText(p Preview) string {
	switch v := p.(type) {
	case TextPreview:
		return string(v)
	case DiffPreview:
		return v.Diff
	case CommandPreview:
		return "$ " + v.Command
	default:
		return ""
	}
}
