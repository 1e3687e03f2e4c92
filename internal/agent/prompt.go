package agent

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Cyclone1070/kiro/internal/tool"
)

// DefaultSystemPrompt opens every prompt unless configuration overrides it.
const DefaultSystemPrompt = "You are Kiro, a local coding assistant. Answer directly when you can. " +
	"When the user asks you to act on files, run commands, search the web or read documents, use a tool."

const formatRules = `To use a tool, reply with exactly one JSON object in this format:
{"action": "use_tool", "tool_name": "<tool name>", "arguments": {"<param>": "<value>"}}

Rules:
- Use one tool per reply and wait for its result before continuing.
- Tool results come back as messages starting with [Tool Result: <tool name>].
- File changes and code or shell runs are reviewed by the user; include a short "reason" argument.
- Paths are relative to the workspace root.
- When you have everything you need, reply in plain text without any JSON.

Examples:
{"action": "use_tool", "tool_name": "create_file", "arguments": {"path": "hello.txt", "content": "hello", "reason": "Create greeting file"}}
{"action": "use_tool", "tool_name": "execute_shell", "arguments": {"command": "git status", "reason": "Check repository state"}}
{"action": "use_tool", "tool_name": "web_search", "arguments": {"query": "golang context cancellation", "num_results": 5}}`

type toolLister interface {
	List() []tool.Declaration
	Revision() uint64
}

// PromptBuilder renders the system prompt and rebuilds it only when the
// registry changes.
type PromptBuilder struct {
	base  string
	tools toolLister

	mu     sync.Mutex
	rev    uint64
	cached string
	built  bool
}

// NewPromptBuilder creates a builder. An empty base uses DefaultSystemPrompt.
func NewPromptBuilder(base string, tools toolLister) *PromptBuilder {
	if strings.TrimSpace(base) == "" {
		base = DefaultSystemPrompt
	}
	return &PromptBuilder{base: base, tools: tools}
}

// Build returns the system prompt for the current tool set.
func (b *PromptBuilder) Build() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	rev := b.tools.Revision()
	if b.built && rev == b.rev {
		return b.cached
	}

	var sb strings.Builder
	sb.WriteString(b.base)
	sb.WriteString("\n\nAvailable tools:\n")
	for _, decl := range b.tools.List() {
		sb.WriteString(describe(decl))
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')
	sb.WriteString(formatRules)

	b.cached, b.rev, b.built = sb.String(), rev, true
	return b.cached
}

func describe(decl tool.Declaration) string {
	line := fmt.Sprintf("- %s: %s", decl.Name, decl.Description)
	if decl.Parameters == nil || len(decl.Parameters.Properties) == 0 {
		return line
	}

	required := make(map[string]bool, len(decl.Parameters.Required))
	for _, r := range decl.Parameters.Required {
		required[r] = true
	}
	names := make([]string, 0, len(decl.Parameters.Properties))
	for name := range decl.Parameters.Properties {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if required[names[i]] != required[names[j]] {
			return required[names[i]]
		}
		return names[i] < names[j]
	})

	params := make([]string, len(names))
	for i, name := range names {
		p := decl.Parameters.Properties[name]
		opt := ""
		if !required[name] {
			opt = ", optional"
		}
		params[i] = fmt.Sprintf("%s (%s%s)", name, p.Type, opt)
	}
	return line + "\n  params: " + strings.Join(params, ", ")
}
