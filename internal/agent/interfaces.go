package agent

import (
	"context"

	"github.com/Cyclone1070/kiro/internal/approval"
	"github.com/Cyclone1070/kiro/internal/tool"
)

// toolRegistry resolves tools by exact name.
type toolRegistry interface {
	toolLister
	Lookup(name string) (tool.Tool, error)
}

// approvalGate holds mutating calls until a human decides.
type approvalGate interface {
	Propose(toolName string, ch *tool.Change) approval.PendingChange
	Resolve(ctx context.Context, id string, approved bool) (tool.Outcome, error)
}
