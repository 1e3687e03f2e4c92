// Package provider defines the text-completion backend the agent loop talks
// to, plus the request options every backend honours.
package provider

import (
	"context"
	"time"

	"github.com/Cyclone1070/kiro/internal/config"
	"github.com/Cyclone1070/kiro/internal/conversation"
)

// Options are the recognised per-request knobs.
type Options struct {
	Model           string
	Temperature     float64 // [0, 1]
	MaxOutputTokens int
	Timeout         time.Duration
}

// OptionsFromConfig converts the model section of the config.
func OptionsFromConfig(cfg config.ModelConfig) Options {
	return Options{
		Model:           cfg.Name,
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxOutputTokens,
		Timeout:         time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// Request is one completion call: instructions plus the full history.
type Request struct {
	System  string
	Turns   []conversation.Turn
	Options Options
}

// Backend completes a conversation with the next assistant message.
// Failures are returned as *Error.
type Backend interface {
	Complete(ctx context.Context, req *Request) (string, error)
}

// ModelInfo describes a model a backend can serve.
type ModelInfo struct {
	Name       string
	Size       int64
	ModifiedAt time.Time
}

// ModelLister is implemented by backends that can enumerate models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// WithTimeout derives a context bounded by opts.Timeout when it is set.
func WithTimeout(ctx context.Context, opts Options) (context.Context, context.CancelFunc) {
	if opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, opts.Timeout)
}

// Message is a turn flattened for chat-style backends.
type Message struct {
	Role    string
	Content string
}

// Flatten renders turns for backends that only understand
// system/user/assistant messages. Tool results become user messages tagged
// with the tool name so the model can tell them apart from the human.
func Flatten(turns []conversation.Turn) []Message {
	out := make([]Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case conversation.RoleAssistant:
			out = append(out, Message{Role: "assistant", Content: t.Content})
		case conversation.RoleToolResult:
			name := "unknown"
			if t.ToolCall != nil {
				name = t.ToolCall.Name
			}
			out = append(out, Message{Role: "user", Content: "[Tool Result: " + name + "]\n" + t.Content})
		case conversation.RoleSystem:
			out = append(out, Message{Role: "system", Content: t.Content})
		default:
			out = append(out, Message{Role: "user", Content: t.Content})
		}
	}
	return out
}
