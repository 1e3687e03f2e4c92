package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Cyclone1070/kiro/internal/tool"
)

type toolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*CallResult, error)
}

// remoteTool forwards calls to a tool hosted on an MCP server. The
// registry adds the server prefix, so the declaration keeps the remote name.
type remoteTool struct {
	caller toolCaller
	decl   tool.Declaration
}

func (t *remoteTool) Declaration() tool.Declaration { return t.decl }

func (t *remoteTool) Execute(ctx context.Context, args map[string]any) tool.Outcome {
	return t.call(ctx, args)
}

func (t *remoteTool) call(ctx context.Context, args map[string]any) tool.Outcome {
	res, err := t.caller.CallTool(ctx, t.decl.Name, args)
	if err != nil {
		return tool.Fail(err)
	}
	text := res.Text()
	if res.IsError {
		if text == "" {
			text = "remote tool reported an error"
		}
		return tool.Failf("%s", text)
	}
	return tool.Succeed(text)
}

// gatedRemoteTool is a remote tool whose calls wait for approval.
type gatedRemoteTool struct {
	remoteTool
	server string
}

func (t *gatedRemoteTool) Execute(context.Context, map[string]any) tool.Outcome {
	return tool.Fail(tool.ErrApprovalRequired)
}

func (t *gatedRemoteTool) Plan(_ context.Context, args map[string]any) (*tool.Change, error) {
	payload, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return nil, &tool.ArgumentError{Reason: err.Error()}
	}
	target := t.server + "/" + t.decl.Name
	reason, _ := args["reason"].(string)
	frozen := cloneArgs(args)
	return &tool.Change{
		Kind:    tool.KindExecute,
		Target:  target,
		Payload: string(payload),
		Reason:  reason,
		Preview: tool.TextPreview(fmt.Sprintf("Call %s with:\n%s", target, payload)),
		Apply: func(ctx context.Context) tool.Outcome {
			return t.call(ctx, frozen)
		},
	}, nil
}

// Adapt wraps the tools a server advertises. With gated set every tool
// becomes mutating and goes through approval.
func Adapt(c *Client, gated bool) []tool.Tool {
	return adaptTools(c, c.Name(), c.Tools(), gated)
}

func adaptTools(caller toolCaller, server string, infos []ToolInfo, gated bool) []tool.Tool {
	out := make([]tool.Tool, 0, len(infos))
	for _, info := range infos {
		rt := remoteTool{
			caller: caller,
			decl: tool.Declaration{
				Name:        info.Name,
				Description: info.Description,
				Parameters:  convertSchema(info.InputSchema),
			},
		}
		if gated {
			out = append(out, &gatedRemoteTool{remoteTool: rt, server: server})
		} else {
			out = append(out, &rt)
		}
	}
	return out
}

// convertSchema maps an MCP inputSchema onto tool.Schema. Constructs the
// schema type cannot express (union types, $ref) collapse to a bare object.
func convertSchema(raw json.RawMessage) *tool.Schema {
	fallback := &tool.Schema{Type: tool.TypeObject}
	if len(raw) == 0 {
		return fallback
	}
	var s tool.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return fallback
	}
	if s.Type == "" {
		s.Type = tool.TypeObject
	}
	return &s
}

func cloneArgs(args map[string]any) map[string]any {
	out := make(map[string]any, len(args))
	for k, v := range args {
		if k == "reason" {
			continue
		}
		out[k] = v
	}
	return out
}
