package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Cyclone1070/kiro/internal/approval"
	"github.com/Cyclone1070/kiro/internal/conversation"
	"github.com/Cyclone1070/kiro/internal/provider"
	"github.com/Cyclone1070/kiro/internal/tool"
	"github.com/Cyclone1070/kiro/internal/tool/registry"
	"github.com/rs/zerolog"
)

// scriptedBackend replays canned replies and records every request.
type scriptedBackend struct {
	mu           sync.Mutex
	replies      []string
	requests     []*provider.Request
	completeFunc func(ctx context.Context, req *provider.Request) (string, error)
}

func (b *scriptedBackend) Complete(ctx context.Context, req *provider.Request) (string, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	n := len(b.requests)
	b.mu.Unlock()

	if b.completeFunc != nil {
		return b.completeFunc(ctx, req)
	}
	if n > len(b.replies) {
		return "", errors.New("script exhausted")
	}
	return b.replies[n-1], nil
}

func (b *scriptedBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func toolCallJSON(name string, args string) string {
	return fmt.Sprintf(`{"action": "use_tool", "tool_name": %q, "arguments": %s}`, name, args)
}

type fileReq struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// memFS is a toy workspace the test tools write into.
type memFS struct {
	mu     sync.Mutex
	files  map[string]string
	writes int
}

func newMemFS() *memFS { return &memFS{files: map[string]string{}} }

func (m *memFS) get(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.files[path]
	return v, ok
}

func (m *memFS) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func fileSchema() *tool.Schema {
	return &tool.Schema{
		Type: tool.TypeObject,
		Properties: map[string]*tool.Schema{
			"path":    {Type: tool.TypeString},
			"content": {Type: tool.TypeString},
			"reason":  {Type: tool.TypeString},
		},
		Required: []string{"path", "content"},
	}
}

func createFileTool(fs *memFS) tool.Mutating {
	return tool.NewMutating(
		tool.Declaration{Name: "create_file", Description: "create a file", Parameters: fileSchema()},
		func(ctx context.Context, req *fileReq) (*tool.Change, error) {
			if len(req.Path) > 0 && req.Path[0] == '/' {
				return nil, errors.New("path traversal / absolute path rejected")
			}
			return &tool.Change{
				Kind:    tool.KindCreate,
				Target:  req.Path,
				Payload: req.Content,
				Preview: tool.TextPreview(req.Content),
				Apply: func(ctx context.Context) tool.Outcome {
					fs.mu.Lock()
					defer fs.mu.Unlock()
					fs.files[req.Path] = req.Content
					fs.writes++
					return tool.Succeed(fmt.Sprintf("Created %s (%d bytes)", req.Path, len(req.Content)))
				},
			}, nil
		},
	)
}

func echoTool() tool.Tool {
	type req struct {
		Text string `json:"text"`
	}
	return tool.New(
		tool.Declaration{Name: "echo", Description: "echo text", Parameters: &tool.Schema{
			Type:       tool.TypeObject,
			Properties: map[string]*tool.Schema{"text": {Type: tool.TypeString}},
			Required:   []string{"text"},
		}},
		func(ctx context.Context, r *req) (string, error) { return r.Text, nil },
	)
}

type harness struct {
	backend *scriptedBackend
	fs      *memFS
	tools   *registry.Registry
	gate    *approval.Gate
	conv    *conversation.State
	loop    *Loop
}

func newHarness(maxIter int, replies ...string) *harness {
	fs := newMemFS()
	reg, err := registry.New(echoTool(), createFileTool(fs))
	if err != nil {
		panic(err)
	}
	h := &harness{
		backend: &scriptedBackend{replies: replies},
		fs:      fs,
		tools:   reg,
		gate:    approval.New(approval.WithIDGenerator(approval.SequentialIDs("c"))),
		conv:    conversation.New(nil),
	}
	h.loop = NewLoop(Config{
		Backend:       h.backend,
		Tools:         h.tools,
		Gate:          h.gate,
		Conversation:  h.conv,
		Options:       provider.Options{Model: "test"},
		MaxIterations: maxIter,
		Logger:        zerolog.Nop(),
	})
	return h
}

func userTurn(text string) conversation.Turn {
	return conversation.Turn{Role: conversation.RoleUser, Content: text}
}
