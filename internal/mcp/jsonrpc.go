package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

const jsonrpcVersion = "2.0"

var (
	ErrClosed       = errors.New("mcp: connection closed")
	ErrNotConnected = errors.New("mcp: server not connected")
)

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      *int64 `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object returned by a server.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("mcp rpc error %d: %s", e.Code, e.Message)
}

func decodeResult(resp *response, out any) error {
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("mcp: decode result: %w", err)
	}
	return nil
}

// mux correlates responses with outstanding requests for transports that
// carry a single bidirectional message stream.
type mux struct {
	next    atomic.Int64
	mu      sync.Mutex
	pending map[int64]chan *response
	err     error // set once the stream ends
}

func newMux() *mux {
	return &mux{pending: make(map[int64]chan *response)}
}

// register allocates an id and a channel for its response.
func (m *mux) register() (int64, chan *response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, nil, m.err
	}
	id := m.next.Add(1)
	ch := make(chan *response, 1)
	m.pending[id] = ch
	return id, ch, nil
}

func (m *mux) forget(id int64) {
	m.mu.Lock()
	delete(m.pending, id)
	m.mu.Unlock()
}

// deliver routes a response. Server-initiated messages without a known id
// are dropped.
func (m *mux) deliver(resp *response) {
	if resp.ID == nil {
		return
	}
	m.mu.Lock()
	ch, ok := m.pending[*resp.ID]
	delete(m.pending, *resp.ID)
	m.mu.Unlock()
	if ok {
		ch <- resp
	}
}

// fail ends every outstanding call with err.
func (m *mux) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return
	}
	m.err = err
	for id, ch := range m.pending {
		delete(m.pending, id)
		close(ch)
	}
}

// call sends a request with write and waits for the matching response.
func (m *mux) call(ctx context.Context, method string, params, out any, write func(request) error) error {
	id, ch, err := m.register()
	if err != nil {
		return err
	}
	if err := write(request{JSONRPC: jsonrpcVersion, ID: &id, Method: method, Params: params}); err != nil {
		m.forget(id)
		return fmt.Errorf("mcp: send %s: %w", method, err)
	}
	select {
	case resp, ok := <-ch:
		if !ok {
			m.mu.Lock()
			err := m.err
			m.mu.Unlock()
			return err
		}
		return decodeResult(resp, out)
	case <-ctx.Done():
		m.forget(id)
		return ctx.Err()
	}
}
