package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Transport carries JSON-RPC messages to one server.
type Transport interface {
	Call(ctx context.Context, method string, params, out any) error
	Notify(ctx context.Context, method string, params any) error
	Close() error
}

// -- stdio --

// StdioTransport speaks newline-delimited JSON-RPC to a child process.
type StdioTransport struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	wmu    sync.Mutex
	mux    *mux
	done   chan struct{}
	logger zerolog.Logger
}

// StartStdio launches command and starts reading its stdout. env entries
// are added to the current environment.
func StartStdio(command string, args []string, env map[string]string, logger zerolog.Logger) (*StdioTransport, error) {
	cmd := exec.Command(command, args...)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, strings.ToUpper(k)+"="+v)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("mcp: start %s: %w", command, err)
	}

	t := &StdioTransport{cmd: cmd, stdin: stdin, mux: newMux(), done: make(chan struct{}), logger: logger}
	go t.readLoop(stdout)
	go t.drainStderr(stderr)
	return t, nil
}

func (t *StdioTransport) readLoop(r io.Reader) {
	defer close(t.done)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			t.logger.Debug().Str("line", string(line)).Msg("ignoring non-JSON output from MCP server")
			continue
		}
		t.mux.deliver(&resp)
	}
	t.mux.fail(ErrClosed)
}

func (t *StdioTransport) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		t.logger.Debug().Str("stderr", scanner.Text()).Msg("mcp server")
	}
}

func (t *StdioTransport) write(msg request) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	t.wmu.Lock()
	defer t.wmu.Unlock()
	_, err = t.stdin.Write(append(data, '\n'))
	return err
}

func (t *StdioTransport) Call(ctx context.Context, method string, params, out any) error {
	return t.mux.call(ctx, method, params, out, t.write)
}

func (t *StdioTransport) Notify(ctx context.Context, method string, params any) error {
	return t.write(request{JSONRPC: jsonrpcVersion, Method: method, Params: params})
}

// Close closes stdin, then interrupts and finally kills the process if it
// has not exited within five seconds.
func (t *StdioTransport) Close() error {
	_ = t.stdin.Close()
	exited := make(chan struct{})
	go func() {
		_ = t.cmd.Wait()
		close(exited)
	}()
	select {
	case <-exited:
	case <-time.After(time.Second):
		_ = t.cmd.Process.Signal(os.Interrupt)
		select {
		case <-exited:
		case <-time.After(5 * time.Second):
			_ = t.cmd.Process.Kill()
			<-exited
		}
	}
	t.mux.fail(ErrClosed)
	return nil
}

// -- http --

// HTTPTransport posts each message to {url}/rpc.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
	mux      *mux
}

// NewHTTPTransport creates a transport for baseURL.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{endpoint: strings.TrimRight(baseURL, "/") + "/rpc", client: client, mux: newMux()}
}

func (t *HTTPTransport) post(ctx context.Context, msg request) (*response, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("mcp: %s returned HTTP %d: %s", t.endpoint, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if msg.ID == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var out response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("mcp: decode response: %w", err)
	}
	return &out, nil
}

func (t *HTTPTransport) Call(ctx context.Context, method string, params, out any) error {
	id := t.mux.next.Add(1)
	resp, err := t.post(ctx, request{JSONRPC: jsonrpcVersion, ID: &id, Method: method, Params: params})
	if err != nil {
		return err
	}
	if resp == nil {
		return fmt.Errorf("mcp: empty response to %s", method)
	}
	return decodeResult(resp, out)
}

func (t *HTTPTransport) Notify(ctx context.Context, method string, params any) error {
	_, err := t.post(ctx, request{JSONRPC: jsonrpcVersion, Method: method, Params: params})
	return err
}

func (t *HTTPTransport) Close() error { return nil }

// -- websocket --

// WebsocketTransport exchanges JSON-RPC text frames over one connection.
type WebsocketTransport struct {
	conn   *websocket.Conn
	wmu    sync.Mutex
	mux    *mux
	logger zerolog.Logger
}

// DialWebsocket connects to url.
func DialWebsocket(ctx context.Context, url string, logger zerolog.Logger) (*WebsocketTransport, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("mcp: dial %s: %w", url, err)
	}
	t := &WebsocketTransport{conn: conn, mux: newMux(), logger: logger}
	go t.readLoop()
	return t, nil
}

func (t *WebsocketTransport) readLoop() {
	for {
		var resp response
		if err := t.conn.ReadJSON(&resp); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				t.logger.Debug().Err(err).Msg("ignoring malformed websocket frame")
				continue
			}
			t.mux.fail(ErrClosed)
			return
		}
		t.mux.deliver(&resp)
	}
}

func (t *WebsocketTransport) write(msg request) error {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	return t.conn.WriteJSON(msg)
}

func (t *WebsocketTransport) Call(ctx context.Context, method string, params, out any) error {
	return t.mux.call(ctx, method, params, out, t.write)
}

func (t *WebsocketTransport) Notify(ctx context.Context, method string, params any) error {
	return t.write(request{JSONRPC: jsonrpcVersion, Method: method, Params: params})
}

func (t *WebsocketTransport) Close() error {
	t.wmu.Lock()
	_ = t.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	t.wmu.Unlock()
	err := t.conn.Close()
	t.mux.fail(ErrClosed)
	return err
}
