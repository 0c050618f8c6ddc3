// Package rockets implements brayns.RenderClient over the JSON-RPC 2.0
// websocket protocol a Brayns renderer speaks.
//
// Usage:
//
//	client, err := rockets.Dial(ctx, rockets.Config{URL: "ws://localhost:5000/"})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	circuits := brayns.NewCircuitExplorer(client)
package rockets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zoobzio/brayns"
	"github.com/zoobzio/capitan"
)

const jsonrpcVersion = "2.0"

// ErrClosed is returned for requests made on, or pending on, a closed connection.
var ErrClosed = errors.New("rockets: connection closed")

// Config configures a Client.
type Config struct {
	// URL of the renderer, e.g. ws://localhost:5000/.
	URL string

	// Timeout applies to requests that pass a zero timeout.
	// Zero means wait until the context is done.
	Timeout time.Duration

	// Header is sent with the websocket handshake.
	Header http.Header
}

// Error is a JSON-RPC error object returned by the renderer.
type Error struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rockets: %s (code %d)", e.Message, e.Code)
}

type request struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  brayns.Params `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Client is a websocket connection to a renderer.
// Requests may be issued concurrently; replies are matched by ID.
type Client struct {
	conn    *websocket.Conn
	url     string
	timeout time.Duration

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[string]chan response
	err     error

	done      chan struct{}
	closeOnce sync.Once
	stopOnce  sync.Once

	tf *TransferFunction
}

var _ brayns.RenderClient = (*Client)(nil)

// Dial connects to the renderer at cfg.URL.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.URL, cfg.Header)
	if err != nil {
		return nil, fmt.Errorf("rockets: dial %s: %w", cfg.URL, err)
	}

	c := &Client{
		conn:    conn,
		url:     cfg.URL,
		timeout: cfg.Timeout,
		pending: make(map[string]chan response),
		done:    make(chan struct{}),
	}
	c.tf = &TransferFunction{client: c}

	go c.readLoop()

	capitan.Info(ctx, brayns.ClientConnected, brayns.URLKey.Field(cfg.URL))
	return c, nil
}

// Request sends method with params and waits for the reply.
// A zero timeout falls back to Config.Timeout.
func (c *Client) Request(ctx context.Context, method string, params brayns.Params, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	id := uuid.New().String()
	reply := make(chan response, 1)

	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending[id] = reply
	c.mu.Unlock()

	if err := c.write(request{JSONRPC: jsonrpcVersion, ID: id, Method: method, Params: params}); err != nil {
		c.forget(id)
		return nil, fmt.Errorf("rockets: send %s: %w", method, err)
	}

	select {
	case resp := <-reply:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return decodeResult(resp.Result)
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}
}

// TransferFunction returns the renderer's transfer function.
func (c *Client) TransferFunction() brayns.TransferFunction {
	return c.tf
}

// Close sends a close frame and tears down the connection.
// Pending requests fail with ErrClosed.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
		c.stop(ErrClosed)
	})
	return err
}

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) write(req request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(req)
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// readLoop delivers replies to pending requests. Only transport errors end
// the connection; binary frames (image streams), undecodable messages and
// replies nobody waits for are dropped.
func (c *Client) readLoop() {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			c.stop(err)
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			continue
		}
		id, ok := replyID(resp.ID)
		if !ok {
			continue
		}

		c.mu.Lock()
		reply, ok := c.pending[id]
		delete(c.pending, id)
		c.mu.Unlock()

		if ok {
			reply <- resp
		}
	}
}

// replyID returns the string ID of a reply. Notifications have none, and
// numeric IDs never belong to this client.
func replyID(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil || id == "" {
		return "", false
	}
	return id, true
}

func (c *Client) stop(cause error) {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.err = cause
		c.pending = make(map[string]chan response)
		c.mu.Unlock()
		close(c.done)

		if errors.Is(cause, ErrClosed) || websocket.IsCloseError(cause, websocket.CloseNormalClosure) {
			capitan.Info(context.Background(), brayns.ClientClosed, brayns.URLKey.Field(c.url))
			return
		}
		capitan.Error(context.Background(), brayns.ClientClosed,
			brayns.URLKey.Field(c.url),
			brayns.ErrorKey.Field(cause.Error()),
		)
	})
}

func decodeResult(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("rockets: decode result: %w", err)
	}
	return result, nil
}
