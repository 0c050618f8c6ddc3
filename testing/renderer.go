package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/zoobzio/brayns/rockets"
)

// Handler answers one JSON-RPC request. A non-nil *rockets.Error is sent
// back as the error object.
type Handler func(method string, params map[string]any) (any, *rockets.Error)

// Echo answers every request with its own params.
func Echo(_ string, params map[string]any) (any, *rockets.Error) {
	return params, nil
}

// Reject answers every request with the given JSON-RPC error.
func Reject(code int, message string) Handler {
	return func(string, map[string]any) (any, *rockets.Error) {
		return nil, &rockets.Error{Code: code, Message: message}
	}
}

// ReceivedRequest is one request seen by a Renderer.
type ReceivedRequest struct {
	ID     string
	Method string
	Params map[string]any
}

// Renderer is an in-process websocket server speaking the rockets protocol.
// Requests are answered concurrently so replies may arrive out of order.
type Renderer struct {
	server   *httptest.Server
	upgrader websocket.Upgrader
	handler  Handler

	mu       sync.Mutex
	requests []ReceivedRequest
	conns    []*rendererConn
}

type rendererConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *rendererConn) send(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *rendererConn) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

type rpcRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      string         `json:"id"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

type rpcResponse struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      string         `json:"id,omitempty"`
	Method  string         `json:"method,omitempty"`
	Params  any            `json:"params,omitempty"`
	Result  any            `json:"result,omitempty"`
	Error   *rockets.Error `json:"error,omitempty"`
}

// NewRenderer starts a renderer that answers with handler, or Echo when nil.
func NewRenderer(handler Handler) *Renderer {
	if handler == nil {
		handler = Echo
	}
	r := &Renderer{handler: handler}
	r.server = httptest.NewServer(http.HandlerFunc(r.serve))
	return r
}

// URL returns the websocket URL of the renderer.
func (r *Renderer) URL() string {
	return "ws" + strings.TrimPrefix(r.server.URL, "http")
}

// Close disconnects all clients and stops the server.
func (r *Renderer) Close() {
	r.Disconnect()
	r.server.Close()
}

// Disconnect drops every open connection without a close frame.
func (r *Renderer) Disconnect() {
	r.mu.Lock()
	conns := r.conns
	r.conns = nil
	r.mu.Unlock()

	for _, c := range conns {
		_ = c.conn.Close()
	}
}

// Notify pushes a notification to every connected client.
func (r *Renderer) Notify(method string, params any) {
	r.mu.Lock()
	conns := append([]*rendererConn(nil), r.conns...)
	r.mu.Unlock()

	for _, c := range conns {
		_ = c.send(rpcResponse{JSONRPC: "2.0", Method: method, Params: params})
	}
}

// Push writes a raw frame of the given websocket message type to every
// connected client, e.g. websocket.BinaryMessage for an image stream.
func (r *Renderer) Push(messageType int, data []byte) {
	r.mu.Lock()
	conns := append([]*rendererConn(nil), r.conns...)
	r.mu.Unlock()

	for _, c := range conns {
		_ = c.write(messageType, data)
	}
}

// Requests returns a copy of every request received so far.
func (r *Renderer) Requests() []ReceivedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()

	requests := make([]ReceivedRequest, len(r.requests))
	copy(requests, r.requests)
	return requests
}

// RequestCount returns the number of requests received.
func (r *Renderer) RequestCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.requests)
}

func (r *Renderer) serve(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	c := &rendererConn{conn: conn}

	r.mu.Lock()
	r.conns = append(r.conns, c)
	r.mu.Unlock()

	defer conn.Close()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var in rpcRequest
		if err := json.Unmarshal(msg, &in); err != nil {
			_ = c.send(rpcResponse{JSONRPC: "2.0", Error: &rockets.Error{Code: -32700, Message: "parse error"}})
			continue
		}

		r.mu.Lock()
		r.requests = append(r.requests, ReceivedRequest{ID: in.ID, Method: in.Method, Params: in.Params})
		r.mu.Unlock()

		go func() {
			result, rpcErr := r.handler(in.Method, in.Params)
			out := rpcResponse{JSONRPC: "2.0", ID: in.ID, Error: rpcErr}
			if rpcErr == nil {
				out.Result = result
			}
			_ = c.send(out)
		}()
	}
}
