// Package testing provides utilities for testing code built on brayns.
package testing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/brayns"
)

// RecordedCall represents a single request made to a client.
type RecordedCall struct {
	Method  string
	Params  brayns.Params
	Timeout time.Duration
}

// SequencedClient returns results in sequence.
// After all results are exhausted, it returns the last result repeatedly.
type SequencedClient struct {
	results []any
	index   atomic.Int64
	tf      *RecordingTransferFunction
}

// NewSequencedClient creates a client that returns results in order.
func NewSequencedClient(results ...any) *SequencedClient {
	if len(results) == 0 {
		results = []any{nil}
	}
	return &SequencedClient{
		results: results,
		tf:      NewRecordingTransferFunction(),
	}
}

// Request returns the next result in sequence.
func (c *SequencedClient) Request(_ context.Context, _ string, _ brayns.Params, _ time.Duration) (any, error) {
	idx := int(c.index.Add(1) - 1)
	if idx >= len(c.results) {
		idx = len(c.results) - 1
	}
	return c.results[idx], nil
}

// TransferFunction returns the client's recording transfer function.
func (c *SequencedClient) TransferFunction() brayns.TransferFunction {
	return c.tf
}

// CallCount returns the number of calls made.
func (c *SequencedClient) CallCount() int {
	return int(c.index.Load())
}

// Reset resets the call counter.
func (c *SequencedClient) Reset() {
	c.index.Store(0)
}

// FailingClient fails a specified number of times before succeeding.
type FailingClient struct {
	failCount    int
	currentCount atomic.Int64
	result       any
	failError    string
	tf           *RecordingTransferFunction
}

// NewFailingClient creates a client that fails failCount times then succeeds.
func NewFailingClient(failCount int) *FailingClient {
	return &FailingClient{
		failCount: failCount,
		result:    map[string]any{"recovered": true},
		failError: "simulated renderer failure",
		tf:        NewRecordingTransferFunction(),
	}
}

// WithResult sets the result returned after failures are exhausted.
func (c *FailingClient) WithResult(result any) *FailingClient {
	c.result = result
	return c
}

// WithFailError sets the error message for failures.
func (c *FailingClient) WithFailError(msg string) *FailingClient {
	c.failError = msg
	return c
}

// Request fails until failCount is reached, then succeeds.
func (c *FailingClient) Request(_ context.Context, _ string, _ brayns.Params, _ time.Duration) (any, error) {
	count := c.currentCount.Add(1)
	if int(count) <= c.failCount {
		return nil, fmt.Errorf("%s (attempt %d/%d)", c.failError, count, c.failCount)
	}
	return c.result, nil
}

// TransferFunction returns the client's recording transfer function.
func (c *FailingClient) TransferFunction() brayns.TransferFunction {
	return c.tf
}

// CallCount returns the number of calls made.
func (c *FailingClient) CallCount() int {
	return int(c.currentCount.Load())
}

// Reset resets the call counter.
func (c *FailingClient) Reset() {
	c.currentCount.Store(0)
}

// RecordingClient wraps a client and records all requests made to it.
type RecordingClient struct {
	client brayns.RenderClient
	calls  []RecordedCall
	mu     sync.Mutex
}

// NewRecordingClient wraps a client with call recording.
func NewRecordingClient(client brayns.RenderClient) *RecordingClient {
	return &RecordingClient{
		client: client,
		calls:  make([]RecordedCall, 0),
	}
}

// Request records the call and delegates to the wrapped client.
func (r *RecordingClient) Request(ctx context.Context, method string, params brayns.Params, timeout time.Duration) (any, error) {
	r.mu.Lock()
	r.calls = append(r.calls, RecordedCall{Method: method, Params: params, Timeout: timeout})
	r.mu.Unlock()

	return r.client.Request(ctx, method, params, timeout)
}

// TransferFunction returns the wrapped client's transfer function.
func (r *RecordingClient) TransferFunction() brayns.TransferFunction {
	return r.client.TransferFunction()
}

// Calls returns a copy of all recorded calls.
func (r *RecordingClient) Calls() []RecordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := make([]RecordedCall, len(r.calls))
	copy(calls, r.calls)
	return calls
}

// CallCount returns the number of calls recorded.
func (r *RecordingClient) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// LastCall returns the most recent call, or nil if no calls made.
func (r *RecordingClient) LastCall() *RecordedCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.calls) == 0 {
		return nil
	}
	call := r.calls[len(r.calls)-1]
	return &call
}

// Methods returns the recorded method names in call order.
func (r *RecordingClient) Methods() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	methods := make([]string, len(r.calls))
	for i, call := range r.calls {
		methods[i] = call.Method
	}
	return methods
}

// Reset clears all recorded calls.
func (r *RecordingClient) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = make([]RecordedCall, 0)
}

// LatencyClient wraps a client and adds artificial latency.
type LatencyClient struct {
	client brayns.RenderClient
	delay  time.Duration
}

// NewLatencyClient wraps a client with artificial delay.
// The delay is applied before each request and respects context cancellation.
func NewLatencyClient(client brayns.RenderClient, delay time.Duration) *LatencyClient {
	return &LatencyClient{
		client: client,
		delay:  delay,
	}
}

// Request adds latency then delegates to the wrapped client.
func (c *LatencyClient) Request(ctx context.Context, method string, params brayns.Params, timeout time.Duration) (any, error) {
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return c.client.Request(ctx, method, params, timeout)
}

// TransferFunction returns the wrapped client's transfer function.
func (c *LatencyClient) TransferFunction() brayns.TransferFunction {
	return c.client.TransferFunction()
}

// RecordingTransferFunction records every committed state.
type RecordingTransferFunction struct {
	mu      sync.Mutex
	current TransferFunctionState
	commits []TransferFunctionState
	err     error
}

// TransferFunctionState is the content of a transfer function at commit time.
type TransferFunctionState struct {
	Diffuse      [][]float64
	Contribution []float64
	Emission     [][]float64
	Range        []float64
}

// NewRecordingTransferFunction creates an empty transfer function.
func NewRecordingTransferFunction() *RecordingTransferFunction {
	return &RecordingTransferFunction{}
}

// WithCommitError makes every commit fail with err.
func (tf *RecordingTransferFunction) WithCommitError(err error) *RecordingTransferFunction {
	tf.mu.Lock()
	tf.err = err
	tf.mu.Unlock()
	return tf
}

// SetDiffuse implements brayns.TransferFunction.
func (tf *RecordingTransferFunction) SetDiffuse(colors [][]float64) {
	tf.mu.Lock()
	tf.current.Diffuse = colors
	tf.mu.Unlock()
}

// SetContribution implements brayns.TransferFunction.
func (tf *RecordingTransferFunction) SetContribution(values []float64) {
	tf.mu.Lock()
	tf.current.Contribution = values
	tf.mu.Unlock()
}

// SetEmission implements brayns.TransferFunction.
func (tf *RecordingTransferFunction) SetEmission(colors [][]float64) {
	tf.mu.Lock()
	tf.current.Emission = colors
	tf.mu.Unlock()
}

// SetRange implements brayns.TransferFunction.
func (tf *RecordingTransferFunction) SetRange(dataRange []float64) {
	tf.mu.Lock()
	tf.current.Range = dataRange
	tf.mu.Unlock()
}

// Commit records the current state.
func (tf *RecordingTransferFunction) Commit(_ context.Context) error {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	tf.commits = append(tf.commits, tf.current)
	return tf.err
}

// Commits returns every committed state in order.
func (tf *RecordingTransferFunction) Commits() []TransferFunctionState {
	tf.mu.Lock()
	defer tf.mu.Unlock()

	commits := make([]TransferFunctionState, len(tf.commits))
	copy(commits, tf.commits)
	return commits
}

// WritePositionsFile writes one "x y z" line per node into dir and returns the path.
func WritePositionsFile(dir string, nodes ...[3]float64) (string, error) {
	var b strings.Builder
	for _, n := range nodes {
		fmt.Fprintf(&b, "%g %g %g\n", n[0], n[1], n[2])
	}
	path := filepath.Join(dir, "positions.xyz")
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return "", err
	}
	return path, nil
}
