package brayns

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockCall is one request seen by a MockClient.
type MockCall struct {
	Method  string
	Params  Params
	Timeout time.Duration
}

// MockClient simulates a renderer for testing.
// It records every request and answers with a fixed result or a callback.
type MockClient struct {
	name      string
	available bool
	result    any
	callback  func(method string, params Params) (any, error)
	tf        *MockTransferFunction
	calls     []MockCall
	mu        sync.Mutex
}

// NewMockClient creates a mock client that answers every request with
// {"ok": true}.
func NewMockClient() *MockClient {
	return &MockClient{
		name:      "mock",
		available: true,
		result:    map[string]any{"ok": true},
		tf:        &MockTransferFunction{},
	}
}

// NewMockClientWithResult creates a mock that always returns result.
func NewMockClientWithResult(result any) *MockClient {
	m := NewMockClient()
	m.name = "mock-fixed"
	m.result = result
	return m
}

// NewMockClientWithCallback creates a mock that calls a function to produce results.
func NewMockClientWithCallback(callback func(method string, params Params) (any, error)) *MockClient {
	m := NewMockClient()
	m.name = "mock-callback"
	m.callback = callback
	return m
}

// Request records the call and answers it.
func (m *MockClient) Request(_ context.Context, method string, params Params, timeout time.Duration) (any, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Method: method, Params: params, Timeout: timeout})
	available := m.available
	m.mu.Unlock()

	if !available {
		return nil, fmt.Errorf("renderer %s is unavailable", m.name)
	}
	if m.callback != nil {
		return m.callback(method, params)
	}
	return m.result, nil
}

// TransferFunction returns the mock's transfer function.
func (m *MockClient) TransferFunction() TransferFunction {
	return m.tf
}

// MockTransferFunction returns the concrete transfer function for assertions.
func (m *MockClient) MockTransferFunction() *MockTransferFunction {
	return m.tf
}

// SetAvailable sets the availability status (for testing failures).
func (m *MockClient) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
}

// Calls returns a copy of the recorded requests.
func (m *MockClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]MockCall, len(m.calls))
	copy(calls, m.calls)
	return calls
}

// LastCall returns the most recent request, or false if there was none.
func (m *MockClient) LastCall() (MockCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return MockCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// MockTransferFunction records what was set on it and how often it was committed.
type MockTransferFunction struct {
	Diffuse      [][]float64
	Contribution []float64
	Emission     [][]float64
	Range        []float64
	Commits      int
	CommitErr    error
}

// SetDiffuse implements TransferFunction.
func (tf *MockTransferFunction) SetDiffuse(colors [][]float64) { tf.Diffuse = colors }

// SetContribution implements TransferFunction.
func (tf *MockTransferFunction) SetContribution(values []float64) { tf.Contribution = values }

// SetEmission implements TransferFunction.
func (tf *MockTransferFunction) SetEmission(colors [][]float64) { tf.Emission = colors }

// SetRange implements TransferFunction.
func (tf *MockTransferFunction) SetRange(dataRange []float64) { tf.Range = dataRange }

// Commit counts the commit and returns CommitErr.
func (tf *MockTransferFunction) Commit(_ context.Context) error {
	tf.Commits++
	return tf.CommitErr
}
