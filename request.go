package brayns

import "time"

// Call flows through the dispatch pipeline.
// It carries the outgoing request and, once processed, the renderer's result.
type Call struct {
	// Input fields
	Method  string        // Remote method name, e.g. "setMaterial"
	Params  Params        // Wire parameter mapping
	Timeout time.Duration // Response timeout; zero defers to the client

	// Metadata fields
	RequestID string // Unique identifier for this call
	Explorer  string // Explorer that built the call

	// Output fields (populated by pipeline)
	Result any // Value returned by the client, untouched
}
