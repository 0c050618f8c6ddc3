package rockets

import (
	"context"
	"slices"
	"sync"

	"github.com/zoobzio/brayns"
)

// MethodSetTransferFunction is the RPC a commit is sent with.
const MethodSetTransferFunction = "set-transfer-function"

// TransferFunction buffers colour map edits until Commit sends them.
type TransferFunction struct {
	client *Client

	mu           sync.Mutex
	diffuse      [][]float64
	contribution []float64
	emission     [][]float64
	dataRange    []float64
}

// SetDiffuse implements brayns.TransferFunction.
func (tf *TransferFunction) SetDiffuse(colors [][]float64) {
	tf.mu.Lock()
	tf.diffuse = colors
	tf.mu.Unlock()
}

// SetContribution implements brayns.TransferFunction.
func (tf *TransferFunction) SetContribution(values []float64) {
	tf.mu.Lock()
	tf.contribution = values
	tf.mu.Unlock()
}

// SetEmission implements brayns.TransferFunction.
func (tf *TransferFunction) SetEmission(colors [][]float64) {
	tf.mu.Lock()
	tf.emission = colors
	tf.mu.Unlock()
}

// SetRange implements brayns.TransferFunction.
func (tf *TransferFunction) SetRange(dataRange []float64) {
	tf.mu.Lock()
	tf.dataRange = dataRange
	tf.mu.Unlock()
}

// Commit sends the current state to the renderer.
func (tf *TransferFunction) Commit(ctx context.Context) error {
	tf.mu.Lock()
	params := brayns.Params{
		"diffuse":      slices.Clone(tf.diffuse),
		"contribution": slices.Clone(tf.contribution),
		"emission":     slices.Clone(tf.emission),
		"range":        slices.Clone(tf.dataRange),
	}
	tf.mu.Unlock()

	_, err := tf.client.Request(ctx, MethodSetTransferFunction, params, 0)
	return err
}
