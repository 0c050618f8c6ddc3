// Package brayns provides client-side explorers for a remote Brayns renderer.
//
// Brayns does all of its real work (rendering, geometry construction, simulation
// mapping) in a separate server process. This package only shapes parameters
// and dispatches them through an injected RenderClient. It provides two
// explorers:
//
//   - CircuitExplorer: materials, circuit and morphology attributes, colour
//     transfer functions, model cache load/save
//   - GraphExplorer: node positions, random connectivity, connectivity matrices
//
// Every request flows through a pipz pipeline, so callers can opt into
// reliability options (retry, timeout, circuit breaker, rate limiting) and
// observe capitan hooks. With no options, each call is exactly one request.
//
// Basic usage:
//
//	client, _ := rockets.Dial(ctx, rockets.Config{URL: "ws://localhost:5000/"})
//	circuits := brayns.NewCircuitExplorer(client)
//	in := brayns.DefaultMaterialInput(0, 1)
//	in.Diffuse = brayns.RGB(1, 0, 0)
//	result, err := circuits.SetMaterial(ctx, in)
package brayns

import (
	"context"
	"time"
)

// Params is a wire parameter mapping sent as the body of a remote call.
type Params map[string]any

// Requester sends a single remote procedure call to the renderer.
// A zero timeout means the requester's own default applies.
// The returned value is handed back to callers without interpretation.
type Requester interface {
	Request(ctx context.Context, method string, params Params, timeout time.Duration) (any, error)
}

// RenderClient is the collaborator the CircuitExplorer needs: a Requester that
// also exposes the renderer's colour transfer function.
type RenderClient interface {
	Requester

	// TransferFunction returns the renderer's mutable transfer function.
	TransferFunction() TransferFunction
}

// TransferFunction is a colour/opacity lookup curve owned by the renderer.
// Setters replace the whole list; nothing reaches the renderer until Commit.
type TransferFunction interface {
	SetDiffuse(colors [][]float64)
	SetContribution(values []float64)
	SetEmission(colors [][]float64)
	SetRange(dataRange []float64)
	Commit(ctx context.Context) error
}

// RGB builds a three component colour.
func RGB(r, g, b float64) []float64 {
	return []float64{r, g, b}
}

// RGBA builds a four component colour.
func RGBA(r, g, b, a float64) []float64 {
	return []float64{r, g, b, a}
}

// AABB builds an axis aligned bounding box from its min and max corners.
func AABB(minX, minY, minZ, maxX, maxY, maxZ float64) []float64 {
	return []float64{minX, minY, minZ, maxX, maxY, maxZ}
}

// Range builds a two value range.
func Range(lo, hi float64) []float64 {
	return []float64{lo, hi}
}
