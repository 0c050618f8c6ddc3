package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zoobzio/brayns"
	"github.com/zoobzio/brayns/rockets"
	braynstest "github.com/zoobzio/brayns/testing"
)

func connect(t *testing.T, renderer *braynstest.Renderer) *rockets.Client {
	t.Helper()
	client, err := rockets.Dial(context.Background(), rockets.Config{URL: renderer.URL(), Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("failed to dial renderer: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCircuitExplorer_OverRockets(t *testing.T) {
	renderer := braynstest.NewRenderer(nil)
	defer renderer.Close()
	explorer := brayns.NewCircuitExplorer(connect(t, renderer), brayns.WithValidation())
	ctx := context.Background()

	in := brayns.DefaultMaterialInput(3, 7)
	in.Diffuse = brayns.RGB(0.5, 0.25, 1)
	in.Intensity = 2
	result, err := explorer.SetMaterial(ctx, in)
	if err != nil {
		t.Fatalf("SetMaterial failed: %v", err)
	}

	echoed, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("expected echoed params, got %T", result)
	}
	diffuse, _ := echoed["diffuseColor"].([]any)
	if len(diffuse) != 3 || diffuse[0] != 1.0 || diffuse[1] != 0.5 || diffuse[2] != 2.0 {
		t.Errorf("expected scaled diffuse colour, got %v", echoed["diffuseColor"])
	}
	if echoed["shadingMode"] != "none" {
		t.Errorf("expected shading mode none, got %v", echoed["shadingMode"])
	}

	requests := renderer.Requests()
	if len(requests) != 1 || requests[0].Method != brayns.MethodSetMaterial {
		t.Fatalf("unexpected requests: %+v", requests)
	}
	if len(requests[0].Params) != len(brayns.WireKeys(brayns.MethodSetMaterial)) {
		t.Errorf("expected every wire key on the wire, got %v", requests[0].Params)
	}
}

func TestCircuitExplorer_AttributesOverRockets(t *testing.T) {
	renderer := braynstest.NewRenderer(nil)
	defer renderer.Close()
	explorer := brayns.NewCircuitExplorer(connect(t, renderer))
	ctx := context.Background()

	if _, err := explorer.SetCircuitAttributes(ctx, brayns.DefaultCircuitAttributesInput()); err != nil {
		t.Fatalf("SetCircuitAttributes failed: %v", err)
	}
	morph := brayns.DefaultMorphologyAttributesInput()
	morph.SectionTypes = []brayns.SectionType{brayns.SectionTypeSoma, brayns.SectionTypeAxon}
	if _, err := explorer.SetMorphologyAttributes(ctx, morph); err != nil {
		t.Fatalf("SetMorphologyAttributes failed: %v", err)
	}

	requests := renderer.Requests()
	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}
	if requests[0].Params["simulationHistogramSize"] != 256.0 {
		t.Errorf("expected legacy histogram size, got %v", requests[0].Params["simulationHistogramSize"])
	}
	if requests[1].Params["sectionTypes"] != 3.0 {
		t.Errorf("expected section mask 3, got %v", requests[1].Params["sectionTypes"])
	}
}

func TestCircuitExplorer_TransferFunctionOverRockets(t *testing.T) {
	renderer := braynstest.NewRenderer(nil)
	defer renderer.Close()
	explorer := brayns.NewCircuitExplorer(connect(t, renderer))

	palette := [][]float64{brayns.RGB(1, 0, 0), brayns.RGBA(0, 1, 0, 0.5)}
	if err := explorer.SetTransferFunction(context.Background(), brayns.DefaultTransferFunctionInput(palette)); err != nil {
		t.Fatalf("SetTransferFunction failed: %v", err)
	}

	requests := renderer.Requests()
	if len(requests) != 1 || requests[0].Method != rockets.MethodSetTransferFunction {
		t.Fatalf("expected one commit, got %+v", requests)
	}
	diffuse, _ := requests[0].Params["diffuse"].([]any)
	if len(diffuse) != 2 {
		t.Fatalf("expected 2 diffuse colours, got %v", requests[0].Params["diffuse"])
	}
	second, _ := diffuse[1].([]any)
	if len(second) != 4 || second[3] != 0.5 {
		t.Errorf("expected alpha to survive, got %v", diffuse[1])
	}
}

func TestCircuitExplorer_RendererRejects(t *testing.T) {
	renderer := braynstest.NewRenderer(braynstest.Reject(-32000, "model not found"))
	defer renderer.Close()
	explorer := brayns.NewCircuitExplorer(connect(t, renderer))

	_, err := explorer.LoadFromCache(context.Background(), "circuit", "/missing")
	var rpcErr *rockets.Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *rockets.Error, got %v", err)
	}
	if rpcErr.Code != -32000 {
		t.Errorf("expected code -32000, got %d", rpcErr.Code)
	}
}

func TestGraphExplorer_OverRockets(t *testing.T) {
	renderer := braynstest.NewRenderer(nil)
	defer renderer.Close()
	explorer := brayns.NewGraphExplorer(connect(t, renderer))
	ctx := context.Background()

	path, err := braynstest.WritePositionsFile(t.TempDir(), [3]float64{1, 2, 3}, [3]float64{4, 5, 6})
	if err != nil {
		t.Fatalf("failed to write positions: %v", err)
	}

	in := brayns.DefaultPositionsInput(path)
	in.Radius = 2.5
	if err := explorer.LoadPositionsFromFile(ctx, in); err != nil {
		t.Fatalf("LoadPositionsFromFile failed: %v", err)
	}
	if _, err := explorer.CreateRandomConnectivity(ctx, brayns.DefaultRandomConnectivityInput()); err != nil {
		t.Fatalf("CreateRandomConnectivity failed: %v", err)
	}
	if _, err := explorer.LoadConnectivityFromFile(ctx, brayns.DefaultConnectivityInput("/data/m.h5", 1)); err != nil {
		t.Fatalf("LoadConnectivityFromFile failed: %v", err)
	}

	requests := renderer.Requests()
	if len(requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(requests))
	}
	x, _ := requests[0].Params["x"].([]any)
	if len(x) != 2 || x[1] != 4.0 || requests[0].Params["radius"] != 2.5 {
		t.Errorf("unexpected positions params: %v", requests[0].Params)
	}
	if requests[1].Method != brayns.MethodRandomConnectivity || requests[1].Params["maxLength"] != 1e6 {
		t.Errorf("unexpected random connectivity request: %+v", requests[1])
	}
	if requests[2].Params["filename"] != "/data/m.h5" || requests[2].Params["maxDimension"] != 1e6 {
		t.Errorf("unexpected connectivity request: %+v", requests[2])
	}
}

func TestGraphExplorer_BadFileNeverReachesRenderer(t *testing.T) {
	renderer := braynstest.NewRenderer(nil)
	defer renderer.Close()
	explorer := brayns.NewGraphExplorer(connect(t, renderer))

	path := filepath.Join(t.TempDir(), "bad.xyz")
	if err := os.WriteFile(path, []byte("1 2\n"), 0o600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if err := explorer.LoadPositionsFromFile(context.Background(), brayns.DefaultPositionsInput(path)); err == nil {
		t.Error("expected parse error")
	}
	if renderer.RequestCount() != 0 {
		t.Errorf("expected no requests, got %d", renderer.RequestCount())
	}
}
