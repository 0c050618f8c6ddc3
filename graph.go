package brayns

import (
	"context"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// PositionsInput describes a node positions file to load.
type PositionsInput struct {
	Path      string
	Radius    float64   // Radius of the sphere drawn for each node
	Scale     []float64 // One factor per axis
	ScaleMode ScaleMode
}

// DefaultPositionsInput returns unit radius, unit scale positions for path.
func DefaultPositionsInput(path string) PositionsInput {
	return PositionsInput{
		Path:      path,
		Radius:    1,
		Scale:     []float64{1, 1, 1},
		ScaleMode: ScaleRepeat,
	}
}

// RandomConnectivityInput bounds randomly generated connections.
type RandomConnectivityInput struct {
	MinDistance float64 // Minimum distance between connected nodes
	MaxDistance float64 // Maximum distance between connected nodes
	Density     int     // Nodes to skip between every new connection
}

// DefaultRandomConnectivityInput returns the renderer's default bounds.
func DefaultRandomConnectivityInput() RandomConnectivityInput {
	return RandomConnectivityInput{
		MinDistance: 0,
		MaxDistance: DefaultMaxConnectionLength,
		Density:     1,
	}
}

// ConnectivityInput describes a connectivity matrix file to load.
type ConnectivityInput struct {
	Path           string // HDF5 file holding the matrices
	MatrixID       int
	DimensionRange [2]int

	// Scale is accepted for compatibility with older callers. It is never
	// sent to the renderer.
	Scale []float64
}

// DefaultConnectivityInput returns the full dimension range for matrixID in path.
func DefaultConnectivityInput(path string, matrixID int) ConnectivityInput {
	return ConnectivityInput{
		Path:           path,
		MatrixID:       matrixID,
		DimensionRange: [2]int{1, DefaultMaxDimension},
		Scale:          []float64{1, 1, 1},
	}
}

// GraphExplorer shapes graph and connectivity visualisation requests.
// Its calls carry no response timeout, so the client's default applies.
type GraphExplorer struct {
	service *Service
}

// NewGraphExplorer creates a graph explorer bound to client.
func NewGraphExplorer(client Requester, opts ...Option) *GraphExplorer {
	return &GraphExplorer{
		service: NewService(newPipeline(client, opts), "graph"),
	}
}

// String implements fmt.Stringer.
func (*GraphExplorer) String() string {
	return "Graphs"
}

// GetPipeline returns the internal pipeline for composition.
// Implements ServiceProvider interface.
func (g *GraphExplorer) GetPipeline() pipz.Chainable[*Call] {
	return g.service.GetPipeline()
}

// LoadPositionsFromFile reads node positions from in.Path, scales them and
// sends them to the renderer. Nothing is sent if the file cannot be read or
// parsed. The renderer's reply is discarded.
func (g *GraphExplorer) LoadPositionsFromFile(ctx context.Context, in PositionsInput) error {
	positions, err := ReadPositionsFile(in.Path)
	if err != nil {
		return err
	}
	scaled, err := positions.Scaled(in.Scale, in.ScaleMode)
	if err != nil {
		return err
	}

	capitan.Info(ctx, PositionsLoaded,
		ExplorerKey.Field("graph"),
		PathKey.Field(in.Path),
		NodeCountKey.Field(positions.Len()),
	)

	return g.SendPositions(ctx, scaled, in.Radius)
}

// SendPositions sends already parsed positions to the renderer as is.
func (g *GraphExplorer) SendPositions(ctx context.Context, p Positions, radius float64) error {
	params := encode(MethodPositions, positionsParams{
		X:      p.X,
		Y:      p.Y,
		Z:      p.Z,
		Radius: radius,
	})
	_, err := g.service.Execute(ctx, MethodPositions, params, 0)
	return err
}

// CreateRandomConnectivity asks the renderer to connect nodes at random.
func (g *GraphExplorer) CreateRandomConnectivity(ctx context.Context, in RandomConnectivityInput) (any, error) {
	params := encode(MethodRandomConnectivity, randomConnectivityParams{
		MinLength: in.MinDistance,
		MaxLength: in.MaxDistance,
		Density:   in.Density,
	})
	return g.service.Execute(ctx, MethodRandomConnectivity, params, 0)
}

// LoadConnectivityFromFile asks the renderer to build connections from a
// matrix stored in in.Path. in.Scale is ignored.
func (g *GraphExplorer) LoadConnectivityFromFile(ctx context.Context, in ConnectivityInput) (any, error) {
	params := encode(MethodConnectivity, connectivityParams{
		Filename:     in.Path,
		MatrixID:     in.MatrixID,
		MinDimension: in.DimensionRange[0],
		MaxDimension: in.DimensionRange[1],
	})
	return g.service.Execute(ctx, MethodConnectivity, params, 0)
}
