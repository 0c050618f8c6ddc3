package brayns

import "github.com/zoobzio/capitan"

// Signals for hook events.
const (
	RequestStarted         = capitan.Signal("brayns.request.started")
	RequestCompleted       = capitan.Signal("brayns.request.completed")
	RequestFailed          = capitan.Signal("brayns.request.failed")
	TransferFunctionCommit = capitan.Signal("brayns.transfer.committed")
	TransferFunctionFailed = capitan.Signal("brayns.transfer.failed")
	PositionsLoaded        = capitan.Signal("brayns.positions.loaded")
	ClientConnected        = capitan.Signal("brayns.rockets.connected")
	ClientClosed           = capitan.Signal("brayns.rockets.closed")
)

// Keys for hook event fields.
var (
	// Request identification.
	RequestIDKey = capitan.NewStringKey("brayns.request.id")
	ExplorerKey  = capitan.NewStringKey("brayns.explorer")
	MethodKey    = capitan.NewStringKey("brayns.method")
	TimeoutMsKey = capitan.NewIntKey("brayns.timeout.ms")

	// Outcome.
	DurationMsKey = capitan.NewIntKey("brayns.duration.ms")
	ErrorKey      = capitan.NewStringKey("brayns.error")

	// Payload summaries.
	NodeCountKey   = capitan.NewIntKey("brayns.positions.nodes")
	PaletteSizeKey = capitan.NewIntKey("brayns.transfer.palette.size")
	PathKey        = capitan.NewStringKey("brayns.path")

	// Connection.
	URLKey = capitan.NewStringKey("brayns.url")
)
