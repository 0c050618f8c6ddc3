package brayns

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Service dispatches calls for one explorer through a pipz pipeline.
// It stamps each call with a request ID and emits request hooks.
type Service struct {
	pipeline pipz.Chainable[*Call]
	explorer string
}

// NewService creates a new Service with the given pipeline and explorer name.
func NewService(pipeline pipz.Chainable[*Call], explorer string) *Service {
	return &Service{
		pipeline: pipeline,
		explorer: explorer,
	}
}

// NewTerminal creates the terminal processor that sends the call to the client.
// This is the common terminal processor used by both explorers.
func NewTerminal(client Requester) pipz.Chainable[*Call] {
	return pipz.Apply("render-request", func(ctx context.Context, call *Call) (*Call, error) {
		result, err := client.Request(ctx, call.Method, call.Params, call.Timeout)
		if err != nil {
			return call, err
		}
		call.Result = result
		return call, nil
	})
}

// newPipeline wraps the terminal processor with the given options, in order.
func newPipeline(client Requester, opts []Option) pipz.Chainable[*Call] {
	pipeline := NewTerminal(client)
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// GetPipeline returns the internal pipeline for composition.
// This is used by WithFallback to combine pipelines.
func (s *Service) GetPipeline() pipz.Chainable[*Call] {
	return s.pipeline
}

// Execute sends method with params through the pipeline and returns the
// client's result exactly as the client produced it.
func (s *Service) Execute(ctx context.Context, method string, params Params, timeout time.Duration) (any, error) {
	requestID := uuid.New().String()

	call := &Call{
		Method:    method,
		Params:    params,
		Timeout:   timeout,
		RequestID: requestID,
		Explorer:  s.explorer,
	}

	capitan.Info(ctx, RequestStarted,
		RequestIDKey.Field(requestID),
		ExplorerKey.Field(s.explorer),
		MethodKey.Field(method),
		TimeoutMsKey.Field(int(timeout.Milliseconds())),
	)

	start := time.Now()
	processed, err := s.pipeline.Process(ctx, call)
	duration := time.Since(start)
	if err != nil {
		err = pipelineCause(err)
		capitan.Error(ctx, RequestFailed,
			RequestIDKey.Field(requestID),
			ExplorerKey.Field(s.explorer),
			MethodKey.Field(method),
			DurationMsKey.Field(int(duration.Milliseconds())),
			ErrorKey.Field(err.Error()),
		)
		return nil, err
	}

	capitan.Info(ctx, RequestCompleted,
		RequestIDKey.Field(requestID),
		ExplorerKey.Field(s.explorer),
		MethodKey.Field(method),
		DurationMsKey.Field(int(duration.Milliseconds())),
	)

	return processed.Result, nil
}

// pipelineCause strips pipz error envelopes so callers see the error the
// client (or a reliability stage) actually produced.
func pipelineCause(err error) error {
	for {
		var perr *pipz.Error[*Call]
		if !errors.As(err, &perr) || perr.Err == nil {
			return err
		}
		err = perr.Err
	}
}
