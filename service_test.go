package brayns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/pipz"
)

func TestNewService(t *testing.T) {
	t.Run("simple", func(t *testing.T) {
		pipeline := pipz.Apply("test", func(_ context.Context, call *Call) (*Call, error) {
			return call, nil
		})

		service := NewService(pipeline, "test")
		if service == nil {
			t.Fatal("Expected service to be created")
		}
		if service.GetPipeline() == nil {
			t.Error("Service pipeline should be accessible")
		}
	})

	t.Run("chaining", func(t *testing.T) {
		stage1 := pipz.Apply("stage1", func(_ context.Context, call *Call) (*Call, error) {
			call.Params["stamped"] = true
			return call, nil
		})
		stage2 := pipz.Apply("stage2", func(_ context.Context, call *Call) (*Call, error) {
			call.Result = call.Params["stamped"]
			return call, nil
		})
		service := NewService(pipz.NewSequence("combined", stage1, stage2), "test")

		result, err := service.Execute(context.Background(), "noop", Params{}, 0)
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if result != true {
			t.Errorf("Expected stages to run in order, got %v", result)
		}
	})
}

func TestNewTerminal(t *testing.T) {
	client := NewMockClientWithResult(42)
	terminal := NewTerminal(client)

	call := &Call{Method: "m", Params: Params{"a": 1}, Timeout: 5 * time.Second}
	processed, err := terminal.Process(context.Background(), call)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if processed.Result != 42 {
		t.Errorf("Expected result 42, got %v", processed.Result)
	}

	seen, _ := client.LastCall()
	if seen.Method != "m" || seen.Timeout != 5*time.Second || seen.Params["a"] != 1 {
		t.Errorf("Terminal forwarded wrong call: %+v", seen)
	}
}

func TestService_Execute(t *testing.T) {
	t.Run("stamps_metadata", func(t *testing.T) {
		var seen *Call
		pipeline := pipz.Apply("capture", func(_ context.Context, call *Call) (*Call, error) {
			seen = call
			return call, nil
		})
		service := NewService(pipeline, "graph")

		if _, err := service.Execute(context.Background(), MethodPositions, Params{}, time.Second); err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if seen.RequestID == "" {
			t.Error("Expected request ID")
		}
		if seen.Explorer != "graph" {
			t.Errorf("Expected explorer 'graph', got '%s'", seen.Explorer)
		}
		if seen.Timeout != time.Second {
			t.Errorf("Expected timeout 1s, got %v", seen.Timeout)
		}
	})

	t.Run("unique_request_ids", func(t *testing.T) {
		ids := make(map[string]bool)
		pipeline := pipz.Apply("capture", func(_ context.Context, call *Call) (*Call, error) {
			ids[call.RequestID] = true
			return call, nil
		})
		service := NewService(pipeline, "test")

		for i := 0; i < 10; i++ {
			if _, err := service.Execute(context.Background(), "m", Params{}, 0); err != nil {
				t.Fatalf("Execute failed: %v", err)
			}
		}
		if len(ids) != 10 {
			t.Errorf("Expected 10 distinct request IDs, got %d", len(ids))
		}
	})

	t.Run("error_cause_preserved", func(t *testing.T) {
		rejected := errors.New("rejected")
		client := NewMockClientWithCallback(func(_ string, _ Params) (any, error) {
			return nil, rejected
		})
		service := NewService(NewTerminal(client), "test")

		result, err := service.Execute(context.Background(), "m", Params{}, 0)
		if !errors.Is(err, rejected) {
			t.Errorf("Expected client error, got %v", err)
		}
		if result != nil {
			t.Errorf("Expected nil result on error, got %v", result)
		}
	})

	t.Run("nil_result_pass_through", func(t *testing.T) {
		client := NewMockClientWithResult(nil)
		service := NewService(NewTerminal(client), "test")

		result, err := service.Execute(context.Background(), "m", Params{}, 0)
		if err != nil {
			t.Fatalf("Execute failed: %v", err)
		}
		if result != nil {
			t.Errorf("Expected nil result, got %v", result)
		}
	})
}
