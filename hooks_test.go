package brayns

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// waitFor blocks until wg is done or fails the test after a second.
func waitFor(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for hook")
	}
}

// TestRequestStartedHook verifies that request.started is emitted with all fields.
func TestRequestStartedHook(t *testing.T) {
	var wg sync.WaitGroup
	var once sync.Once
	var requestIDReceived, methodReceived string
	var timeoutReceived int

	wg.Add(1)
	listener := capitan.Hook(RequestStarted, func(_ context.Context, e *capitan.Event) {
		if explorer, _ := ExplorerKey.From(e); explorer != "hooks-started" {
			return
		}
		once.Do(func() {
			defer wg.Done()
			requestIDReceived, _ = RequestIDKey.From(e)
			methodReceived, _ = MethodKey.From(e)
			timeoutReceived, _ = TimeoutMsKey.From(e)
		})
	})
	defer listener.Close()

	service := NewService(NewTerminal(NewMockClient()), "hooks-started")
	if _, err := service.Execute(context.Background(), MethodSaveModelToCache, Params{}, 2*time.Second); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	waitFor(t, &wg)

	if requestIDReceived == "" {
		t.Error("Request ID was not set in hook")
	}
	if methodReceived != MethodSaveModelToCache {
		t.Errorf("Expected method %q, got %q", MethodSaveModelToCache, methodReceived)
	}
	if timeoutReceived != 2000 {
		t.Errorf("Expected timeout 2000ms, got %d", timeoutReceived)
	}
}

// TestRequestCompletedHook verifies that request.completed carries the request ID.
func TestRequestCompletedHook(t *testing.T) {
	var wg sync.WaitGroup
	var once sync.Once
	var startedID, completedID string
	var mu sync.Mutex

	wg.Add(2)
	started := capitan.Hook(RequestStarted, func(_ context.Context, e *capitan.Event) {
		if explorer, _ := ExplorerKey.From(e); explorer != "hooks-completed" {
			return
		}
		mu.Lock()
		startedID, _ = RequestIDKey.From(e)
		mu.Unlock()
		wg.Done()
	})
	defer started.Close()

	completed := capitan.Hook(RequestCompleted, func(_ context.Context, e *capitan.Event) {
		if explorer, _ := ExplorerKey.From(e); explorer != "hooks-completed" {
			return
		}
		once.Do(func() {
			defer wg.Done()
			mu.Lock()
			completedID, _ = RequestIDKey.From(e)
			mu.Unlock()
		})
	})
	defer completed.Close()

	service := NewService(NewTerminal(NewMockClient()), "hooks-completed")
	if _, err := service.Execute(context.Background(), MethodPositions, Params{}, 0); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	waitFor(t, &wg)

	mu.Lock()
	defer mu.Unlock()
	if completedID == "" || completedID != startedID {
		t.Errorf("Expected matching request IDs, got started=%q completed=%q", startedID, completedID)
	}
}

// TestRequestFailedHook verifies that request.failed carries the client error.
func TestRequestFailedHook(t *testing.T) {
	var wg sync.WaitGroup
	var once sync.Once
	var errorReceived string

	wg.Add(1)
	listener := capitan.Hook(RequestFailed, func(_ context.Context, e *capitan.Event) {
		if explorer, _ := ExplorerKey.From(e); explorer != "hooks-failed" {
			return
		}
		once.Do(func() {
			defer wg.Done()
			errorReceived, _ = ErrorKey.From(e)
		})
	})
	defer listener.Close()

	client := NewMockClient()
	client.SetAvailable(false)
	service := NewService(NewTerminal(client), "hooks-failed")
	if _, err := service.Execute(context.Background(), MethodPositions, Params{}, 0); err == nil {
		t.Fatal("Expected error")
	}
	waitFor(t, &wg)

	if errorReceived != "renderer mock is unavailable" {
		t.Errorf("Expected unwrapped client error, got %q", errorReceived)
	}
}

// TestTransferFunctionHooks verifies commit outcomes are reported.
func TestTransferFunctionHooks(t *testing.T) {
	var wg sync.WaitGroup
	var once sync.Once
	var paletteSize int

	wg.Add(1)
	listener := capitan.Hook(TransferFunctionCommit, func(_ context.Context, e *capitan.Event) {
		size, _ := PaletteSizeKey.From(e)
		if size != 5 {
			return
		}
		once.Do(func() {
			defer wg.Done()
			paletteSize = size
		})
	})
	defer listener.Close()

	explorer := NewCircuitExplorer(NewMockClient())
	palette := [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 0}, {0, 1, 1}}
	if err := explorer.SetTransferFunction(context.Background(), DefaultTransferFunctionInput(palette)); err != nil {
		t.Fatalf("SetTransferFunction failed: %v", err)
	}
	waitFor(t, &wg)

	if paletteSize != 5 {
		t.Errorf("Expected palette size 5, got %d", paletteSize)
	}
}

// TestPositionsLoadedHook verifies the node count read from the file.
func TestPositionsLoadedHook(t *testing.T) {
	var wg sync.WaitGroup
	var once sync.Once
	var nodes int

	path := writePositions(t, "1 2 3\n4 5 6\n7 8 9\n")

	wg.Add(1)
	listener := capitan.Hook(PositionsLoaded, func(_ context.Context, e *capitan.Event) {
		if p, _ := PathKey.From(e); p != path {
			return
		}
		once.Do(func() {
			defer wg.Done()
			nodes, _ = NodeCountKey.From(e)
		})
	})
	defer listener.Close()

	explorer := NewGraphExplorer(NewMockClient())
	if err := explorer.LoadPositionsFromFile(context.Background(), DefaultPositionsInput(path)); err != nil {
		t.Fatalf("LoadPositionsFromFile failed: %v", err)
	}
	waitFor(t, &wg)

	if nodes != 3 {
		t.Errorf("Expected 3 nodes, got %d", nodes)
	}
}

// TestObserveRequestLifecycle verifies an observer sees both request signals.
func TestObserveRequestLifecycle(t *testing.T) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[capitan.Signal]int)

	wg.Add(2)
	listener := capitan.Observe(func(_ context.Context, e *capitan.Event) {
		if explorer, _ := ExplorerKey.From(e); explorer != "hooks-ordering" {
			return
		}
		sig := e.Signal()
		if sig != RequestStarted && sig != RequestCompleted {
			return
		}
		mu.Lock()
		seen[sig]++
		mu.Unlock()
		wg.Done()
	})
	defer listener.Close()

	service := NewService(pipz.Apply("noop", func(_ context.Context, call *Call) (*Call, error) {
		return call, nil
	}), "hooks-ordering")
	if _, err := service.Execute(context.Background(), "noop", Params{}, 0); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	waitFor(t, &wg)

	mu.Lock()
	defer mu.Unlock()
	if seen[RequestStarted] != 1 || seen[RequestCompleted] != 1 {
		t.Errorf("Expected one started and one completed, got %v", seen)
	}
}
