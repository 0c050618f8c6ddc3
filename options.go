package brayns

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/pipz"
)

// Option wraps the dispatch pipeline of an explorer. Options apply in the
// order given, so the last one is outermost.
type Option func(pipz.Chainable[*Call]) pipz.Chainable[*Call]

// WithRetry resends a failed request, up to maxAttempts sends in total.
// Every attempt carries the full response timeout of its explorer, so a
// circuit explorer call may wait maxAttempts x DefaultResponseTimeout for an
// unresponsive renderer. Combine with WithTimeout to bound the total.
func WithRetry(maxAttempts int) Option {
	return func(pipeline pipz.Chainable[*Call]) pipz.Chainable[*Call] {
		return pipz.NewRetry("retry", pipeline, maxAttempts)
	}
}

// WithBackoff is WithRetry with a pause between attempts that starts at
// baseDelay and doubles after each failure.
func WithBackoff(maxAttempts int, baseDelay time.Duration) Option {
	return func(pipeline pipz.Chainable[*Call]) pipz.Chainable[*Call] {
		return pipz.NewBackoff("backoff", pipeline, maxAttempts, baseDelay)
	}
}

// WithTimeout bounds the whole pipeline, retries included.
// This is independent of the response timeout handed to the client.
func WithTimeout(duration time.Duration) Option {
	return func(pipeline pipz.Chainable[*Call]) pipz.Chainable[*Call] {
		return pipz.NewTimeout("timeout", pipeline, duration)
	}
}

// WithCircuitBreaker stops sending to a renderer after failures consecutive
// failed requests. Calls fail immediately until recovery has passed, then a
// single request probes whether the renderer is back.
func WithCircuitBreaker(failures int, recovery time.Duration) Option {
	return func(pipeline pipz.Chainable[*Call]) pipz.Chainable[*Call] {
		return pipz.NewCircuitBreaker("circuit-breaker", pipeline, failures, recovery)
	}
}

// WithRateLimit caps requests to rps per second with bursts of up to burst.
// Waiting callers block until a token is free or their context is done.
func WithRateLimit(rps float64, burst int) Option {
	return func(pipeline pipz.Chainable[*Call]) pipz.Chainable[*Call] {
		rateLimiter := pipz.NewRateLimiter[*Call]("rate-limit", rps, burst)
		return pipz.NewSequence("rate-limited", rateLimiter, pipeline)
	}
}

// WithErrorHandler passes every failed call to handler, with the Call that
// failed as InputData. The renderer's error still reaches the caller.
func WithErrorHandler(handler pipz.Chainable[*pipz.Error[*Call]]) Option {
	return func(pipeline pipz.Chainable[*Call]) pipz.Chainable[*Call] {
		return pipz.NewHandle("error-handler", pipeline, handler)
	}
}

// WithValidation checks every call against the wire table before it is sent.
// Calls with missing keys or malformed tuples fail with ErrInvalidParams and
// never reach the client.
func WithValidation() Option {
	return func(pipeline pipz.Chainable[*Call]) pipz.Chainable[*Call] {
		validator := pipz.Apply("validate", func(_ context.Context, call *Call) (*Call, error) {
			if err := Validate(call.Method, call.Params); err != nil {
				return call, err
			}
			return call, nil
		})
		return pipz.NewSequence("validated", validator, pipeline)
	}
}

// ServiceProvider exposes an explorer's pipeline so it can back another one.
type ServiceProvider interface {
	GetPipeline() pipz.Chainable[*Call]
}

// WithFallback sends a call to fallback's renderer when the primary fails,
// e.g. a second Brayns instance holding the same circuit.
func WithFallback(fallback ServiceProvider) Option {
	return func(pipeline pipz.Chainable[*Call]) pipz.Chainable[*Call] {
		return pipz.NewFallback("with-fallback", pipeline, fallback.GetPipeline())
	}
}

// WithDebug prints each outgoing method with its wire params and the
// renderer's reply or error to stdout.
func WithDebug() Option {
	return func(pipeline pipz.Chainable[*Call]) pipz.Chainable[*Call] {
		return pipz.Apply("debug", func(ctx context.Context, call *Call) (*Call, error) {
			fmt.Println("\n=== DEBUG: Request ===")
			fmt.Printf("%s %v\n", call.Method, call.Params)
			fmt.Println("======================")

			processed, err := pipeline.Process(ctx, call)
			if err != nil {
				fmt.Printf("\n=== DEBUG: Error ===\n%v\n====================\n\n", err)
				return processed, err
			}

			fmt.Println("\n=== DEBUG: Result ===")
			fmt.Printf("%v\n", processed.Result)
			fmt.Println("=====================")

			return processed, nil
		})
	}
}
