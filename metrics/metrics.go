// Package metrics exports brayns hook events as Prometheus metrics.
//
// Usage:
//
//	m, err := metrics.New(prometheus.DefaultRegisterer)
//	if err != nil {
//		return err
//	}
//	defer m.Close()
package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zoobzio/brayns"
	"github.com/zoobzio/capitan"
)

const namespace = "brayns"

// Outcome label values.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCommitted = "committed"
)

// Metrics owns the collectors and the hook listeners feeding them.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	commits     *prometheus.CounterVec
	nodes       prometheus.Gauge
	connections prometheus.Gauge

	detach []func()
}

// New registers the collectors with reg and starts listening for hooks.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Renderer requests by explorer, method and outcome.",
		}, []string{"explorer", "method", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time from dispatch to renderer reply.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"explorer", "method"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_function_commits_total",
			Help:      "Transfer function commits by outcome.",
		}, []string{"outcome"}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "positions_loaded_nodes",
			Help:      "Node count of the most recently loaded positions file.",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rockets_connections",
			Help:      "Open renderer connections.",
		}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.duration, m.commits, m.nodes, m.connections} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}

	m.hook(brayns.RequestCompleted, m.onRequest(OutcomeCompleted))
	m.hook(brayns.RequestFailed, m.onRequest(OutcomeFailed))
	m.hook(brayns.TransferFunctionCommit, m.onCommit(OutcomeCommitted))
	m.hook(brayns.TransferFunctionFailed, m.onCommit(OutcomeFailed))
	m.hook(brayns.PositionsLoaded, m.onPositions)
	m.hook(brayns.ClientConnected, m.onConnection(1))
	m.hook(brayns.ClientClosed, m.onConnection(-1))
	return m, nil
}

// Close detaches the hook listeners. Registered collectors keep their values.
func (m *Metrics) Close() {
	for _, detach := range m.detach {
		detach()
	}
	m.detach = nil
}

func (m *Metrics) hook(signal capitan.Signal, fn func(context.Context, *capitan.Event)) {
	listener := capitan.Hook(signal, fn)
	m.detach = append(m.detach, func() { listener.Close() })
}

func (m *Metrics) onRequest(outcome string) func(context.Context, *capitan.Event) {
	return func(_ context.Context, e *capitan.Event) {
		explorer, _ := brayns.ExplorerKey.From(e)
		method, _ := brayns.MethodKey.From(e)
		m.requests.WithLabelValues(explorer, method, outcome).Inc()
		if ms, ok := brayns.DurationMsKey.From(e); ok {
			m.duration.WithLabelValues(explorer, method).Observe(float64(ms) / 1000)
		}
	}
}

func (m *Metrics) onCommit(outcome string) func(context.Context, *capitan.Event) {
	return func(_ context.Context, _ *capitan.Event) {
		m.commits.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) onPositions(_ context.Context, e *capitan.Event) {
	if n, ok := brayns.NodeCountKey.From(e); ok {
		m.nodes.Set(float64(n))
	}
}

func (m *Metrics) onConnection(delta float64) func(context.Context, *capitan.Event) {
	return func(_ context.Context, _ *capitan.Event) {
		m.connections.Add(delta)
	}
}
