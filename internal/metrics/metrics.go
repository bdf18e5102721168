// Package metrics holds the Prometheus collectors shared by bricks, chains
// and the llama.cpp adapter. Collectors live on the default registry and are
// exposed by the serve command at /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "llamabricks"

var (
	brickExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "brick_executions_total",
		Help:      "Brick executions by brick kind and result status.",
	}, []string{"brick", "status"})

	brickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "brick_duration_seconds",
		Help:      "Wall time spent inside a brick execution.",
		Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15, 30, 60},
	}, []string{"brick"})

	chainRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chain_runs_total",
		Help:      "Chain executions by chain kind and report status.",
	}, []string{"kind", "status"})

	engineInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "engine_invocations_total",
		Help:      "Calls into the external engine by path (exec, http) and outcome.",
	}, []string{"path", "outcome"})

	serverTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "server_state_transitions_total",
		Help:      "llama-server lifecycle transitions by target state.",
	}, []string{"state"})
)

// ObserveBrick records one brick execution.
func ObserveBrick(brick, status string, elapsed time.Duration) {
	brickExecutions.WithLabelValues(brick, status).Inc()
	brickDuration.WithLabelValues(brick).Observe(elapsed.Seconds())
}

// ObserveChain records one chain execution.
func ObserveChain(kind, status string) {
	chainRuns.WithLabelValues(kind, status).Inc()
}

// ObserveEngine records one external engine call. path is "exec" or "http".
func ObserveEngine(path, outcome string) {
	engineInvocations.WithLabelValues(path, outcome).Inc()
}

// ObserveServerState records a server lifecycle transition.
func ObserveServerState(state string) {
	serverTransitions.WithLabelValues(state).Inc()
}

// BrickExecutions exposes the brick counter for a label pair. Used by tests.
func BrickExecutions(brick, status string) prometheus.Counter {
	return brickExecutions.WithLabelValues(brick, status)
}

// ChainRuns exposes the chain counter for a label pair. Used by tests.
func ChainRuns(kind, status string) prometheus.Counter {
	return chainRuns.WithLabelValues(kind, status)
}

// Handler serves the default registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.Handler()
}
