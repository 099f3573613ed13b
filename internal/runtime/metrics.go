package runtime

import (
	"reflect"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics grounded on internal/pipeline/worker/metrics.go's promauto
// CounterVec/HistogramVec shape, relabeled from ffmpeg-session golden
// signals to dispatcher golden signals: how often each action fires, how
// long its reducer takes, and how many effects are in flight.
var (
	actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "core_runtime_actions_total",
			Help: "Total actions dispatched, by action type.",
		},
		[]string{"action"},
	)

	reducerLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "core_runtime_reducer_duration_seconds",
			Help:    "Time spent inside a single reduce() call, by action type.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"action"},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "core_runtime_effect_queue_depth",
			Help: "Future effects submitted to env.Scheduler but not yet resolved.",
		},
	)

	broadcastDropTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "core_runtime_broadcast_drop_total",
			Help: "NewState broadcasts dropped because a subscriber's channel was full.",
		},
	)
)

// actionName labels metrics and logs by the action's dynamic type rather
// than a hand-maintained name field (see Action's doc comment in actions.go).
func actionName(a Action) string {
	if a == nil {
		return "nil"
	}
	t := reflect.TypeOf(a)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
