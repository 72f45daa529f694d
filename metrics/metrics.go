// Package metrics carries the prometheus collectors the engine exposes for
// task outcomes and async action durations. The teacher's server exposes
// metrics for its own gRPC handlers (server/server.go's grpc_prometheus
// wiring, not carried forward — this engine has no server, see DESIGN.md);
// here the same client-side dependency is repurposed to instrument the
// orchestrator and the Async Action Engine instead.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// ItemOutcomes counts item-level task outcomes by kind and outcome
// (created/updated/skipped/deleted/failed/backed_up), incremented from
// task.Report.add so every task operation is instrumented from one place.
var ItemOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sastre",
	Name:      "item_outcomes_total",
	Help:      "count of item-level task outcomes by kind and outcome",
}, []string{"kind", "outcome"})

// ActionDuration observes the wall-clock time of one Async Action Engine
// category run (submit through terminal poll), labeled by category and
// outcome, so a slow attach/activate category is visible independent of
// the per-chunk polling interval.
var ActionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "sastre",
	Name:      "action_duration_seconds",
	Help:      "duration of async controller action categories from submit to terminal status",
	Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
}, []string{"category", "outcome"})

// Registry is the collector registry cmd/ exposes via promhttp, kept
// separate from prometheus.DefaultRegisterer so tests can construct their
// own engine instances without colliding on global registration.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(ItemOutcomes, ActionDuration)
}
