// Package metrics registers the catalog's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every llmdb collector. It is separate from the default registry so embedding
// programs decide whether to expose it.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

const namespace = "llmdb"

var (
	// BuildsTotal counts catalog builds by result (ok, error, empty).
	BuildsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "builds_total",
			Help:      "Total catalog builds by result",
		},
		[]string{"result"},
	)

	// RecordsDropped counts records removed during a build by kind (provider, model, orphan,
	// alias).
	RecordsDropped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "records_dropped_total",
			Help:      "Records dropped during catalog builds",
		},
		[]string{"kind"},
	)

	ModelsFiltered = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "models_filtered_total",
			Help:      "Models excluded by allow/deny filters",
		},
	)

	Models = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "models",
			Help:      "Models in the published snapshot",
		},
	)

	SnapshotEpoch = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "snapshot_epoch",
			Help:      "Epoch of the published snapshot",
		},
	)

	// Resolutions counts spec resolutions by result: ok or an error kind.
	Resolutions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "spec",
			Name:      "resolutions_total",
			Help:      "Spec resolutions by result",
		},
		[]string{"result"},
	)
)
