package selection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for selection operations.
var (
	selectionSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_selection_size",
		Help: "Current number of selected item identifiers",
	})

	bulkSelectTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_bulk_select_total",
		Help: "Total bulk selection operations by outcome",
	}, []string{"outcome"}) // "applied", "failed", "superseded"

	bulkPagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_bulk_pages_fetched_total",
		Help: "Total pages fetched by bulk selection operations",
	})

	bulkSelectDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_bulk_select_duration_seconds",
		Help:    "Bulk selection duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})
)
