package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Index metrics
var (
	IndexUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hg_index_updates_total",
			Help: "Total number of index updates",
		},
		[]string{"index"},
	)

	IndexChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hg_index_changes_total",
			Help: "Total number of index entries added, changed or removed",
		},
		[]string{"index", "kind"}, // "added", "changed", "removed"
	)

	IndexChecksumsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hg_index_checksums_total",
			Help: "Total number of file digests computed",
		},
		[]string{"index", "status"}, // "ok", "failed"
	)

	IndexEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hg_index_entries",
			Help: "Number of entries in the latest index snapshot",
		},
		[]string{"index"},
	)

	IndexUpdateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hg_index_update_duration_seconds",
			Help:    "Duration of index updates in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"index"},
	)
)

// Database metrics
var (
	DatabaseMergesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hg_database_merges_total",
			Help: "Total number of journal merges into the database",
		},
	)

	DatabaseChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hg_database_changes_total",
			Help: "Total number of database records inserted, merged or deleted",
		},
		[]string{"kind"}, // "inserted", "merged", "deleted"
	)

	DatabaseMedia = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hg_database_media",
			Help: "Number of media records in the database after the last merge",
		},
	)
)

// Catalog metrics
var (
	CatalogBuildsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hg_catalog_builds_total",
			Help: "Total number of catalog builds",
		},
	)

	CatalogMedia = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hg_catalog_media",
			Help: "Number of media records in the last built catalog",
		},
	)

	CatalogBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hg_catalog_build_duration_seconds",
			Help:    "Duration of catalog builds in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		},
	)

	PreviewsGeneratedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hg_previews_generated_total",
			Help: "Total number of preview images written",
		},
	)
)

// LastSuccessTimestamp is set to the current time whenever an operation
// completes.
var LastSuccessTimestamp = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "hg_last_success_timestamp_seconds",
		Help: "Unix timestamp of the last successful operation",
	},
	[]string{"operation"}, // "index", "database", "catalog", "preview"
)
