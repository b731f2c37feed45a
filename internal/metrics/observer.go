package metrics

import (
	"time"

	"hg-go/internal/hg"
)

// observer implements hg.Observer using the Prometheus metrics declared in
// this package.
type observer struct{}

// NewObserver creates an observer that records service events into the
// Prometheus metrics declared in metrics.go.
func NewObserver() hg.Observer {
	return &observer{}
}

func (o *observer) IndexUpdated(index string, result *hg.IndexResult) {
	IndexUpdatesTotal.WithLabelValues(index).Inc()
	IndexChangesTotal.WithLabelValues(index, "added").Add(float64(result.Diff.Added))
	IndexChangesTotal.WithLabelValues(index, "changed").Add(float64(result.Diff.Changed))
	IndexChangesTotal.WithLabelValues(index, "removed").Add(float64(result.Diff.Removed))
	IndexChecksumsTotal.WithLabelValues(index, "ok").Add(float64(result.Checksums.Computed))
	IndexChecksumsTotal.WithLabelValues(index, "failed").Add(float64(result.Checksums.Failed))
	IndexEntries.WithLabelValues(index).Set(float64(result.Total))
	IndexUpdateDuration.WithLabelValues(index).Observe(result.Duration.Seconds())
	LastSuccessTimestamp.WithLabelValues("index").SetToCurrentTime()
}

func (o *observer) DatabaseMerged(result *hg.MergeResult) {
	DatabaseMergesTotal.Inc()
	DatabaseChangesTotal.WithLabelValues("inserted").Add(float64(result.Inserted))
	DatabaseChangesTotal.WithLabelValues("merged").Add(float64(result.Merged))
	DatabaseChangesTotal.WithLabelValues("deleted").Add(float64(result.Deleted))
	DatabaseMedia.Set(float64(result.Total))
	LastSuccessTimestamp.WithLabelValues("database").SetToCurrentTime()
}

func (o *observer) CatalogBuilt(entries int, elapsed time.Duration) {
	CatalogBuildsTotal.Inc()
	CatalogMedia.Set(float64(entries))
	CatalogBuildDuration.Observe(elapsed.Seconds())
	LastSuccessTimestamp.WithLabelValues("catalog").SetToCurrentTime()
}

func (o *observer) PreviewsGenerated(count int) {
	PreviewsGeneratedTotal.Add(float64(count))
	LastSuccessTimestamp.WithLabelValues("preview").SetToCurrentTime()
}
