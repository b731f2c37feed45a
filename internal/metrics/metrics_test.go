package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"hg-go/internal/hg"
)

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"IndexUpdatesTotal", IndexUpdatesTotal},
		{"IndexChangesTotal", IndexChangesTotal},
		{"IndexChecksumsTotal", IndexChecksumsTotal},
		{"IndexEntries", IndexEntries},
		{"IndexUpdateDuration", IndexUpdateDuration},
		{"DatabaseMergesTotal", DatabaseMergesTotal},
		{"DatabaseChangesTotal", DatabaseChangesTotal},
		{"DatabaseMedia", DatabaseMedia},
		{"CatalogBuildsTotal", CatalogBuildsTotal},
		{"CatalogMedia", CatalogMedia},
		{"CatalogBuildDuration", CatalogBuildDuration},
		{"PreviewsGeneratedTotal", PreviewsGeneratedTotal},
		{"LastSuccessTimestamp", LastSuccessTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s metric is nil", tt.name)
			}
		})
	}
}

func value(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	ch := make(chan prometheus.Metric, 1)
	c.Collect(ch)
	close(ch)
	m := <-ch
	if m == nil {
		t.Fatal("collector produced no metric")
	}
	var pb dto.Metric
	if err := m.Write(&pb); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	switch {
	case pb.Counter != nil:
		return pb.Counter.GetValue()
	case pb.Gauge != nil:
		return pb.Gauge.GetValue()
	case pb.Histogram != nil:
		return float64(pb.Histogram.GetSampleCount())
	}
	t.Fatal("unsupported metric type")
	return 0
}

func TestObserver(t *testing.T) {
	o := NewObserver()

	updates := value(t, IndexUpdatesTotal.WithLabelValues("observer-test"))
	o.IndexUpdated("observer-test", &hg.IndexResult{
		Diff:      hg.DiffResult{Added: 3, Changed: 2, Removed: 1},
		Checksums: hg.ChecksumResult{Computed: 4, Failed: 1},
		Total:     42,
		Duration:  2 * time.Second,
	})

	if got := value(t, IndexUpdatesTotal.WithLabelValues("observer-test")); got != updates+1 {
		t.Errorf("IndexUpdatesTotal = %v, want %v", got, updates+1)
	}
	if got := value(t, IndexChangesTotal.WithLabelValues("observer-test", "added")); got != 3 {
		t.Errorf("IndexChangesTotal{added} = %v, want 3", got)
	}
	if got := value(t, IndexChecksumsTotal.WithLabelValues("observer-test", "failed")); got != 1 {
		t.Errorf("IndexChecksumsTotal{failed} = %v, want 1", got)
	}
	if got := value(t, IndexEntries.WithLabelValues("observer-test")); got != 42 {
		t.Errorf("IndexEntries = %v, want 42", got)
	}

	o.DatabaseMerged(&hg.MergeResult{Inserted: 5, Merged: 1, Deleted: 2, Total: 17})
	if got := value(t, DatabaseMedia); got != 17 {
		t.Errorf("DatabaseMedia = %v, want 17", got)
	}

	builds := value(t, CatalogBuildsTotal)
	o.CatalogBuilt(9, time.Second)
	if got := value(t, CatalogBuildsTotal); got != builds+1 {
		t.Errorf("CatalogBuildsTotal = %v, want %v", got, builds+1)
	}
	if got := value(t, CatalogMedia); got != 9 {
		t.Errorf("CatalogMedia = %v, want 9", got)
	}

	previews := value(t, PreviewsGeneratedTotal)
	o.PreviewsGenerated(6)
	if got := value(t, PreviewsGeneratedTotal); got != previews+6 {
		t.Errorf("PreviewsGeneratedTotal = %v, want %v", got, previews+6)
	}
	if got := value(t, LastSuccessTimestamp.WithLabelValues("preview")); got == 0 {
		t.Error("LastSuccessTimestamp{preview} not set")
	}
}

func TestWriteTextfile(t *testing.T) {
	NewObserver().CatalogBuilt(1, time.Millisecond)

	path := filepath.Join(t.TempDir(), "textfile", "hg.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, want := range []string{"hg_catalog_builds_total", "# TYPE hg_catalog_build_duration_seconds histogram"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q", want)
		}
	}
}
