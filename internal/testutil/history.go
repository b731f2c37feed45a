package testutil

import (
	"testing"

	"hg-go/internal/hg"
	"hg-go/internal/history"
)

// NewTestHistory creates an in-memory run history with migrations applied.
// It is closed when the test completes.
func NewTestHistory(t *testing.T, clock hg.Clock) *history.SQLiteHistory {
	t.Helper()

	h, err := history.NewSQLiteHistory(":memory:", clock)
	if err != nil {
		t.Fatalf("failed to open history: %v", err)
	}

	t.Cleanup(func() {
		h.Close()
	})

	return h
}
