package hg

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// HGService is the orchestration layer that coordinates indexing, catalog
// builds and database merges for the CLI.
type HGService struct {
	indexes   IndexStore
	databases DatabaseStore
	builder   CatalogBuilder
	previews  PreviewGenerator
	history   History
	hasher    Hasher
	merger    *Merger
	observer  Observer
	logger    Logger
	clock     Clock
}

// NewHGService creates a new HGService with the provided dependencies.
// previews and history may be nil when the corresponding commands are unused.
func NewHGService(indexes IndexStore, databases DatabaseStore, builder CatalogBuilder, previews PreviewGenerator, history History, hasher Hasher, observer Observer, logger Logger, clock Clock) *HGService {
	if observer == nil {
		observer = NopObserver{}
	}
	return &HGService{
		indexes:   indexes,
		databases: databases,
		builder:   builder,
		previews:  previews,
		history:   history,
		hasher:    hasher,
		merger:    NewMerger(indexes, databases, clock, logger),
		observer:  observer,
		logger:    logger,
		clock:     clock,
	}
}

// IndexOptions controls UpdateIndex.
type IndexOptions struct {
	// Checksum computes missing digests after the diff.
	Checksum bool
}

// IndexResult summarizes one index update.
type IndexResult struct {
	Index     string
	JournalID string
	Written   bool
	Diff      DiffResult
	Checksums ChecksumResult
	Total     int
	Duration  time.Duration
}

// UpdateIndex scans tree, diffs it against the stored snapshot of the index
// and persists the new snapshot with its journal. Nothing is written when the
// scan matches the stored snapshot. With opts.Checksum the missing digests
// are computed afterwards and the snapshot is persisted again if any were.
func (s *HGService) UpdateIndex(ctx context.Context, name string, tree FileTree, opts IndexOptions) (*IndexResult, error) {
	start := s.clock.Now()
	result := &IndexResult{Index: name, JournalID: JournalID(start)}

	prev, err := s.indexes.ReadIndex(name)
	if errors.Is(err, ErrNotFound) {
		s.logger.Info("index not found, creating", "index", name)
		prev = nil
	} else if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}

	scan, err := tree.Walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", tree.Base(), err)
	}

	next, journal, diff := DiffIndex(prev, scan, tree.Base(), start)
	result.Diff = *diff
	result.Total = len(next.Entries)
	s.logger.Info("index diffed",
		"index", name,
		"added", diff.Added,
		"changed", diff.Changed,
		"removed", diff.Removed,
		"unchanged", diff.Unchanged)

	if prev == nil || !journal.IsEmpty() {
		if err := s.persistIndex(name, result.JournalID, next, journal); err != nil {
			return nil, err
		}
		result.Written = true
	}

	if opts.Checksum {
		sums, err := AnnotateChecksums(ctx, next, journal, tree, s.hasher, start, s.logger)
		if sums != nil {
			result.Checksums = *sums
		}
		if err != nil {
			return nil, fmt.Errorf("computing checksums: %w", err)
		}
		if sums.Changed() {
			if err := s.persistIndex(name, result.JournalID, next, journal); err != nil {
				return nil, err
			}
			result.Written = true
		}
		s.logger.Info("checksums computed", "index", name, "computed", sums.Computed, "failed", sums.Failed)
	}

	result.Duration = s.clock.Now().Sub(start)
	s.observer.IndexUpdated(name, result)
	return result, nil
}

// persistIndex writes the journal before the snapshot so that a snapshot is
// never stored without the journal leading to it.
func (s *HGService) persistIndex(name, journalID string, index *FileIndex, journal *Journal) error {
	if !journal.IsEmpty() {
		if err := s.indexes.WriteJournal(name, journalID, journal); err != nil {
			return fmt.Errorf("writing journal: %w", err)
		}
	}
	if err := s.indexes.WriteIndex(name, index); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return nil
}

// ReadIndex returns the stored snapshot of an index.
func (s *HGService) ReadIndex(name string) (*FileIndex, error) {
	index, err := s.indexes.ReadIndex(name)
	if err != nil {
		return nil, fmt.Errorf("reading index %s: %w", name, err)
	}
	return index, nil
}

// ListJournals returns the journal ids of an index, oldest first.
func (s *HGService) ListJournals(name string) ([]string, error) {
	ids, err := s.indexes.ListJournals(name)
	if err != nil {
		return nil, fmt.Errorf("listing journals of %s: %w", name, err)
	}
	return ids, nil
}
