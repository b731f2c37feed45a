package hg

import (
	"context"
	"fmt"
	"path"
	"time"
)

// CatalogResult summarizes a catalog build.
type CatalogResult struct {
	Entries  int
	Duration time.Duration
}

// BuildCatalog rebuilds the named catalog from the snapshots of indexNames.
func (s *HGService) BuildCatalog(ctx context.Context, indexNames []string, catalogName string) (*CatalogResult, error) {
	start := s.clock.Now()

	sources := make([]CatalogSource, 0, len(indexNames))
	for _, name := range indexNames {
		index, err := s.indexes.ReadIndex(name)
		if err != nil {
			return nil, fmt.Errorf("reading index %s: %w", name, err)
		}
		sources = append(sources, CatalogSource{Name: name, Index: index})
	}

	media, err := s.builder.Build(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}

	if err := s.databases.WriteCatalog(catalogName, NewCatalog(s.clock.Now(), media)); err != nil {
		return nil, fmt.Errorf("writing catalog: %w", err)
	}

	result := &CatalogResult{Entries: len(media), Duration: s.clock.Now().Sub(start)}
	s.logger.Info("catalog built", "catalog", catalogName, "entries", result.Entries)
	s.observer.CatalogBuilt(result.Entries, result.Duration)
	return result, nil
}

// ReadCatalog returns the stored catalog.
func (s *HGService) ReadCatalog(name string) (*Catalog, error) {
	catalog, err := s.databases.ReadCatalog(name)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", name, err)
	}
	return catalog, nil
}

// UpdateDatabase merges the journals of indexNames into the named database.
// The files changed by the journals are run through the catalog pipeline,
// together with their directory neighbours for sidecar association, to
// produce the new records. Returns ErrNoChange if the journals hold nothing
// to merge.
func (s *HGService) UpdateDatabase(ctx context.Context, indexNames []string, journalID, databaseName string) (*MergeResult, error) {
	journals, err := s.merger.ReadJournals(indexNames, journalID)
	if err != nil {
		return nil, err
	}

	var sources []CatalogSource
	changed := make(map[string]bool)
	for _, ij := range journals {
		dirs := make(map[string]bool)
		for _, c := range ij.Journal.Changes {
			if c.Sha1sum == "" {
				continue
			}
			changed[ij.Index+":"+c.Filename] = true
			dirs[path.Dir(c.Filename)] = true
		}
		if len(dirs) == 0 {
			continue
		}

		index, err := s.indexes.ReadIndex(ij.Index)
		if err != nil {
			return nil, fmt.Errorf("reading index %s: %w", ij.Index, err)
		}
		subset := NewFileIndex(index.Base, index.Created)
		for _, e := range index.Entries {
			if dirs[path.Dir(e.Filename)] {
				subset.Entries = append(subset.Entries, e)
			}
		}
		sources = append(sources, CatalogSource{Name: ij.Index, Index: subset})
	}

	var newEntries []*Media
	if len(sources) > 0 {
		media, err := s.builder.Build(ctx, sources)
		if err != nil {
			return nil, fmt.Errorf("building entries: %w", err)
		}
		for _, m := range media {
			if touchesAny(m, changed) {
				newEntries = append(newEntries, m)
			}
		}
	}

	_, result, err := s.merger.MergeJournals(journals, databaseName, newEntries)
	if err != nil {
		return nil, err
	}
	s.observer.DatabaseMerged(result)
	return result, nil
}

func touchesAny(m *Media, keys map[string]bool) bool {
	for _, f := range m.Files {
		if keys[f.Index+":"+f.Filename] {
			return true
		}
	}
	return false
}
