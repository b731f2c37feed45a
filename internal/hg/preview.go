package hg

import (
	"context"
	"fmt"
)

// GeneratePreviews writes missing previews for every hashed file of an index.
// Returns the number of preview files written.
func (s *HGService) GeneratePreviews(ctx context.Context, name string, tree FileTree) (int, error) {
	if s.previews == nil {
		return 0, fmt.Errorf("no preview generator configured")
	}

	index, err := s.indexes.ReadIndex(name)
	if err != nil {
		return 0, fmt.Errorf("reading index %s: %w", name, err)
	}

	written := 0
	for _, e := range index.Entries {
		if !e.IsFile() || e.Sha1sum == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return written, err
		}
		entry := &CatalogEntry{Index: name, Filename: e.Filename, Sha1sum: e.Sha1sum, Size: e.Size, Modified: e.Modified}
		names, err := s.previews.Generate(ctx, tree, entry)
		if err != nil {
			s.logger.Warn("skipping preview", "file", e.Filename, "error", err)
			continue
		}
		written += len(names)
	}

	s.logger.Info("previews generated", "index", name, "written", written)
	s.observer.PreviewsGenerated(written)
	return written, nil
}
