package hg

import (
	"fmt"
	"path"
	"strings"
)

// IndexStats describes the content of a snapshot.
type IndexStats struct {
	Files      int
	Dirs       int
	Symlinks   int
	Bytes      int64
	WithSum    int
	WithoutSum int
	// Extensions counts files per lower-case extension, "" for none.
	Extensions map[string]int
}

// IndexStats reads the stored snapshot of an index and summarizes it.
func (s *HGService) IndexStats(name string) (*IndexStats, error) {
	index, err := s.indexes.ReadIndex(name)
	if err != nil {
		return nil, fmt.Errorf("reading index %s: %w", name, err)
	}
	return ComputeStats(index), nil
}

// ComputeStats summarizes a snapshot.
func ComputeStats(index *FileIndex) *IndexStats {
	stats := &IndexStats{Extensions: make(map[string]int)}
	for _, e := range index.Entries {
		switch e.FileType {
		case FileTypeDir:
			stats.Dirs++
		case FileTypeSymlink:
			stats.Symlinks++
		case FileTypeFile:
			stats.Files++
			stats.Bytes += e.Size
			if e.Sha1sum != "" {
				stats.WithSum++
			} else {
				stats.WithoutSum++
			}
			stats.Extensions[strings.ToLower(path.Ext(e.Filename))]++
		}
	}
	return stats
}
