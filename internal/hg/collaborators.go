package hg

import (
	"context"
	"io"
	"time"
)

// Filter decides which relative paths take part in indexing and catalog builds.
type Filter interface {
	Include(filename string) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(filename string) bool

func (f FilterFunc) Include(filename string) bool { return f(filename) }

// IncludeAll is a Filter that accepts every path.
var IncludeAll = FilterFunc(func(string) bool { return true })

// FileTree is the directory tree behind one index.
type FileTree interface {
	// Base returns the absolute root of the tree.
	Base() string

	// Walk returns every included entry below the root, in no particular order.
	Walk(ctx context.Context) ([]*IndexEntry, error)

	// Open opens a file relative to the root for reading.
	Open(filename string) (io.ReadCloser, error)
}

// Hasher computes the content digest stored in sha1sum fields.
type Hasher interface {
	Hash(r io.Reader) (string, error)
}

// MetadataExtractor derives media attributes for a catalog item.
type MetadataExtractor interface {
	Extract(ctx context.Context, item *CatalogItem) (*MediaAttributes, error)
}

// DirectoryReader returns the storage-side files of every digest within one
// directory group, keyed by digest.
type DirectoryReader interface {
	ReadDirectory(ctx context.Context, group []*CatalogEntry) (map[string][]string, error)
}

// CatalogSource is one index snapshot fed into a catalog build.
type CatalogSource struct {
	Name  string
	Index *FileIndex
}

// CatalogBuilder turns index snapshots into media records sorted by date
// descending.
type CatalogBuilder interface {
	Build(ctx context.Context, sources []CatalogSource) ([]*Media, error)
}

// PreviewGenerator writes preview images for a media file into storage and
// returns the names written.
type PreviewGenerator interface {
	Generate(ctx context.Context, tree FileTree, entry *CatalogEntry) ([]string, error)
}

// Observer receives operation outcomes, e.g. for metrics.
type Observer interface {
	IndexUpdated(index string, result *IndexResult)
	DatabaseMerged(result *MergeResult)
	CatalogBuilt(entries int, elapsed time.Duration)
	PreviewsGenerated(count int)
}

// NopObserver ignores all events.
type NopObserver struct{}

func (NopObserver) IndexUpdated(string, *IndexResult) {}
func (NopObserver) DatabaseMerged(*MergeResult)       {}
func (NopObserver) CatalogBuilt(int, time.Duration)   {}
func (NopObserver) PreviewsGenerated(int)             {}
