package catalog

import (
	"context"
	"fmt"

	"hg-go/internal/hg"
)

// StorageDirectoryReader lists the digest-keyed storage files, such as
// previews and meta files, of every digest in a directory group.
type StorageDirectoryReader struct {
	storage hg.Storage
}

var _ hg.DirectoryReader = (*StorageDirectoryReader)(nil)

// NewStorageDirectoryReader creates a reader over storage.
func NewStorageDirectoryReader(storage hg.Storage) *StorageDirectoryReader {
	return &StorageDirectoryReader{storage: storage}
}

func (r *StorageDirectoryReader) ReadDirectory(ctx context.Context, group []*hg.CatalogEntry) (map[string][]string, error) {
	files := make(map[string][]string)
	for _, e := range group {
		if _, seen := files[e.Sha1sum]; seen {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		names, err := r.storage.List(hg.StoragePath(e.Sha1sum, ""))
		if err != nil {
			return nil, fmt.Errorf("listing storage files of %s: %w", e.Sha1sum, err)
		}
		files[e.Sha1sum] = names
	}
	return files, nil
}
