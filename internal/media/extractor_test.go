package media

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hg-go/internal/hg"
	"hg-go/internal/storage"
)

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	modified := time.Date(2023, 8, 14, 9, 30, 0, 0, time.UTC)
	taken := time.Date(2023, 8, 12, 17, 5, 0, 0, time.UTC)
	metaName := hg.StoragePath(testDigest, MetaSuffix)

	mem := storage.NewMemoryStorage()
	meta := `{"date":"2023-08-12T17:05:00Z","width":4000,"height":3000,"orientation":6,"make":"Canon","model":"EOS R6"}`
	if err := mem.Put(metaName, strings.NewReader(meta), int64(len(meta))); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	tree := newTree(t, map[string][]byte{
		"2023/a.png":    pngBytes(t, 64, 48),
		"2023/b.heic":   []byte("not decodable"),
		"2023/clip.mp4": []byte("video"),
	})
	extractor := NewExtractor(mem, map[string]hg.FileTree{"photos": tree}, hg.NewNopLogger())

	tests := []struct {
		name         string
		filename     string
		index        string
		storageFiles []string
		want         hg.MediaAttributes
	}{
		{
			name:         "meta file wins",
			filename:     "2023/a.png",
			storageFiles: []string{metaName},
			want:         hg.MediaAttributes{Date: taken, Width: 4000, Height: 3000, Orientation: 6, Make: "Canon", Model: "EOS R6"},
		},
		{
			name:     "image dimensions from header",
			filename: "2023/a.png",
			want:     hg.MediaAttributes{Date: modified, Width: 64, Height: 48},
		},
		{
			name:     "undecodable image keeps zero dimensions",
			filename: "2023/b.heic",
			want:     hg.MediaAttributes{Date: modified},
		},
		{
			name:     "video without meta",
			filename: "2023/clip.mp4",
			want:     hg.MediaAttributes{Date: modified},
		},
		{
			name:     "index without tree",
			filename: "2023/a.png",
			index:    "archive",
			want:     hg.MediaAttributes{Date: modified},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			entry := catalogEntry(tt.filename)
			entry.Modified = modified
			if tt.index != "" {
				entry.Index = tt.index
			}
			got, err := extractor.Extract(context.Background(), &hg.CatalogItem{Primary: entry, StorageFiles: tt.storageFiles})
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if !got.Date.Equal(tt.want.Date) {
				t.Errorf("Date = %v, want %v", got.Date, tt.want.Date)
			}
			got.Date = tt.want.Date
			if *got != tt.want {
				t.Errorf("Extract() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestExtractor_Extract_Errors(t *testing.T) {
	t.Parallel()

	metaName := hg.StoragePath(testDigest, MetaSuffix)

	t.Run("listed meta file missing", func(t *testing.T) {
		t.Parallel()
		extractor := NewExtractor(storage.NewMemoryStorage(), nil, hg.NewNopLogger())
		_, err := extractor.Extract(context.Background(), &hg.CatalogItem{
			Primary:      catalogEntry("a.jpg"),
			StorageFiles: []string{metaName},
		})
		if !errors.Is(err, hg.ErrNotFound) {
			t.Errorf("Extract() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("corrupt meta file", func(t *testing.T) {
		t.Parallel()
		mem := storage.NewMemoryStorage()
		if err := mem.Put(metaName, strings.NewReader("{"), 1); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		extractor := NewExtractor(mem, nil, hg.NewNopLogger())
		_, err := extractor.Extract(context.Background(), &hg.CatalogItem{
			Primary:      catalogEntry("a.jpg"),
			StorageFiles: []string{metaName},
		})
		if err == nil {
			t.Error("Extract() expected error for corrupt meta file")
		}
	})
}

func TestDimensions(t *testing.T) {
	t.Parallel()

	tree := newTree(t, map[string][]byte{"a.png": pngBytes(t, 10, 20)})

	w, h, err := Dimensions(tree, "a.png")
	if err != nil {
		t.Fatalf("Dimensions() error = %v", err)
	}
	if w != 10 || h != 20 {
		t.Errorf("Dimensions() = %dx%d, want 10x20", w, h)
	}

	if _, _, err := Dimensions(tree, "missing.png"); err == nil {
		t.Error("Dimensions() expected error for missing file")
	}
}
