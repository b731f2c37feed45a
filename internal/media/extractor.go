package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"slices"
	"time"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"hg-go/internal/hg"
)

// MetaSuffix names the storage file holding externally extracted metadata
// of a digest, e.g. exif data written by an external tool.
const MetaSuffix = "meta.json"

// Meta is the content of a MetaSuffix storage file.
type Meta struct {
	Date        time.Time `json:"date"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Duration    float64   `json:"duration"`
	Orientation int       `json:"orientation"`
	Make        string    `json:"make"`
	Model       string    `json:"model"`
}

// Extractor implements hg.MetadataExtractor. Attributes come from the meta
// storage file of the primary digest if present. Otherwise image dimensions
// are read from the file header in the index tree. The date falls back to
// the modification time of the primary file.
type Extractor struct {
	storage hg.Storage
	trees   map[string]hg.FileTree
	logger  hg.Logger
}

var _ hg.MetadataExtractor = (*Extractor)(nil)

// NewExtractor creates an Extractor. trees maps index names to their file
// trees and may miss indexes whose files are not reachable.
func NewExtractor(storage hg.Storage, trees map[string]hg.FileTree, logger hg.Logger) *Extractor {
	return &Extractor{storage: storage, trees: trees, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, item *hg.CatalogItem) (*hg.MediaAttributes, error) {
	primary := item.Primary
	attrs := &hg.MediaAttributes{Date: primary.Modified}

	metaName := hg.StoragePath(primary.Sha1sum, MetaSuffix)
	if e.storage != nil && slices.Contains(item.StorageFiles, metaName) {
		meta, err := e.readMeta(metaName)
		if err != nil {
			return nil, err
		}
		applyMeta(attrs, meta)
		return attrs, nil
	}

	if primary.Type != hg.MediaTypeImage {
		return attrs, nil
	}
	tree, ok := e.trees[primary.Index]
	if !ok {
		return attrs, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	width, height, err := Dimensions(tree, primary.Filename)
	if err != nil {
		// unsupported formats such as heic keep zero dimensions
		e.logger.Debug("no image dimensions", "index", primary.Index, "file", primary.Filename, "error", err)
		return attrs, nil
	}
	attrs.Width, attrs.Height = width, height
	return attrs, nil
}

func (e *Extractor) readMeta(name string) (*Meta, error) {
	var buf bytes.Buffer
	if err := e.storage.Get(name, &buf); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	var meta Meta
	if err := json.Unmarshal(buf.Bytes(), &meta); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	return &meta, nil
}

func applyMeta(attrs *hg.MediaAttributes, meta *Meta) {
	if !meta.Date.IsZero() {
		attrs.Date = meta.Date
	}
	attrs.Width = meta.Width
	attrs.Height = meta.Height
	attrs.Duration = meta.Duration
	attrs.Orientation = meta.Orientation
	attrs.Make = meta.Make
	attrs.Model = meta.Model
}

// Dimensions returns the image size without decoding the full image.
func Dimensions(tree hg.FileTree, filename string) (int, int, error) {
	f, err := tree.Open(filename)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	config, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return config.Width, config.Height, nil
}
