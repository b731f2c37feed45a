package media

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"hg-go/internal/hg"
)

// MaxImagePixels is the largest image (width * height) decoded for previews.
// A 20MP image uses about 80MB in RGBA.
const MaxImagePixels = 20_000_000

// PreviewName returns the storage name of the preview of a digest at size.
func PreviewName(sha1sum string, size int) string {
	return hg.StoragePath(sha1sum, fmt.Sprintf("image-preview-%d.jpg", size))
}

// PreviewGenerator implements hg.PreviewGenerator with JPEG previews fitted
// into size x size boxes.
type PreviewGenerator struct {
	storage hg.Storage
	sizes   []int
	quality int
}

var _ hg.PreviewGenerator = (*PreviewGenerator)(nil)

// NewPreviewGenerator creates a PreviewGenerator writing to storage.
func NewPreviewGenerator(storage hg.Storage, sizes []int, quality int) *PreviewGenerator {
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	return &PreviewGenerator{storage: storage, sizes: sizes, quality: quality}
}

// Generate writes the missing previews of an image. Other media types are
// ignored.
func (g *PreviewGenerator) Generate(ctx context.Context, tree hg.FileTree, entry *hg.CatalogEntry) ([]string, error) {
	if Detect(entry.Filename) != hg.MediaTypeImage || entry.Sha1sum == "" {
		return nil, nil
	}

	var missing []int
	for _, size := range g.sizes {
		ok, err := g.storage.Exists(PreviewName(entry.Sha1sum, size))
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, size)
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	img, err := g.load(tree, entry.Filename)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, size := range missing {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		name := PreviewName(entry.Sha1sum, size)
		preview := imaging.Fit(img, size, size, imaging.Lanczos)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, preview, imaging.JPEG, imaging.JPEGQuality(g.quality)); err != nil {
			return written, fmt.Errorf("encoding preview %s: %w", name, err)
		}
		if err := g.storage.Put(name, &buf, int64(buf.Len())); err != nil {
			return written, fmt.Errorf("storing preview %s: %w", name, err)
		}
		written = append(written, name)
	}
	return written, nil
}

func (g *PreviewGenerator) load(tree hg.FileTree, filename string) (image.Image, error) {
	width, height, err := Dimensions(tree, filename)
	if err != nil {
		return nil, fmt.Errorf("reading image header of %s: %w", filename, err)
	}
	if width*height > MaxImagePixels {
		return nil, fmt.Errorf("image %s too large: %dx%d", filename, width, height)
	}

	f, err := tree.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filename, err)
	}
	return img, nil
}
