package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"hg-go/internal/fs"
	"hg-go/internal/hg"
)

const testDigest = "0123456789abcdef0123456789abcdef01234567"

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func newTree(t *testing.T, files map[string][]byte) *fs.Tree {
	t.Helper()
	mfs := memfs.New()
	for name, content := range files {
		if err := util.WriteFile(mfs, name, content, 0644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
	}
	return fs.NewTree(mfs, "/photos", nil, nil)
}

func catalogEntry(filename string) *hg.CatalogEntry {
	return &hg.CatalogEntry{
		Index:    "photos",
		Filename: filename,
		Sha1sum:  testDigest,
		Size:     1,
		Type:     Detect(filename),
	}
}
