// Package media detects media types and extracts attributes and previews
// from media files.
package media

import (
	"path"
	"strings"

	"hg-go/internal/hg"
)

// ImageExtensions maps file extensions of decodable image formats.
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
	".heic": true,
	".heif": true,
}

// RawImageExtensions maps camera raw formats.
var RawImageExtensions = map[string]bool{
	".cr2": true,
	".cr3": true,
	".crw": true,
	".nef": true,
	".nrw": true,
	".arw": true,
	".srf": true,
	".sr2": true,
	".orf": true,
	".rw2": true,
	".raf": true,
	".pef": true,
	".dng": true,
	".raw": true,
	".3fr": true,
	".x3f": true,
}

// VideoExtensions maps video container formats.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".m4v":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".mpeg": true,
	".mpg":  true,
	".3gp":  true,
	".mts":  true,
	".m2ts": true,
}

// MetaExtensions maps sidecar metadata formats.
var MetaExtensions = map[string]bool{
	".xmp":  true,
	".json": true,
	".thm":  true,
	".aae":  true,
}

// TypeOfExt returns the media type of a lower or upper case extension
// including the leading dot.
func TypeOfExt(ext string) hg.MediaType {
	ext = strings.ToLower(ext)
	switch {
	case ImageExtensions[ext]:
		return hg.MediaTypeImage
	case RawImageExtensions[ext]:
		return hg.MediaTypeRawImage
	case VideoExtensions[ext]:
		return hg.MediaTypeVideo
	case MetaExtensions[ext]:
		return hg.MediaTypeMeta
	default:
		return hg.MediaTypeUnknown
	}
}

// Detect returns the media type of filename by extension.
func Detect(filename string) hg.MediaType {
	return TypeOfExt(path.Ext(filename))
}

// Stem returns the base name of filename without its extension. A second
// extension is removed too if it is a known media extension, so that
// "IMG_1.jpg.xmp" and "IMG_1.xmp" both belong to "IMG_1.jpg".
func Stem(filename string) string {
	base := path.Base(filename)
	stem := strings.TrimSuffix(base, path.Ext(base))
	if ext := path.Ext(stem); ext != "" && TypeOfExt(ext) != hg.MediaTypeUnknown {
		stem = strings.TrimSuffix(stem, ext)
	}
	return stem
}
