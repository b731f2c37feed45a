package media

import (
	"testing"

	"hg-go/internal/hg"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		want     hg.MediaType
	}{
		{filename: "2024/IMG_0001.JPG", want: hg.MediaTypeImage},
		{filename: "a.webp", want: hg.MediaTypeImage},
		{filename: "raw/DSC_1.NEF", want: hg.MediaTypeRawImage},
		{filename: "a.dng", want: hg.MediaTypeRawImage},
		{filename: "clip.MOV", want: hg.MediaTypeVideo},
		{filename: "clip.mp4", want: hg.MediaTypeVideo},
		{filename: "IMG_0001.jpg.xmp", want: hg.MediaTypeMeta},
		{filename: "readme.txt", want: hg.MediaTypeUnknown},
		{filename: "noext", want: hg.MediaTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := Detect(tt.filename); got != tt.want {
				t.Errorf("Detect(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestStem(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{filename: "2024/IMG_1.jpg", want: "IMG_1"},
		{filename: "2024/IMG_1.jpg.xmp", want: "IMG_1"},
		{filename: "IMG_1.xmp", want: "IMG_1"},
		{filename: "IMG_1.CR2", want: "IMG_1"},
		{filename: "holiday.2024.jpg", want: "holiday.2024"},
		{filename: "archive.tar.gz", want: "archive.tar"},
		{filename: "noext", want: "noext"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := Stem(tt.filename); got != tt.want {
				t.Errorf("Stem(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}
