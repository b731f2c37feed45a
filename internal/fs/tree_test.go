package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"hg-go/internal/hg"
)

func writeFiles(t *testing.T, files map[string]string) *Tree {
	t.Helper()
	mfs := memfs.New()
	for name, content := range files {
		if err := util.WriteFile(mfs, name, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile(%s) error = %v", name, err)
		}
	}
	return NewTree(mfs, "/photos", nil, nil)
}

func filenames(entries []*hg.IndexEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Filename + ":" + string(e.FileType)
	}
	sort.Strings(names)
	return names
}

func TestTree_Walk(t *testing.T) {
	t.Run("lists files and directories", func(t *testing.T) {
		t.Parallel()
		tree := writeFiles(t, map[string]string{
			"2024/a.jpg":     "aaa",
			"2024/b/c.mp4":   "cccc",
			"readme.txt":     "r",
			"2024/b/c.xmp":   "x",
			"2023/empty.jpg": "",
		})

		entries, err := tree.Walk(context.Background())
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}

		want := []string{
			"2023/empty.jpg:f",
			"2023:d",
			"2024/a.jpg:f",
			"2024/b/c.mp4:f",
			"2024/b/c.xmp:f",
			"2024/b:d",
			"2024:d",
			"readme.txt:f",
		}
		got := filenames(entries)
		if len(got) != len(want) {
			t.Fatalf("Walk() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
			}
		}

		for _, e := range entries {
			if e.Filename == "2024/b/c.mp4" && e.Size != 4 {
				t.Errorf("size = %d, want 4", e.Size)
			}
		}
	})

	t.Run("applies exclude filter", func(t *testing.T) {
		t.Parallel()
		tree := writeFiles(t, map[string]string{
			"a.jpg":          "a",
			"@eaDir/a.jpg":   "thumb",
			"sub/upload.tmp": "t",
			"sub/keep.jpg":   "k",
		})
		tree.filter = NewFilter([]string{"@eaDir", "*.tmp"})

		entries, err := tree.Walk(context.Background())
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		got := filenames(entries)
		want := []string{"a.jpg:f", "sub/keep.jpg:f", "sub:d"}
		if len(got) != len(want) {
			t.Fatalf("Walk() = %v, want %v", got, want)
		}
	})

	t.Run("skips directories with marker file", func(t *testing.T) {
		t.Parallel()
		tree := writeFiles(t, map[string]string{
			"a.jpg":            "a",
			"private/.nomedia": "",
			"private/b.jpg":    "b",
			"public/c.jpg":     "c",
		})
		tree.excludeIfPresent = []string{".nomedia"}

		entries, err := tree.Walk(context.Background())
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		for _, e := range entries {
			if filepath.Dir(e.Filename) == "private" || e.Filename == "private" {
				t.Errorf("unexpected entry %s", e.Filename)
			}
		}
		if len(entries) != 3 {
			t.Errorf("Walk() returned %d entries, want 3: %v", len(entries), filenames(entries))
		}
	})

	t.Run("records symlinks", func(t *testing.T) {
		t.Parallel()
		mfs := memfs.New()
		if err := util.WriteFile(mfs, "a.jpg", []byte("a"), 0644); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
		if err := mfs.Symlink("a.jpg", "link.jpg"); err != nil {
			t.Fatalf("Symlink() error = %v", err)
		}
		tree := NewTree(mfs, "/", nil, nil)

		entries, err := tree.Walk(context.Background())
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		got := filenames(entries)
		if len(got) != 2 || got[1] != "link.jpg:l" {
			t.Errorf("Walk() = %v, want a.jpg and link.jpg symlink", got)
		}
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		t.Parallel()
		tree := writeFiles(t, map[string]string{"a/b.jpg": "b"})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := tree.Walk(ctx); err == nil {
			t.Error("Walk() expected error for cancelled context")
		}
	})
}

func TestTree_Open(t *testing.T) {
	tree := writeFiles(t, map[string]string{"2024/a.jpg": "content"})

	f, err := tree.Open("2024/a.jpg")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(data) != "content" {
		t.Errorf("content = %q, want %q", data, "content")
	}
}

func TestNewOSTree(t *testing.T) {
	t.Run("walks real directory", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "sub", "a.jpg"), []byte("abc"), 0644); err != nil {
			t.Fatal(err)
		}

		tree, err := NewOSTree(dir, nil, nil)
		if err != nil {
			t.Fatalf("NewOSTree() error = %v", err)
		}
		entries, err := tree.Walk(context.Background())
		if err != nil {
			t.Fatalf("Walk() error = %v", err)
		}
		got := filenames(entries)
		if len(got) != 2 || got[0] != "sub/a.jpg:f" || got[1] != "sub:d" {
			t.Errorf("Walk() = %v", got)
		}
		for _, e := range entries {
			if e.Ino == 0 && e.FileType == hg.FileTypeFile {
				t.Logf("no inode reported for %s", e.Filename)
			}
		}
	})

	t.Run("rejects missing base", func(t *testing.T) {
		t.Parallel()
		if _, err := NewOSTree("/nonexistent/base", nil, nil); err == nil {
			t.Error("NewOSTree() expected error for missing base")
		}
	})
}

func TestSHA1Hasher(t *testing.T) {
	got, err := SHA1Hasher{}.Hash(strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	want := "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d"
	if got != want {
		t.Errorf("Hash() = %s, want %s", got, want)
	}
}
