package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"slices"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"hg-go/internal/hg"
)

// Tree walks a directory tree through a billy filesystem rooted at the index
// base, producing index entries for files, directories and symlinks.
type Tree struct {
	fs               billy.Filesystem
	base             string
	filter           *Filter
	excludeIfPresent []string
}

var _ hg.FileTree = (*Tree)(nil)

// NewTree creates a Tree over fs. base is only reported, fs must already be
// rooted there. Directories containing any file named in excludeIfPresent are
// skipped entirely.
func NewTree(fs billy.Filesystem, base string, filter *Filter, excludeIfPresent []string) *Tree {
	return &Tree{fs: fs, base: base, filter: filter, excludeIfPresent: excludeIfPresent}
}

// NewOSTree creates a Tree over the real filesystem below base.
func NewOSTree(base string, filter *Filter, excludeIfPresent []string) (*Tree, error) {
	info, err := os.Stat(base)
	if err != nil {
		return nil, fmt.Errorf("stat base: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base is not a directory: %s", base)
	}
	return NewTree(osfs.New(base), base, filter, excludeIfPresent), nil
}

func (t *Tree) Base() string { return t.base }

// Open opens a file relative to the tree root.
func (t *Tree) Open(filename string) (io.ReadCloser, error) {
	return t.fs.Open(path.Join("/", filename))
}

// Walk returns all included entries below the root. Unreadable
// subdirectories abort the walk.
func (t *Tree) Walk(ctx context.Context) ([]*hg.IndexEntry, error) {
	infos, err := t.fs.ReadDir("/")
	if err != nil {
		return nil, fmt.Errorf("reading root: %w", err)
	}

	var entries []*hg.IndexEntry
	if err := t.walkDir(ctx, "", infos, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (t *Tree) walkDir(ctx context.Context, dir string, infos []os.FileInfo, entries *[]*hg.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, info := range infos {
		rel := path.Join(dir, info.Name())
		mode := info.Mode()

		switch {
		case mode&os.ModeSymlink != 0:
			if t.filter.Match(rel, false) {
				continue
			}
			*entries = append(*entries, newEntry(rel, hg.FileTypeSymlink, info))

		case info.IsDir():
			if t.filter.Match(rel, true) {
				continue
			}
			children, err := t.fs.ReadDir(path.Join("/", rel))
			if err != nil {
				return fmt.Errorf("reading directory %s: %w", rel, err)
			}
			if t.hasMarker(children) {
				continue
			}
			*entries = append(*entries, newEntry(rel, hg.FileTypeDir, info))
			if err := t.walkDir(ctx, rel, children, entries); err != nil {
				return err
			}

		case mode.IsRegular():
			if t.filter.Match(rel, false) {
				continue
			}
			*entries = append(*entries, newEntry(rel, hg.FileTypeFile, info))
		}
	}
	return nil
}

func (t *Tree) hasMarker(children []os.FileInfo) bool {
	if len(t.excludeIfPresent) == 0 {
		return false
	}
	for _, c := range children {
		if slices.Contains(t.excludeIfPresent, c.Name()) {
			return true
		}
	}
	return false
}

func newEntry(rel string, fileType hg.FileType, info os.FileInfo) *hg.IndexEntry {
	return &hg.IndexEntry{
		Filename: rel,
		FileType: fileType,
		Size:     info.Size(),
		Ino:      inode(info),
		Modified: info.ModTime().UTC(),
	}
}
