package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"sync"
	"time"

	"hg-go/internal/hg"
)

// StubFile is a file of a StubTree.
type StubFile struct {
	Content    []byte
	ModTime    time.Time
	Unreadable bool
}

// StubTree is an in-memory hg.FileTree. Parent directories of added files
// are reported by Walk with the tree's directory time. Safe for concurrent
// use.
type StubTree struct {
	mu      sync.Mutex
	base    string
	dirTime time.Time
	files   map[string]*StubFile
	opens   map[string]int
}

var _ hg.FileTree = (*StubTree)(nil)

// NewStubTree creates an empty tree reported at base.
func NewStubTree(base string) *StubTree {
	return &StubTree{
		base:    base,
		dirTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		files:   make(map[string]*StubFile),
		opens:   make(map[string]int),
	}
}

// AddFile adds or replaces a file with the given modification time.
func (t *StubTree) AddFile(filename string, content []byte, modTime time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files[filename] = &StubFile{Content: content, ModTime: modTime}
}

// AddUnreadableFile adds a file that is listed by Walk but fails to open.
func (t *StubTree) AddUnreadableFile(filename string, size int, modTime time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files[filename] = &StubFile{Content: make([]byte, size), ModTime: modTime, Unreadable: true}
}

// Remove deletes a file.
func (t *StubTree) Remove(filename string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.files, filename)
}

// Opens returns how often filename was opened.
func (t *StubTree) Opens(filename string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opens[filename]
}

func (t *StubTree) Base() string { return t.base }

func (t *StubTree) Walk(ctx context.Context) ([]*hg.IndexEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	dirs := make(map[string]bool)
	var entries []*hg.IndexEntry
	for name, f := range t.files {
		entries = append(entries, &hg.IndexEntry{
			Filename: name,
			FileType: hg.FileTypeFile,
			Size:     int64(len(f.Content)),
			Modified: f.ModTime,
		})
		for dir := path.Dir(name); dir != "." && !dirs[dir]; dir = path.Dir(dir) {
			dirs[dir] = true
		}
	}
	for dir := range dirs {
		entries = append(entries, &hg.IndexEntry{Filename: dir, FileType: hg.FileTypeDir, Modified: t.dirTime})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Filename < entries[j].Filename })
	return entries, nil
}

func (t *StubTree) Open(filename string) (io.ReadCloser, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.opens[filename]++
	f, ok := t.files[filename]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", filename)
	}
	if f.Unreadable {
		return nil, fmt.Errorf("permission denied: %s", filename)
	}
	return io.NopCloser(bytes.NewReader(f.Content)), nil
}
