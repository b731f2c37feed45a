package hg_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"hg-go/internal/catalog"
	"hg-go/internal/encryption"
	"hg-go/internal/fs"
	"hg-go/internal/hg"
	"hg-go/internal/media"
	"hg-go/internal/storage"
	"hg-go/internal/store"
	"hg-go/internal/testutil"
)

// recordingObserver keeps every event it receives.
type recordingObserver struct {
	mu       sync.Mutex
	indexes  []*hg.IndexResult
	merges   []*hg.MergeResult
	catalogs []int
	previews []int
}

func (o *recordingObserver) IndexUpdated(_ string, r *hg.IndexResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.indexes = append(o.indexes, r)
}

func (o *recordingObserver) DatabaseMerged(r *hg.MergeResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.merges = append(o.merges, r)
}

func (o *recordingObserver) CatalogBuilt(entries int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.catalogs = append(o.catalogs, entries)
}

func (o *recordingObserver) PreviewsGenerated(count int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.previews = append(o.previews, count)
}

type fixture struct {
	svc      *hg.HGService
	store    *store.Store
	storage  *storage.MemoryStorage
	clock    *testutil.StubClock
	observer *recordingObserver
	tree     *testutil.StubTree
}

func newFixture(t *testing.T, encryptor hg.Encryptor, previews hg.PreviewGenerator) *fixture {
	t.Helper()
	st, mem := testutil.NewTestStore(t, encryptor)
	clock := testutil.FixedClock()
	logger := hg.NewNopLogger()
	builder := catalog.NewBuilder(
		catalog.NewStorageDirectoryReader(mem),
		media.NewExtractor(mem, nil, logger),
		logger,
		catalog.Options{Workers: 2},
	)
	observer := &recordingObserver{}
	history := testutil.NewTestHistory(t, clock)
	svc := hg.NewHGService(st, st, builder, previews, history, fs.SHA1Hasher{}, observer, logger, clock)
	return &fixture{
		svc:      svc,
		store:    st,
		storage:  mem,
		clock:    clock,
		observer: observer,
		tree:     testutil.NewStubTree("/srv/photos"),
	}
}

func (f *fixture) update(t *testing.T, checksum bool) *hg.IndexResult {
	t.Helper()
	result, err := f.svc.UpdateIndex(context.Background(), "photos", f.tree, hg.IndexOptions{Checksum: checksum})
	if err != nil {
		t.Fatalf("UpdateIndex() error = %v", err)
	}
	f.clock.Advance(time.Hour)
	return result
}

func TestHGService_UpdateIndex(t *testing.T) {
	t.Run("first update writes snapshot and journal", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		f.tree.AddFile("2024/a.jpg", []byte("a"), t0)
		f.tree.AddFile("2024/b.jpg", []byte("b"), t0)

		result := f.update(t, false)

		if !result.Written || result.Diff.Added != 3 || result.Total != 3 {
			t.Errorf("result = %+v", result)
		}
		if result.JournalID != "20240115T103000.000000000Z" {
			t.Errorf("JournalID = %q", result.JournalID)
		}
		index, err := f.svc.ReadIndex("photos")
		if err != nil {
			t.Fatalf("ReadIndex() error = %v", err)
		}
		if index.Base != "/srv/photos" || len(index.Entries) != 3 {
			t.Errorf("index = %s with %d entries", index.Base, len(index.Entries))
		}
		ids, err := f.svc.ListJournals("photos")
		if err != nil {
			t.Fatalf("ListJournals() error = %v", err)
		}
		if len(ids) != 1 || ids[0] != result.JournalID {
			t.Errorf("ListJournals() = %v", ids)
		}
		if len(f.observer.indexes) != 1 {
			t.Errorf("observer saw %d index updates, want 1", len(f.observer.indexes))
		}
	})

	t.Run("empty tree still creates the index", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		result := f.update(t, false)

		if !result.Written {
			t.Error("Written = false, want true")
		}
		if _, err := f.svc.ReadIndex("photos"); err != nil {
			t.Fatalf("ReadIndex() error = %v", err)
		}
		if ids, _ := f.svc.ListJournals("photos"); len(ids) != 0 {
			t.Errorf("ListJournals() = %v, want none", ids)
		}
	})

	t.Run("unchanged tree writes nothing", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		f.tree.AddFile("a.jpg", []byte("a"), t0)
		f.update(t, false)

		result := f.update(t, false)

		if result.Written || result.Diff.Unchanged != 1 {
			t.Errorf("result = %+v", result)
		}
		if ids, _ := f.svc.ListJournals("photos"); len(ids) != 1 {
			t.Errorf("ListJournals() = %v, want one journal", ids)
		}
	})

	t.Run("changes produce a new journal", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		f.tree.AddFile("a.jpg", []byte("a"), t0)
		f.tree.AddFile("b.jpg", []byte("b"), t0)
		f.update(t, true)

		f.tree.AddFile("a.jpg", []byte("changed"), t1)
		f.tree.Remove("b.jpg")
		result := f.update(t, false)

		if result.Diff.Changed != 1 || result.Diff.Removed != 1 {
			t.Errorf("Diff = %+v", result.Diff)
		}
		journal, err := f.store.ReadJournal("photos", result.JournalID)
		if err != nil {
			t.Fatalf("ReadJournal() error = %v", err)
		}
		if c := journal.Changes[0]; c.Filename != "a.jpg" || c.PrevSha1sum != testutil.SHA1Hex([]byte("a")) {
			t.Errorf("change = %+v", c)
		}
		if r := journal.Removes[0]; r.Filename != "b.jpg" || r.Sha1sum != testutil.SHA1Hex([]byte("b")) {
			t.Errorf("remove = %+v", r)
		}
	})

	t.Run("checksums are persisted with the journal", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		f.tree.AddFile("a.jpg", []byte("a"), t0)
		f.tree.AddUnreadableFile("locked.jpg", 3, t0)

		result := f.update(t, true)

		if result.Checksums.Computed != 1 || result.Checksums.Failed != 1 {
			t.Errorf("Checksums = %+v", result.Checksums)
		}
		index, err := f.svc.ReadIndex("photos")
		if err != nil {
			t.Fatalf("ReadIndex() error = %v", err)
		}
		if index.Entries[0].Sha1sum != testutil.SHA1Hex([]byte("a")) || index.Entries[0].Sha1sumDate == nil {
			t.Errorf("entry = %+v", index.Entries[0])
		}
		journal, err := f.store.ReadJournal("photos", result.JournalID)
		if err != nil {
			t.Fatalf("ReadJournal() error = %v", err)
		}
		if journal.Changes[0].Sha1sum == "" {
			t.Error("journal change has no digest")
		}

		// the unreadable file is retried on the next run
		again := f.update(t, true)
		if again.Checksums.Failed != 1 || again.Written {
			t.Errorf("second update = %+v", again)
		}
	})

	t.Run("encrypted store", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, encryption.NewTestEncryptor(), nil)
		f.tree.AddFile("a.jpg", []byte("a"), t0)
		f.update(t, true)

		names, err := f.storage.List("photos.idx")
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(names) != 2 {
			t.Fatalf("stored files = %v, want index and journal", names)
		}
		var raw strings.Builder
		if err := f.storage.Get("photos.idx", &raw); err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if !strings.HasPrefix(raw.String(), "HGENC") {
			t.Error("index stored without encryption")
		}
		if _, err := f.svc.ReadIndex("photos"); err != nil {
			t.Errorf("ReadIndex() error = %v", err)
		}
	})

	t.Run("walk failure", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := f.svc.UpdateIndex(ctx, "photos", f.tree, hg.IndexOptions{}); err == nil {
			t.Error("UpdateIndex() expected error for cancelled walk")
		}
		if _, err := f.svc.ReadIndex("photos"); !errors.Is(err, hg.ErrNotFound) {
			t.Errorf("ReadIndex() error = %v, want ErrNotFound", err)
		}
	})
}

func TestHGService_IndexStats(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.tree.AddFile("d/a.jpg", []byte("aaaa"), t0)
	f.tree.AddFile("d/b.mp4", []byte("bb"), t0)
	f.update(t, true)

	stats, err := f.svc.IndexStats("photos")
	if err != nil {
		t.Fatalf("IndexStats() error = %v", err)
	}
	if stats.Files != 2 || stats.Dirs != 1 || stats.Bytes != 6 || stats.WithSum != 2 {
		t.Errorf("IndexStats() = %+v", stats)
	}

	if _, err := f.svc.IndexStats("unknown"); !errors.Is(err, hg.ErrNotFound) {
		t.Errorf("IndexStats() error = %v, want ErrNotFound", err)
	}
}

// stubPreviews writes one preview per image and fails for names containing "broken".
type stubPreviews struct {
	mu    sync.Mutex
	calls []string
}

func (p *stubPreviews) Generate(_ context.Context, _ hg.FileTree, entry *hg.CatalogEntry) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, entry.Filename)
	if strings.Contains(entry.Filename, "broken") {
		return nil, errors.New("cannot decode")
	}
	return []string{media.PreviewName(entry.Sha1sum, 320)}, nil
}

func TestHGService_GeneratePreviews(t *testing.T) {
	t.Run("generates for hashed files", func(t *testing.T) {
		t.Parallel()
		previews := &stubPreviews{}
		f := newFixture(t, nil, previews)
		f.tree.AddFile("a.jpg", []byte("a"), t0)
		f.tree.AddFile("broken.jpg", []byte("b"), t0)
		f.update(t, true)
		f.tree.AddFile("unhashed.jpg", []byte("c"), t0)
		f.update(t, false)

		written, err := f.svc.GeneratePreviews(context.Background(), "photos", f.tree)
		if err != nil {
			t.Fatalf("GeneratePreviews() error = %v", err)
		}
		if written != 1 {
			t.Errorf("GeneratePreviews() = %d, want 1", written)
		}
		if len(previews.calls) != 2 {
			t.Errorf("generator called for %v", previews.calls)
		}
		if len(f.observer.previews) != 1 || f.observer.previews[0] != 1 {
			t.Errorf("observer previews = %v", f.observer.previews)
		}
	})

	t.Run("without generator", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, nil)
		if _, err := f.svc.GeneratePreviews(context.Background(), "photos", f.tree); err == nil {
			t.Error("GeneratePreviews() expected error without generator")
		}
	})

	t.Run("unknown index", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, nil, &stubPreviews{})
		if _, err := f.svc.GeneratePreviews(context.Background(), "photos", f.tree); !errors.Is(err, hg.ErrNotFound) {
			t.Errorf("GeneratePreviews() error = %v, want ErrNotFound", err)
		}
	})
}

func TestHGService_GetHistory(t *testing.T) {
	t.Run("lists operations newest first", func(t *testing.T) {
		clock := testutil.FixedClock()
		history := testutil.NewTestHistory(t, clock)
		st, _ := testutil.NewTestStore(t, nil)
		svc := hg.NewHGService(st, st, nil, nil, history, fs.SHA1Hasher{}, nil, hg.NewNopLogger(), clock)

		for _, op := range []string{"index update", "catalog build"} {
			if _, err := history.CreateOperation(op, ""); err != nil {
				t.Fatalf("CreateOperation() error = %v", err)
			}
			clock.Advance(time.Minute)
		}

		ops, err := svc.GetHistory(10)
		if err != nil {
			t.Fatalf("GetHistory() error = %v", err)
		}
		if len(ops) != 2 || ops[0].Operation != "catalog build" {
			t.Errorf("GetHistory() = %+v", ops)
		}
	})

	t.Run("without history", func(t *testing.T) {
		st, _ := testutil.NewTestStore(t, nil)
		svc := hg.NewHGService(st, st, nil, nil, nil, fs.SHA1Hasher{}, nil, hg.NewNopLogger(), testutil.FixedClock())
		if _, err := svc.GetHistory(10); err == nil {
			t.Error("GetHistory() expected error without history")
		}
	})
}
