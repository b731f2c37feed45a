// Package catalog builds media catalogs from index snapshots with a staged
// channel pipeline.
package catalog

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"hg-go/internal/hg"
	"hg-go/internal/media"
	"hg-go/internal/workers"
)

// DefaultBuffer is the channel capacity between stages.
const DefaultBuffer = 64

// Options configures a Builder.
type Options struct {
	// Filter restricts the files taken into the catalog. Nil includes all.
	Filter hg.Filter
	// Workers is the number of parallel directory reads, 0 sizes it from GOMAXPROCS.
	Workers int
	// Buffer is the channel capacity between stages, 0 means DefaultBuffer.
	Buffer int
}

// Builder implements hg.CatalogBuilder.
type Builder struct {
	reader    hg.DirectoryReader
	extractor hg.MetadataExtractor
	filter    hg.Filter
	workers   int
	buffer    int
	logger    hg.Logger
}

var _ hg.CatalogBuilder = (*Builder)(nil)

// NewBuilder creates a Builder reading storage-side files with reader and
// media attributes with extractor.
func NewBuilder(reader hg.DirectoryReader, extractor hg.MetadataExtractor, logger hg.Logger, opts Options) *Builder {
	b := &Builder{
		reader:    reader,
		extractor: extractor,
		filter:    opts.Filter,
		workers:   opts.Workers,
		buffer:    opts.Buffer,
		logger:    logger,
	}
	if b.filter == nil {
		b.filter = hg.IncludeAll
	}
	if b.workers <= 0 {
		b.workers = workers.ForIO(16)
	}
	if b.buffer <= 0 {
		b.buffer = DefaultBuffer
	}
	return b
}

type rawEntry struct {
	index string
	entry *hg.IndexEntry
}

type dirGroup struct {
	seq     int
	entries []*hg.CatalogEntry
	files   map[string][]string
}

// Build runs the pipeline:
//
//	filter valid -> filter included -> sort by index:filename -> project
//	-> group by directory -> read directories (parallel, order restored)
//	-> associate sidecars -> keep supported primaries -> extract -> sort by date
//
// Every stage runs in its own goroutine. Streaming stages are connected by
// bounded channels; the two sort stages buffer their whole input.
func (b *Builder) Build(ctx context.Context, sources []hg.CatalogSource) ([]*hg.Media, error) {
	g, ctx := errgroup.WithContext(ctx)

	raw := make(chan rawEntry, b.buffer)
	g.Go(func() error {
		defer close(raw)
		for _, src := range sources {
			for _, e := range src.Index.Entries {
				if !valid(e) || !b.filter.Include(e.Filename) {
					continue
				}
				select {
				case raw <- rawEntry{index: src.Name, entry: e}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	})

	entries := make(chan *hg.CatalogEntry, b.buffer)
	g.Go(func() error {
		defer close(entries)
		var all []*hg.CatalogEntry
		for r := range raw {
			all = append(all, project(r))
		}
		sort.SliceStable(all, func(i, j int) bool { return all[i].Less(all[j]) })
		b.logger.Debug("catalog entries sorted", "files", len(all))
		for _, e := range all {
			select {
			case entries <- e:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	groups := make(chan *dirGroup, b.buffer)
	g.Go(func() error {
		defer close(groups)
		return groupByDir(ctx, entries, groups)
	})

	read := b.readDirectories(ctx, g, groups)

	items := make(chan *hg.CatalogItem, b.buffer)
	g.Go(func() error {
		defer close(items)
		for group := range read {
			for _, item := range GroupSidecars(group.entries, group.files) {
				if !supported(item.Primary.Type) {
					continue
				}
				select {
				case items <- item:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	})

	var result []*hg.Media
	g.Go(func() error {
		for item := range items {
			m, err := b.toMedia(ctx, item)
			if err != nil {
				return err
			}
			result = append(result, m)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	hg.SortMedia(result)
	if result == nil {
		result = []*hg.Media{}
	}
	return result, nil
}

// readDirectories reads the storage files of each group with b.workers
// goroutines and emits the groups in their input order.
func (b *Builder) readDirectories(ctx context.Context, g *errgroup.Group, in <-chan *dirGroup) <-chan *dirGroup {
	done := make(chan *dirGroup, b.buffer)
	g.Go(func() error {
		defer close(done)
		wg, wctx := errgroup.WithContext(ctx)
		for i := 0; i < b.workers; i++ {
			wg.Go(func() error {
				for group := range in {
					if err := wctx.Err(); err != nil {
						return err
					}
					files, err := b.reader.ReadDirectory(wctx, group.entries)
					if err != nil {
						return err
					}
					group.files = files
					select {
					case done <- group:
					case <-wctx.Done():
						return wctx.Err()
					}
				}
				return nil
			})
		}
		return wg.Wait()
	})

	out := make(chan *dirGroup, b.buffer)
	g.Go(func() error {
		defer close(out)
		pending := make(map[int]*dirGroup)
		next := 0
		for group := range done {
			pending[group.seq] = group
			for {
				ready, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				select {
				case out <- ready:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		return nil
	})
	return out
}

func (b *Builder) toMedia(ctx context.Context, item *hg.CatalogItem) (*hg.Media, error) {
	attrs, err := b.extractor.Extract(ctx, item)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.logger.Warn("no metadata", "index", item.Primary.Index, "file", item.Primary.Filename, "error", err)
		attrs = &hg.MediaAttributes{Date: item.Primary.Modified}
	}

	p := item.Primary
	m := &hg.Media{
		ID:          p.Sha1sum,
		Type:        p.Type,
		Date:        attrs.Date,
		Files:       []*hg.MediaFile{p.MediaFile()},
		Previews:    item.PreviewFiles(),
		Width:       attrs.Width,
		Height:      attrs.Height,
		Duration:    attrs.Duration,
		Orientation: attrs.Orientation,
		Make:        attrs.Make,
		Model:       attrs.Model,
	}
	for _, s := range item.Sidecars {
		m.Files = append(m.Files, s.MediaFile())
	}
	return m, nil
}

// groupByDir emits consecutive runs of entries sharing index and parent
// directory.
func groupByDir(ctx context.Context, in <-chan *hg.CatalogEntry, out chan<- *dirGroup) error {
	var current *dirGroup
	seq := 0
	emit := func() error {
		if current == nil {
			return nil
		}
		select {
		case out <- current:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for e := range in {
		if current != nil {
			last := current.entries[len(current.entries)-1]
			if last.Index == e.Index && last.Dir() == e.Dir() {
				current.entries = append(current.entries, e)
				continue
			}
		}
		if err := emit(); err != nil {
			return err
		}
		current = &dirGroup{seq: seq, entries: []*hg.CatalogEntry{e}}
		seq++
	}
	return emit()
}

func valid(e *hg.IndexEntry) bool {
	return e != nil && e.IsFile() && e.Sha1sum != "" && e.Size > 0 && e.Filename != ""
}

func project(r rawEntry) *hg.CatalogEntry {
	return &hg.CatalogEntry{
		Index:    r.index,
		Filename: r.entry.Filename,
		Sha1sum:  r.entry.Sha1sum,
		Size:     r.entry.Size,
		Modified: r.entry.Modified,
		Type:     media.Detect(r.entry.Filename),
	}
}

func supported(t hg.MediaType) bool {
	return t.IsPrimary()
}
