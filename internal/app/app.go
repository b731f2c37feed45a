package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"hg-go/internal/catalog"
	"hg-go/internal/config"
	"hg-go/internal/encryption"
	"hg-go/internal/envelope"
	"hg-go/internal/fs"
	"hg-go/internal/hg"
	"hg-go/internal/history"
	"hg-go/internal/media"
	"hg-go/internal/metrics"
	"hg-go/internal/storage"
	"hg-go/internal/store"
)

// HGApp is the application layer between the CLI and HGService.
// It constructs all dependencies from config, resolves index names to file
// trees, records state-changing commands in the run history and releases
// resources on Close.
type HGApp struct {
	cfg       *config.Config
	storage   hg.Storage
	codec     *envelope.Codec
	encryptor hg.Encryptor
	history   *history.SQLiteHistory
	service   *hg.HGService
	logger    hg.Logger
	op        *Operation
	logFile   *os.File
}

// NewHGApp creates a fully wired HGApp from the given config.
// operation identifies the CLI command being run (e.g. "index update").
// verbose also prints info records to stderr. The caller must call Close
// when done.
func NewHGApp(ctx context.Context, cfg *config.Config, operation string, verbose bool) (*HGApp, error) {
	st, err := storage.NewStorageFromConfig(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("creating storage: %w", err)
	}
	if err := st.ValidateSetup(); err != nil {
		return nil, fmt.Errorf("validating storage: %w", err)
	}

	enc, err := encryption.NewEncryptorFromConfig(cfg.Encryption)
	if err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	clock := hg.RealClock{}
	hist, err := history.NewHistoryFromConfig(cfg.History, clock)
	if err != nil {
		return nil, fmt.Errorf("creating history: %w", err)
	}
	if err := hist.CheckMigrations(); err != nil {
		hist.Close()
		return nil, fmt.Errorf("history schema out of date: %w", err)
	}

	stderrLevel := slog.LevelWarn
	if verbose {
		stderrLevel = slog.LevelInfo
	}
	sl, logFile, err := newLogger(cfg.LogDir, hg.OperationID(clock.Now()), stderrLevel)
	if err != nil {
		hist.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: sl}

	a := &HGApp{
		cfg:       cfg,
		storage:   st,
		codec:     envelope.NewCodec(enc),
		encryptor: enc,
		history:   hist,
		logger:    logger,
		op:        NewOperation(operation, ""),
		logFile:   logFile,
	}

	builder := catalog.NewBuilder(
		catalog.NewStorageDirectoryReader(st),
		media.NewExtractor(st, a.trees(), logger),
		logger,
		catalog.Options{
			Filter:  fs.NewFilter(cfg.Catalog.Exclude),
			Workers: cfg.Catalog.Workers,
			Buffer:  cfg.Catalog.Buffer,
		},
	)
	previews := media.NewPreviewGenerator(st, cfg.Preview.Sizes, cfg.Preview.Quality)
	s := store.New(st, a.codec)
	a.service = hg.NewHGService(s, s, builder, previews, hist, fs.SHA1Hasher{}, metrics.NewObserver(), logger, clock)

	return a, nil
}

// Encrypted reports whether stored files are sealed and need Unlock before
// they can be read.
func (a *HGApp) Encrypted() bool {
	return a.encryptor != nil
}

// Unlock decrypts the private key with passphrase for this session.
func (a *HGApp) Unlock(passphrase string) error {
	if a.encryptor == nil {
		return nil
	}
	dc, err := a.encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking: %w", err)
	}
	a.codec.SetDecryptionContext(dc)
	return nil
}

// tree opens the file tree of a configured index.
func (a *HGApp) tree(name string) (*fs.Tree, error) {
	idx, err := a.cfg.Index(name)
	if err != nil {
		return nil, err
	}
	filter, err := fs.NewFilterFromConfig(idx.Exclude, idx.ExcludeFromFile)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", name, err)
	}
	return fs.NewOSTree(idx.Base, filter, idx.ExcludeIfPresent)
}

// trees opens every reachable index tree for metadata extraction.
func (a *HGApp) trees() map[string]hg.FileTree {
	trees := make(map[string]hg.FileTree)
	for _, name := range a.cfg.IndexNames() {
		t, err := a.tree(name)
		if err != nil {
			a.logger.Warn("index not reachable, metadata limited", "index", name, "error", err)
			continue
		}
		trees[name] = t
	}
	return trees
}

// indexNames returns names, or all configured indexes if names is empty.
func (a *HGApp) indexNames(names []string) ([]string, error) {
	if len(names) == 0 {
		names = a.cfg.IndexNames()
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no indexes configured")
	}
	for _, name := range names {
		if _, err := a.cfg.Index(name); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// persistOperation saves the operation to the run history, giving it an
// auto-increment ID. Only state-changing commands call it.
func (a *HGApp) persistOperation(parameters ...string) error {
	if a.op.Persisted() {
		return nil
	}
	a.op.Parameters = strings.Join(parameters, " ")
	rec, err := a.history.CreateOperation(a.op.Operation, a.op.Parameters)
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.ID = rec.ID
	return nil
}

// UpdateIndex rescans the named indexes, all configured ones if names is
// empty. Checksums are computed when checksum is set or the index config
// asks for it.
func (a *HGApp) UpdateIndex(ctx context.Context, names []string, checksum bool) ([]*hg.IndexResult, error) {
	names, err := a.indexNames(names)
	if err != nil {
		return nil, err
	}
	if err := a.persistOperation(names...); err != nil {
		return nil, err
	}

	var results []*hg.IndexResult
	for _, name := range names {
		idx, _ := a.cfg.Index(name)
		tree, err := a.tree(name)
		if err != nil {
			return results, a.op.Fail(err)
		}
		result, err := a.service.UpdateIndex(ctx, name, tree, hg.IndexOptions{Checksum: checksum || idx.Checksum})
		if err != nil {
			return results, a.op.Fail(fmt.Errorf("updating index %s: %w", name, err))
		}
		a.op.Count(result.Diff.Added, result.Diff.Removed, result.Total)
		results = append(results, result)
	}
	return results, nil
}

// IndexStats summarizes the stored snapshot of an index.
func (a *HGApp) IndexStats(name string) (*hg.IndexStats, map[hg.MediaType]int, error) {
	stats, err := a.service.IndexStats(name)
	if err != nil {
		return nil, nil, err
	}
	return stats, MediaTypeCounts(stats, media.TypeOfExt), nil
}

// IndexTree renders the directory tree of the stored snapshot of an index.
func (a *HGApp) IndexTree(name string, depth int) (string, error) {
	index, err := a.service.ReadIndex(name)
	if err != nil {
		return "", err
	}
	return RenderIndexTree(name, index, depth), nil
}

// ListJournals returns the journal ids of an index, oldest first.
func (a *HGApp) ListJournals(name string) ([]string, error) {
	return a.service.ListJournals(name)
}

// BuildCatalog rebuilds the configured catalog from the named indexes.
func (a *HGApp) BuildCatalog(ctx context.Context, names []string) (*hg.CatalogResult, error) {
	names, err := a.indexNames(names)
	if err != nil {
		return nil, err
	}
	if err := a.persistOperation(names...); err != nil {
		return nil, err
	}

	result, err := a.service.BuildCatalog(ctx, names, a.cfg.Catalog.Name)
	if err != nil {
		return nil, a.op.Fail(err)
	}
	a.op.Count(0, 0, result.Entries)
	return result, nil
}

// QueryCatalog evaluates a JSONPath expression against the configured catalog.
func (a *HGApp) QueryCatalog(expr string) ([]any, error) {
	return a.service.QueryCatalog(a.cfg.Catalog.Name, expr)
}

// UpdateDatabase merges a journal of the named indexes into the configured
// database. An empty journalID selects the latest journal of each index.
// hg.ErrNoChange is returned unchanged and does not fail the operation.
func (a *HGApp) UpdateDatabase(ctx context.Context, names []string, journalID string) (*hg.MergeResult, error) {
	names, err := a.indexNames(names)
	if err != nil {
		return nil, err
	}
	params := names
	if journalID != "" {
		params = append(params, journalID)
	}
	if err := a.persistOperation(params...); err != nil {
		return nil, err
	}

	result, err := a.service.UpdateDatabase(ctx, names, journalID, a.cfg.Database.Name)
	if errors.Is(err, hg.ErrNoChange) {
		return nil, err
	}
	if err != nil {
		return nil, a.op.Fail(err)
	}
	a.op.Count(result.Inserted, result.Deleted, result.Total)
	return result, nil
}

// GeneratePreviews writes missing previews for the named indexes.
func (a *HGApp) GeneratePreviews(ctx context.Context, names []string) (int, error) {
	names, err := a.indexNames(names)
	if err != nil {
		return 0, err
	}
	if err := a.persistOperation(names...); err != nil {
		return 0, err
	}

	total := 0
	for _, name := range names {
		tree, err := a.tree(name)
		if err != nil {
			return total, a.op.Fail(err)
		}
		n, err := a.service.GeneratePreviews(ctx, name, tree)
		total += n
		if err != nil {
			return total, a.op.Fail(fmt.Errorf("generating previews for %s: %w", name, err))
		}
	}
	a.op.Count(total, 0, total)
	return total, nil
}

// GetHistory returns the most recent operations.
func (a *HGApp) GetHistory(limit int) ([]*hg.Operation, error) {
	return a.service.GetHistory(limit)
}

// Close finalizes the operation and closes all resources. Persisted
// operations are finished in the run history, and metrics are exported if
// a textfile is configured.
func (a *HGApp) Close() error {
	var firstErr error

	if a.op.Persisted() {
		if err := a.history.FinishOperation(a.op.ID, a.op.Status, a.op.Added, a.op.Removed, a.op.Total); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
		if a.cfg.Metrics.Textfile != "" {
			if err := metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	if err := a.history.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing history: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
