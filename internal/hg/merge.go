package hg

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// RemovedFile is a file reference vacated at a path: the index file was
// removed, or its content changed away from ID.
type RemovedFile struct {
	Index    string
	Filename string
	ID       string
}

// MergeEntry combines two records that share an id.
type MergeEntry func(existing, incoming *Media) *Media

// MatchFile reports whether a file reference of a record is the one removed.
type MatchFile func(file *MediaFile, removed *RemovedFile) bool

// MergeResult counts the effects of one merge.
type MergeResult struct {
	Journals     int
	Inserted     int
	Merged       int
	RemovedFiles int
	Deleted      int
	Total        int
}

// Merger folds index journals into the database.
type Merger struct {
	indexes    IndexStore
	databases  DatabaseStore
	mergeEntry MergeEntry
	matchFile  MatchFile
	clock      Clock
	logger     Logger
}

// MergerOption customizes a Merger.
type MergerOption func(*Merger)

// WithMergeEntry replaces DefaultMergeEntry.
func WithMergeEntry(f MergeEntry) MergerOption {
	return func(m *Merger) { m.mergeEntry = f }
}

// WithMatchFile replaces DefaultMatchFile.
func WithMatchFile(f MatchFile) MergerOption {
	return func(m *Merger) { m.matchFile = f }
}

// NewMerger creates a Merger reading journals from indexes and the database
// from databases.
func NewMerger(indexes IndexStore, databases DatabaseStore, clock Clock, logger Logger, opts ...MergerOption) *Merger {
	m := &Merger{
		indexes:    indexes,
		databases:  databases,
		mergeEntry: DefaultMergeEntry,
		matchFile:  DefaultMatchFile,
		clock:      clock,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IndexJournal is a journal together with the index it belongs to.
type IndexJournal struct {
	Index     string
	JournalID string
	Journal   *Journal
}

// ReadJournals reads one journal per index. An empty journalID selects the
// latest journal of each index. Indexes whose journal cannot be read are
// skipped; if none can be read the error wraps ErrNoJournal.
func (m *Merger) ReadJournals(indexNames []string, journalID string) ([]*IndexJournal, error) {
	var journals []*IndexJournal
	for _, name := range indexNames {
		id := journalID
		if id == "" {
			ids, err := m.indexes.ListJournals(name)
			if err != nil {
				m.logger.Warn("skipping index, cannot list journals", "index", name, "error", err)
				continue
			}
			if len(ids) == 0 {
				m.logger.Warn("skipping index without journal", "index", name)
				continue
			}
			id = ids[len(ids)-1]
		}

		j, err := m.indexes.ReadJournal(name, id)
		if err != nil {
			m.logger.Warn("skipping unreadable journal", "index", name, "journal", id, "error", err)
			continue
		}
		journals = append(journals, &IndexJournal{Index: name, JournalID: id, Journal: j})
	}

	if len(journals) == 0 {
		return nil, fmt.Errorf("reading journals %q of %s: %w", journalID, strings.Join(indexNames, ","), ErrNoJournal)
	}
	return journals, nil
}

// MergeFromJournal reads the journals of indexNames and merges them together
// with newEntries into the named database. It returns ErrNoChange, without
// writing anything, if there is nothing to add or remove.
func (m *Merger) MergeFromJournal(indexNames []string, journalID, databaseName string, newEntries []*Media) (*Database, *MergeResult, error) {
	journals, err := m.ReadJournals(indexNames, journalID)
	if err != nil {
		return nil, nil, err
	}
	return m.MergeJournals(journals, databaseName, newEntries)
}

// MergeJournals merges already loaded journals into the named database.
func (m *Merger) MergeJournals(journals []*IndexJournal, databaseName string, newEntries []*Media) (*Database, *MergeResult, error) {
	removed := RemovedFiles(journals)
	if len(newEntries) == 0 && len(removed) == 0 {
		return nil, nil, ErrNoChange
	}

	db, err := m.databases.ReadDatabase(databaseName)
	if errors.Is(err, ErrNotFound) {
		m.logger.Info("database not found, starting empty", "database", databaseName)
		db = NewDatabase(m.clock.Now())
	} else if err != nil {
		return nil, nil, fmt.Errorf("reading database: %w", err)
	}

	result := &MergeResult{Journals: len(journals)}
	byID := make(map[string]*Media, len(db.Data))
	for _, e := range db.Data {
		byID[e.ID] = e
	}

	for _, r := range removed {
		entry, ok := byID[r.ID]
		if !ok {
			continue
		}
		files := entry.Files[:0:0]
		for _, f := range entry.Files {
			if m.matchFile(f, r) {
				result.RemovedFiles++
				continue
			}
			files = append(files, f)
		}
		entry.Files = files
		if len(entry.Files) == 0 {
			delete(byID, r.ID)
			result.Deleted++
		}
	}

	for _, e := range newEntries {
		if existing, ok := byID[e.ID]; ok {
			byID[e.ID] = m.mergeEntry(existing, e)
			result.Merged++
			continue
		}
		byID[e.ID] = e
		result.Inserted++
	}

	data := make([]*Media, 0, len(byID))
	for _, e := range byID {
		data = append(data, e)
	}
	SortMedia(data)

	db.Data = data
	db.Created = m.clock.Now()
	result.Total = len(data)

	if err := m.databases.WriteDatabase(databaseName, db); err != nil {
		return nil, nil, fmt.Errorf("writing database: %w", err)
	}

	m.logger.Info("database merged",
		"database", databaseName,
		"inserted", result.Inserted,
		"merged", result.Merged,
		"removedFiles", result.RemovedFiles,
		"deleted", result.Deleted,
		"total", result.Total)
	return db, result, nil
}

// RemovedFiles lists the file references vacated by journals: every remove
// record, and every change whose previous digest differs from the new one.
// Records without a digest never identified content and are skipped.
func RemovedFiles(journals []*IndexJournal) []*RemovedFile {
	var removed []*RemovedFile
	for _, ij := range journals {
		for _, r := range ij.Journal.Removes {
			if r.Sha1sum == "" {
				continue
			}
			removed = append(removed, &RemovedFile{Index: ij.Index, Filename: r.Filename, ID: r.Sha1sum})
		}
		for _, c := range ij.Journal.Changes {
			if c.PrevSha1sum == "" || c.PrevSha1sum == c.Sha1sum {
				continue
			}
			removed = append(removed, &RemovedFile{Index: ij.Index, Filename: c.Filename, ID: c.PrevSha1sum})
		}
	}
	return removed
}

// SortMedia orders records by date descending. Records of the same date are
// ordered by id so that output is stable across runs.
func SortMedia(data []*Media) {
	slices.SortFunc(data, func(a, b *Media) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// DefaultMatchFile matches file references by index and filename.
func DefaultMatchFile(file *MediaFile, removed *RemovedFile) bool {
	return file.Index == removed.Index && file.Filename == removed.Filename
}

// DefaultMergeEntry unions the file references of both records and takes
// every non-empty attribute of incoming.
func DefaultMergeEntry(existing, incoming *Media) *Media {
	merged := *existing
	merged.Files = slices.Clone(existing.Files)
	for _, f := range incoming.Files {
		i := slices.IndexFunc(merged.Files, func(o *MediaFile) bool {
			return o.Index == f.Index && o.Filename == f.Filename
		})
		if i >= 0 {
			merged.Files[i] = f
			continue
		}
		merged.Files = append(merged.Files, f)
	}

	if incoming.Type != "" {
		merged.Type = incoming.Type
	}
	if !incoming.Date.IsZero() {
		merged.Date = incoming.Date
	}
	if len(incoming.Previews) > 0 {
		merged.Previews = incoming.Previews
	}
	if incoming.Width != 0 {
		merged.Width = incoming.Width
	}
	if incoming.Height != 0 {
		merged.Height = incoming.Height
	}
	if incoming.Duration != 0 {
		merged.Duration = incoming.Duration
	}
	if incoming.Orientation != 0 {
		merged.Orientation = incoming.Orientation
	}
	if incoming.Make != "" {
		merged.Make = incoming.Make
	}
	if incoming.Model != "" {
		merged.Model = incoming.Model
	}
	return &merged
}
