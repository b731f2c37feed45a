// Package store persists indexes, journals, the database and the catalog as
// envelopes in an hg.Storage.
package store

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"hg-go/internal/envelope"
	"hg-go/internal/hg"
)

const (
	indexSuffix   = ".idx"
	journalSuffix = ".journal"
	dbSuffix      = ".db"
)

// Store implements hg.IndexStore and hg.DatabaseStore.
type Store struct {
	storage hg.Storage
	codec   *envelope.Codec
}

var (
	_ hg.IndexStore    = (*Store)(nil)
	_ hg.DatabaseStore = (*Store)(nil)
)

// New creates a Store writing through codec into storage.
func New(storage hg.Storage, codec *envelope.Codec) *Store {
	return &Store{storage: storage, codec: codec}
}

// IndexName returns the storage name of an index snapshot.
func IndexName(name string) string {
	return name + indexSuffix
}

// JournalName returns the storage name of a journal of an index.
func JournalName(name, journalID string) string {
	return IndexName(name) + "." + journalID + journalSuffix
}

// DatabaseName returns the storage name of the database or catalog file.
func DatabaseName(name string) string {
	return name + dbSuffix
}

func (s *Store) ReadIndex(name string) (*hg.FileIndex, error) {
	var idx hg.FileIndex
	if err := s.read(IndexName(name), hg.TypeFileIndex, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

func (s *Store) WriteIndex(name string, index *hg.FileIndex) error {
	return s.write(IndexName(name), index)
}

func (s *Store) ReadJournal(name, journalID string) (*hg.Journal, error) {
	var j hg.Journal
	if err := s.read(JournalName(name, journalID), hg.TypeJournal, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *Store) WriteJournal(name, journalID string, journal *hg.Journal) error {
	if journalID == "" {
		return fmt.Errorf("writing journal of %s: empty journal id", name)
	}
	return s.write(JournalName(name, journalID), journal)
}

// ListJournals returns the journal ids of an index. Ids are UTC timestamps,
// so lexical order is chronological.
func (s *Store) ListJournals(name string) ([]string, error) {
	prefix := IndexName(name) + "."
	names, err := s.storage.List(prefix)
	if err != nil {
		return nil, fmt.Errorf("listing journals of %s: %w", name, err)
	}

	var ids []string
	for _, n := range names {
		id := strings.TrimPrefix(n, prefix)
		if !strings.HasSuffix(id, journalSuffix) {
			continue
		}
		id = strings.TrimSuffix(id, journalSuffix)
		if id == "" || strings.Contains(id, "/") {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) ReadDatabase(name string) (*hg.Database, error) {
	var db hg.Database
	if err := s.read(DatabaseName(name), hg.TypeDatabase, &db); err != nil {
		return nil, err
	}
	if db.Data == nil {
		db.Data = []*hg.Media{}
	}
	return &db, nil
}

func (s *Store) WriteDatabase(name string, db *hg.Database) error {
	return s.write(DatabaseName(name), db)
}

func (s *Store) ReadCatalog(name string) (*hg.Catalog, error) {
	var c hg.Catalog
	if err := s.read(DatabaseName(name), hg.TypeCatalog, &c); err != nil {
		return nil, err
	}
	if c.Data == nil {
		c.Data = []*hg.Media{}
	}
	return &c, nil
}

func (s *Store) WriteCatalog(name string, catalog *hg.Catalog) error {
	return s.write(DatabaseName(name), catalog)
}

func (s *Store) read(name, wantType string, v any) error {
	var buf bytes.Buffer
	if err := s.storage.Get(name, &buf); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := s.codec.Decode(buf.Bytes(), wantType, v); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

func (s *Store) write(name string, v any) error {
	data, err := s.codec.Encode(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := s.storage.Put(name, bytes.NewReader(data), int64(len(data))); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
