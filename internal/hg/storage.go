package hg

import "io"

// Storage is the durable backend for snapshots, journals, the database, the
// catalog and digest-keyed extra files such as previews. Names use '/' as
// separator regardless of the backend.
type Storage interface {
	// Put stores r under name, replacing any previous content atomically.
	// size is the number of bytes that will be read from r.
	Put(name string, r io.Reader, size int64) error

	// Get writes the content stored under name to w.
	// Returns an error wrapping ErrNotFound if name does not exist.
	Get(name string, w io.Writer) error

	// Exists reports whether name is stored.
	Exists(name string) (bool, error)

	// List returns all names starting with prefix, sorted.
	List(prefix string) ([]string, error)

	// ValidateSetup verifies that the backend is accessible.
	ValidateSetup() error
}

// IndexStore reads and writes index snapshots and their journals.
type IndexStore interface {
	// ReadIndex returns an error wrapping ErrNotFound if the index was never written.
	ReadIndex(name string) (*FileIndex, error)
	WriteIndex(name string, index *FileIndex) error

	ReadJournal(name, journalID string) (*Journal, error)
	WriteJournal(name, journalID string, journal *Journal) error

	// ListJournals returns the journal ids of an index, oldest first.
	ListJournals(name string) ([]string, error)
}

// DatabaseStore reads and writes the database and the catalog.
type DatabaseStore interface {
	// ReadDatabase returns an error wrapping ErrNotFound if no database exists.
	ReadDatabase(name string) (*Database, error)
	WriteDatabase(name string, db *Database) error

	ReadCatalog(name string) (*Catalog, error)
	WriteCatalog(name string, catalog *Catalog) error
}
