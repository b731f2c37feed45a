package hg

import (
	"path"
	"strings"
	"time"
)

// Envelope types and the format version written for each of them.
const (
	TypeFileIndex = "fileindex"
	TypeJournal   = "fileindex-journal"
	TypeDatabase  = "database"
	TypeCatalog   = "catalog"

	FormatVersion = 1
)

// FileType is the kind of filesystem entry recorded in an index.
type FileType string

const (
	FileTypeFile    FileType = "f"
	FileTypeDir     FileType = "d"
	FileTypeSymlink FileType = "l"
)

// IndexEntry is a single filesystem entry of an index. Filename is relative
// to the index base and unique within one index.
type IndexEntry struct {
	Filename    string     `json:"filename"`
	FileType    FileType   `json:"fileType"`
	Size        int64      `json:"size"`
	Ino         uint64     `json:"ino,omitempty"`
	Modified    time.Time  `json:"modified"`
	Sha1sum     string     `json:"sha1sum,omitempty"`
	Sha1sumDate *time.Time `json:"sha1sumDate,omitempty"`
}

// IsFile returns true for regular files.
func (e *IndexEntry) IsFile() bool { return e.FileType == FileTypeFile }

// sameStat reports whether two entries describe the same unchanged file.
func (e *IndexEntry) sameStat(o *IndexEntry) bool {
	return e.FileType == o.FileType && e.Size == o.Size && e.Modified.Equal(o.Modified)
}

// FileIndex is a snapshot of one directory tree.
type FileIndex struct {
	Type    string        `json:"type"`
	Version int           `json:"version"`
	Created time.Time     `json:"created"`
	Base    string        `json:"base"`
	Entries []*IndexEntry `json:"entries"`
}

// NewFileIndex returns an empty snapshot for base.
func NewFileIndex(base string, created time.Time) *FileIndex {
	return &FileIndex{
		Type:    TypeFileIndex,
		Version: FormatVersion,
		Created: created,
		Base:    base,
		Entries: []*IndexEntry{},
	}
}

// JournalEntry is either a change or a remove record. PrevSha1sum is only
// set on changes whose path was previously known with another digest.
type JournalEntry struct {
	Filename    string `json:"filename"`
	Sha1sum     string `json:"sha1sum,omitempty"`
	PrevSha1sum string `json:"prevSha1sum,omitempty"`
}

// Journal is the difference between two successive snapshots of an index.
// Index holds the creation time of the snapshot it was written with.
type Journal struct {
	Type    string          `json:"type"`
	Version int             `json:"version"`
	Created time.Time       `json:"created"`
	Index   time.Time       `json:"index"`
	Changes []*JournalEntry `json:"changes"`
	Removes []*JournalEntry `json:"removes"`
}

// NewJournal returns an empty journal paired with the snapshot created at index.
func NewJournal(created, index time.Time) *Journal {
	return &Journal{
		Type:    TypeJournal,
		Version: FormatVersion,
		Created: created,
		Index:   index,
		Changes: []*JournalEntry{},
		Removes: []*JournalEntry{},
	}
}

// IsEmpty returns true if the journal records no changes and no removes.
func (j *Journal) IsEmpty() bool {
	return len(j.Changes) == 0 && len(j.Removes) == 0
}

// MediaType is the detected type of a catalog file.
type MediaType string

const (
	MediaTypeImage    MediaType = "image"
	MediaTypeRawImage MediaType = "rawImage"
	MediaTypeVideo    MediaType = "video"
	MediaTypeMeta     MediaType = "meta"
	MediaTypeUnknown  MediaType = "unknown"
)

// IsPrimary returns true for types that become catalog entries on their own.
func (t MediaType) IsPrimary() bool {
	return t == MediaTypeImage || t == MediaTypeRawImage || t == MediaTypeVideo
}

// MediaFile is a reference from a media record to a file of an index.
type MediaFile struct {
	Index    string    `json:"index"`
	Filename string    `json:"filename"`
	Type     MediaType `json:"type"`
	Size     int64     `json:"size"`
	Sha1sum  string    `json:"sha1sum"`
}

// Media is a catalog and database record. ID is the content digest of the
// primary file.
type Media struct {
	ID          string       `json:"id"`
	Type        MediaType    `json:"type"`
	Date        time.Time    `json:"date"`
	Files       []*MediaFile `json:"files"`
	Previews    []string     `json:"previews,omitempty"`
	Width       int          `json:"width,omitempty"`
	Height      int          `json:"height,omitempty"`
	Duration    float64      `json:"duration,omitempty"`
	Orientation int          `json:"orientation,omitempty"`
	Make        string       `json:"make,omitempty"`
	Model       string       `json:"model,omitempty"`
}

// Database is the canonical store of content identities, sorted by date
// descending.
type Database struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Created time.Time `json:"created"`
	Data    []*Media  `json:"data"`
}

// NewDatabase returns an empty database.
func NewDatabase(created time.Time) *Database {
	return &Database{Type: TypeDatabase, Version: FormatVersion, Created: created, Data: []*Media{}}
}

// Catalog is the rebuildable projection of index snapshots into media
// records, sorted by date descending.
type Catalog struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Created time.Time `json:"created"`
	Data    []*Media  `json:"data"`
}

// NewCatalog wraps data in a catalog envelope.
func NewCatalog(created time.Time, data []*Media) *Catalog {
	if data == nil {
		data = []*Media{}
	}
	return &Catalog{Type: TypeCatalog, Version: FormatVersion, Created: created, Data: data}
}

// CatalogEntry is an index entry projected for the catalog pipeline.
type CatalogEntry struct {
	Index    string    `json:"index"`
	Filename string    `json:"filename"`
	Sha1sum  string    `json:"sha1sum"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	Type     MediaType `json:"type"`
}

// Dir returns the parent directory of the entry within its index.
func (e *CatalogEntry) Dir() string {
	return path.Dir(e.Filename)
}

// Less orders entries by index, then parent directory, then file name, so
// the direct children of a directory are adjacent even when a subdirectory
// name sorts between them.
func (e *CatalogEntry) Less(o *CatalogEntry) bool {
	if e.Index != o.Index {
		return e.Index < o.Index
	}
	if d, od := e.Dir(), o.Dir(); d != od {
		return d < od
	}
	return path.Base(e.Filename) < path.Base(o.Filename)
}

// MediaFile converts the entry into a file reference.
func (e *CatalogEntry) MediaFile() *MediaFile {
	return &MediaFile{Index: e.Index, Filename: e.Filename, Type: e.Type, Size: e.Size, Sha1sum: e.Sha1sum}
}

// CatalogItem is a primary media file with its associated sidecars and the
// storage-side files found for its digest.
type CatalogItem struct {
	Primary      *CatalogEntry
	Sidecars     []*CatalogEntry
	StorageFiles []string
}

// PreviewFiles returns the storage files holding previews.
func (i *CatalogItem) PreviewFiles() []string {
	var previews []string
	for _, f := range i.StorageFiles {
		if strings.Contains(path.Base(f), "-preview-") {
			previews = append(previews, f)
		}
	}
	return previews
}

// MediaAttributes is what a MetadataExtractor knows about a media file.
// Zero values mean unknown.
type MediaAttributes struct {
	Date        time.Time
	Width       int
	Height      int
	Duration    float64
	Orientation int
	Make        string
	Model       string
}

// StoragePath returns the sharded storage location of a digest-keyed file,
// e.g. "ab/cd/ef01...-image-preview-320.jpg".
func StoragePath(sha1sum, suffix string) string {
	if len(sha1sum) < 5 {
		return sha1sum + "-" + suffix
	}
	return sha1sum[0:2] + "/" + sha1sum[2:4] + "/" + sha1sum[4:] + "-" + suffix
}

// StorageDir returns the shard directory of a digest, e.g. "ab/cd/".
func StorageDir(sha1sum string) string {
	if len(sha1sum) < 5 {
		return ""
	}
	return sha1sum[0:2] + "/" + sha1sum[2:4] + "/"
}
