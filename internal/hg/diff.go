package hg

import "time"

// DiffResult counts the outcome of comparing a scan against a snapshot.
type DiffResult struct {
	Added     int
	Changed   int
	Removed   int
	Unchanged int
}

// DiffIndex compares a fresh scan of base against the previous snapshot and
// returns the next snapshot together with the journal between both.
//
// An entry whose type, size and modification time match the previous entry
// of the same path is carried forward with its digest and yields no journal
// record. Every other scanned entry becomes a change, with prevSha1sum set to
// the previous digest of that path if there was one. Previous paths missing
// from the scan become removes carrying their last known digest.
//
// prev may be nil for the first scan of an index. Duplicate filenames in the
// scan keep their first occurrence.
func DiffIndex(prev *FileIndex, scan []*IndexEntry, base string, now time.Time) (*FileIndex, *Journal, *DiffResult) {
	previous := make(map[string]*IndexEntry)
	if prev != nil {
		for _, e := range prev.Entries {
			previous[e.Filename] = e
		}
	}

	next := NewFileIndex(base, now)
	journal := NewJournal(now, now)
	result := &DiffResult{}

	seen := make(map[string]bool, len(scan))
	for _, e := range scan {
		if seen[e.Filename] {
			continue
		}
		seen[e.Filename] = true

		old, existed := previous[e.Filename]
		if existed && old.sameStat(e) {
			carried := *old
			if e.Ino != 0 {
				carried.Ino = e.Ino
			}
			next.Entries = append(next.Entries, &carried)
			result.Unchanged++
			continue
		}

		entry := *e
		next.Entries = append(next.Entries, &entry)

		change := &JournalEntry{Filename: e.Filename, Sha1sum: e.Sha1sum}
		if existed {
			if old.Sha1sum != "" && old.Sha1sum != e.Sha1sum {
				change.PrevSha1sum = old.Sha1sum
			}
			result.Changed++
		} else {
			result.Added++
		}
		journal.Changes = append(journal.Changes, change)
	}

	if prev != nil {
		for _, old := range prev.Entries {
			if seen[old.Filename] {
				continue
			}
			// guard against duplicate filenames in an old snapshot
			seen[old.Filename] = true
			journal.Removes = append(journal.Removes, &JournalEntry{Filename: old.Filename, Sha1sum: old.Sha1sum})
			result.Removed++
		}
	}

	return next, journal, result
}
