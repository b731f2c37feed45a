package hg

import (
	"context"
	"fmt"
	"time"
)

// ChecksumResult reports what AnnotateChecksums did.
type ChecksumResult struct {
	Computed int
	Failed   int
}

// Changed returns true if the snapshot gained digests and must be persisted.
func (r *ChecksumResult) Changed() bool {
	return r.Computed > 0
}

// AnnotateChecksums computes the digest of every regular file in index that
// has none yet, stamping it with asOf. The journal, if given, is updated in
// place: the change record of a hashed file receives the new digest, and its
// prevSha1sum is dropped when the content turned out to be the same. Files
// without a change record get one appended, as their content identity is new.
//
// Files that cannot be read are logged and left without digest so that the
// next run retries them.
func AnnotateChecksums(ctx context.Context, index *FileIndex, journal *Journal, tree FileTree, hasher Hasher, asOf time.Time, logger Logger) (*ChecksumResult, error) {
	changes := make(map[string]*JournalEntry)
	if journal != nil {
		for _, c := range journal.Changes {
			changes[c.Filename] = c
		}
	}

	result := &ChecksumResult{}
	for _, e := range index.Entries {
		if !e.IsFile() || e.Sha1sum != "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		digest, err := hashFile(tree, hasher, e.Filename)
		if err != nil {
			logger.Warn("skipping checksum", "file", e.Filename, "error", err)
			result.Failed++
			continue
		}

		date := asOf
		e.Sha1sum = digest
		e.Sha1sumDate = &date
		result.Computed++

		if journal == nil {
			continue
		}
		if c, ok := changes[e.Filename]; ok {
			c.Sha1sum = digest
			if c.PrevSha1sum == digest {
				c.PrevSha1sum = ""
			}
			continue
		}
		c := &JournalEntry{Filename: e.Filename, Sha1sum: digest}
		journal.Changes = append(journal.Changes, c)
		changes[e.Filename] = c
	}

	return result, nil
}

func hashFile(tree FileTree, hasher Hasher, filename string) (string, error) {
	f, err := tree.Open(filename)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	digest, err := hasher.Hash(f)
	if err != nil {
		return "", fmt.Errorf("hashing file: %w", err)
	}
	return digest, nil
}
