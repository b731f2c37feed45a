package fs

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"

	"hg-go/internal/hg"
)

// SHA1Hasher produces the lowercase hex SHA-1 digests stored in sha1sum fields.
type SHA1Hasher struct{}

var _ hg.Hasher = SHA1Hasher{}

func (SHA1Hasher) Hash(r io.Reader) (string, error) {
	h := sha1.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("reading content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
