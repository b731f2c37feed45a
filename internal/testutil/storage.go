package testutil

import (
	"testing"

	"hg-go/internal/envelope"
	"hg-go/internal/hg"
	"hg-go/internal/storage"
	"hg-go/internal/store"
)

// NewTestStore creates a store over fresh in-memory storage. With a non-nil
// encryptor every file is sealed and the store is unlocked with the
// encryptor's empty passphrase session.
func NewTestStore(t *testing.T, encryptor hg.Encryptor) (*store.Store, *storage.MemoryStorage) {
	t.Helper()

	mem := storage.NewMemoryStorage()
	codec := envelope.NewCodec(encryptor)
	if encryptor != nil {
		dc, err := encryptor.Unlock("")
		if err != nil {
			t.Fatalf("Unlock() error = %v", err)
		}
		codec.SetDecryptionContext(dc)
	}
	return store.New(mem, codec), mem
}
