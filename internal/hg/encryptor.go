package hg

import "io"

// Encryptor seals persisted files. Encryption uses the public key only, so
// snapshots and journals can be written without a passphrase. Reading them
// back needs a DecryptionContext from Unlock.
type Encryptor interface {
	// Setup generates a key pair, stores the public key in plaintext and
	// encrypts the private key with the passphrase. Called by `hg config init`.
	Setup(passphrase string) error

	// Encrypt reads plaintext from r and writes ciphertext to w.
	Encrypt(r io.Reader, w io.Writer) error

	// Unlock decrypts the private key and returns a DecryptionContext for the
	// session. Returns an error if the passphrase is incorrect.
	Unlock(passphrase string) (DecryptionContext, error)

	// IsConfigured returns true if both key files exist.
	IsConfigured() bool
}

// DecryptionContext holds an unlocked private key in memory.
type DecryptionContext interface {
	Decrypt(r io.Reader, w io.Writer) error
}
