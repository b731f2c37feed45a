// Package envelope encodes the persisted hg files: gzip compressed JSON
// objects carrying a "type" and "version" header, optionally sealed with an
// hg.Encryptor.
package envelope

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"hg-go/internal/hg"
)

var (
	// ErrUnknownType is returned when a file holds another envelope type than requested.
	ErrUnknownType = errors.New("unknown envelope type")

	// ErrUnsupportedVersion is returned for envelope versions newer or older than FormatVersion.
	ErrUnsupportedVersion = errors.New("unsupported envelope version")

	// ErrLocked is returned when an encrypted file is read without a decryption context.
	ErrLocked = errors.New("encrypted data requires an unlocked key")
)

var gzipMagic = []byte{0x1f, 0x8b}

// Header is the common part of every envelope.
type Header struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
}

// Codec encodes and decodes envelopes. The zero value writes and reads plain
// gzip JSON.
type Codec struct {
	encryptor hg.Encryptor
	decrypter hg.DecryptionContext
}

// NewCodec returns a codec that seals written data with encryptor, if not nil.
func NewCodec(encryptor hg.Encryptor) *Codec {
	return &Codec{encryptor: encryptor}
}

// SetDecryptionContext enables reading encrypted envelopes.
func (c *Codec) SetDecryptionContext(dc hg.DecryptionContext) {
	c.decrypter = dc
}

// Encrypted reports whether written data is sealed.
func (c *Codec) Encrypted() bool {
	return c.encryptor != nil
}

// Encode serializes v, which must carry the envelope header fields.
func (c *Codec) Encode(v any) ([]byte, error) {
	var plain bytes.Buffer
	gz, err := gzip.NewWriterLevel(&plain, gzip.BestSpeed)
	if err != nil {
		return nil, fmt.Errorf("creating gzip writer: %w", err)
	}
	if err := json.NewEncoder(gz).Encode(v); err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("compressing: %w", err)
	}

	if c.encryptor == nil {
		return plain.Bytes(), nil
	}

	var sealed bytes.Buffer
	if err := c.encryptor.Encrypt(&plain, &sealed); err != nil {
		return nil, fmt.Errorf("encrypting: %w", err)
	}
	return sealed.Bytes(), nil
}

// Decode deserializes data into v after checking that the envelope has type
// wantType and version FormatVersion. Plain data is always readable; sealed
// data needs a decryption context.
func (c *Codec) Decode(data []byte, wantType string, v any) error {
	if !bytes.HasPrefix(data, gzipMagic) {
		if c.decrypter == nil {
			return ErrLocked
		}
		var plain bytes.Buffer
		if err := c.decrypter.Decrypt(bytes.NewReader(data), &plain); err != nil {
			return fmt.Errorf("decrypting: %w", err)
		}
		data = plain.Bytes()
	}

	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("opening gzip stream: %w", err)
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return fmt.Errorf("decompressing: %w", err)
	}

	var h Header
	if err := json.Unmarshal(raw, &h); err != nil {
		return fmt.Errorf("decoding header: %w", err)
	}
	if err := h.Check(wantType); err != nil {
		return err
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s: %w", wantType, err)
	}
	return nil
}

// Check verifies type and version.
func (h Header) Check(wantType string) error {
	if h.Type != wantType {
		return fmt.Errorf("%w: got %q, want %q", ErrUnknownType, h.Type, wantType)
	}
	if h.Version != hg.FormatVersion {
		return fmt.Errorf("%w: %s version %d", ErrUnsupportedVersion, h.Type, h.Version)
	}
	return nil
}
