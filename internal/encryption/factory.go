package encryption

import (
	"fmt"

	"hg-go/internal/config"
	"hg-go/internal/hg"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// It returns nil for type "none": files are then stored unencrypted.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (hg.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		if cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "" {
			return nil, fmt.Errorf("age encryption requires public_key_path and private_key_path")
		}
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
