package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for hg.
type Config struct {
	HostID     string           `toml:"host_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Storage    StorageConfig    `toml:"storage"`
	Indexes    []IndexConfig    `toml:"indexes"`
	Database   DatabaseConfig   `toml:"database"`
	Catalog    CatalogConfig    `toml:"catalog"`
	Encryption EncryptionConfig `toml:"encryption"`
	History    HistoryConfig    `toml:"history"`
	Metrics    MetricsConfig    `toml:"metrics"`
	Preview    PreviewConfig    `toml:"preview"`
}

// StorageConfig represents configuration for the storage backend holding
// indexes, journals, the database, the catalog and previews.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StorageConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`          // for S3-compatible services
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`     // static credentials, default chain if empty
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"` // static credentials, default chain if empty
}

// IndexConfig describes one indexed directory tree.
type IndexConfig struct {
	Name             string   `toml:"name"`
	Base             string   `toml:"base"`
	Exclude          []string `toml:"exclude,omitempty"`
	ExcludeFromFile  string   `toml:"exclude_from_file,omitempty"`
	ExcludeIfPresent []string `toml:"exclude_if_present,omitempty"`
	Checksum         bool     `toml:"checksum"` // compute missing digests on every update
}

// DatabaseConfig names the canonical database in storage.
type DatabaseConfig struct {
	Name string `toml:"name"`
}

// CatalogConfig controls catalog builds.
type CatalogConfig struct {
	Name    string   `toml:"name"`
	Exclude []string `toml:"exclude,omitempty"`
	Workers int      `toml:"workers"` // parallel directory reads, 0 = derived from GOMAXPROCS
	Buffer  int      `toml:"buffer"`  // capacity of the channels between pipeline stages
}

// EncryptionConfig holds paths to the age key pair used to seal stored files.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default), "age" or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// HistoryConfig represents configuration for the run history database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type HistoryConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `toml:"textfile,omitempty"` // disabled if empty
}

// PreviewConfig controls preview generation.
type PreviewConfig struct {
	Sizes   []int `toml:"sizes"`
	Quality int   `toml:"quality"`
}

// NewConfig creates a new Config with the provided values and defaults below baseDir.
func NewConfig(hostID, baseDir string) *Config {
	return &Config{
		HostID:  hostID,
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Storage: StorageConfig{
			Type:   "filesystem",
			FSRoot: filepath.Join(baseDir, "storage"),
		},
		Database: DatabaseConfig{Name: "database"},
		Catalog:  CatalogConfig{Name: "catalog", Buffer: 64},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "hg.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "hg.key"),
		},
		History: HistoryConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "history"),
		},
		Preview: PreviewConfig{Sizes: []int{1280, 320}, Quality: 80},
	}
}

// Index returns the configuration of the named index.
func (c *Config) Index(name string) (*IndexConfig, error) {
	for i := range c.Indexes {
		if c.Indexes[i].Name == name {
			return &c.Indexes[i], nil
		}
	}
	return nil, fmt.Errorf("unknown index: %s", name)
}

// IndexNames returns the names of all configured indexes in config order.
func (c *Config) IndexNames() []string {
	names := make([]string, len(c.Indexes))
	for i, idx := range c.Indexes {
		names[i] = idx.Name
	}
	return names
}

// Validate checks the index definitions.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for _, idx := range c.Indexes {
		if idx.Name == "" {
			return fmt.Errorf("index without name")
		}
		if strings.ContainsAny(idx.Name, "/\\:") || strings.Contains(idx.Name, ".idx") {
			return fmt.Errorf("invalid index name: %q", idx.Name)
		}
		if seen[idx.Name] {
			return fmt.Errorf("duplicate index name: %s", idx.Name)
		}
		seen[idx.Name] = true
		if !filepath.IsAbs(idx.Base) {
			return fmt.Errorf("index %s: base must be an absolute path, got %q", idx.Name, idx.Base)
		}
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// WriteToFile writes a Config to the specified file path, replacing it.
func WriteToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := WriteToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
