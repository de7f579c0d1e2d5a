// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by the catalog client.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with catalog requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds the retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// CatalogConfig points the search models at the REST annotation catalog.
type CatalogConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// BaseURL is the catalog API root (e.g. "https://genome.crg.es/annotrieve/api/v0").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
}

// SearchConfig holds the federated search bar settings.
type SearchConfig struct {
	// Debounce is the quiet period after the last keystroke before a
	// query is dispatched (default 300ms).
	Debounce time.Duration `json:"debounce" yaml:"debounce" mapstructure:"debounce"`

	// Per-model result caps. Zero disables the model.
	OrganismLimit int `json:"organism_limit" yaml:"organism_limit" mapstructure:"organism_limit"`
	TaxonLimit    int `json:"taxon_limit" yaml:"taxon_limit" mapstructure:"taxon_limit"`
	AssemblyLimit int `json:"assembly_limit" yaml:"assembly_limit" mapstructure:"assembly_limit"`
}

// StorageBackend selects the durable key-value backend.
type StorageBackend string

const (
	StorageSQLite StorageBackend = "sqlite"
	StorageRedis  StorageBackend = "redis"
	StorageMemory StorageBackend = "memory"
)

// StorageConfig holds settings for the durable key-value store that backs
// the history stores and the layout.
type StorageConfig struct {
	Backend StorageBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Path is the SQLite database file (sqlite backend).
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// RedisAddrs lists the Redis endpoints (redis backend).
	RedisAddrs    []string `json:"redis_addrs" yaml:"redis_addrs" mapstructure:"redis_addrs"`
	RedisPassword string   `json:"redis_password,omitempty" yaml:"redis_password,omitempty" mapstructure:"redis_password"`

	// KeyPrefix namespaces every persisted key.
	KeyPrefix string `json:"key_prefix" yaml:"key_prefix" mapstructure:"key_prefix"`
}

// LoggingConfig selects the logger flavour (prod, dev) and level
// (debug, info, warn, error).
type LoggingConfig struct {
	Env   string `json:"env" yaml:"env" mapstructure:"env"`
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// ServerConfig holds settings for the serve command.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// Config groups every section of the annotation browser configuration.
type Config struct {
	Catalog CatalogConfig `json:"catalog" yaml:"catalog" mapstructure:"catalog"`
	Search  SearchConfig  `json:"search" yaml:"search" mapstructure:"search"`
	Storage StorageConfig `json:"storage" yaml:"storage" mapstructure:"storage"`
	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
}

// DefaultConfig returns the configuration used when no file or
// environment overrides are present.
func DefaultConfig() Config {
	return Config{
		Catalog: CatalogConfig{
			HTTPConfig: HTTPConfig{
				Timeout:    15 * time.Second,
				UserAgent:  "annotation-browser/0.1",
				MaxRetries: 5,
			},
			BaseURL: "https://genome.crg.es/annotrieve/api/v0",
		},
		Search: SearchConfig{
			Debounce:      300 * time.Millisecond,
			OrganismLimit: 5,
			TaxonLimit:    5,
			AssemblyLimit: 5,
		},
		Storage: StorageConfig{
			Backend:   StorageSQLite,
			Path:      "annotation-browser.db",
			KeyPrefix: "annotation-browser:",
		},
		Logging: LoggingConfig{
			Env:   "dev",
			Level: "warn",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
