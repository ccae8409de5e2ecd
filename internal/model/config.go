package model

import "time"

// Config holds the complete runtime configuration
type Config struct {
	Input       InputConfig       `yaml:"input" mapstructure:"input"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Database    DatabaseConfig    `yaml:"database" mapstructure:"database"`
	Catalog     CatalogConfig     `yaml:"catalog" mapstructure:"catalog"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Logging     LoggingConfig     `yaml:"logging" mapstructure:"logging"`
}

// InputConfig controls how documents are opened
type InputConfig struct {
	// Compression is one of auto, none, gzip, zstd
	Compression string `yaml:"compression" mapstructure:"compression"`
}

// OutputConfig controls the tabular sink
type OutputConfig struct {
	Dir    string `yaml:"dir" mapstructure:"dir"`
	Format string `yaml:"format" mapstructure:"format"` // tsv or xlsx
}

// DatabaseConfig describes the warehouse used for bulk loading and catalog lookups.
// Host is supplied per run (the target identifier).
type DatabaseConfig struct {
	Driver           string  `yaml:"driver" mapstructure:"driver"` // mysql or postgres
	Host             string  `yaml:"-" mapstructure:"host"`
	Port             int     `yaml:"port" mapstructure:"port"`
	User             string  `yaml:"user" mapstructure:"user"`
	Password         string  `yaml:"-" mapstructure:"password"`
	Name             string  `yaml:"name" mapstructure:"name"`
	Schema           string  `yaml:"schema" mapstructure:"schema"`
	BatchSize        int     `yaml:"batch_size" mapstructure:"batch_size"`
	BatchesPerSecond float64 `yaml:"batches_per_second" mapstructure:"batches_per_second"` // 0 = unlimited
}

// CatalogConfig locates the FileMetaData catalog table
type CatalogConfig struct {
	Schema   string        `yaml:"schema" mapstructure:"schema"`
	Table    string        `yaml:"table" mapstructure:"table"`
	CacheTTL time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// ConcurrencyConfig bounds the post-traversal flush
type ConcurrencyConfig struct {
	FlushWorkers int `yaml:"flush_workers" mapstructure:"flush_workers"`
}

// LoggingConfig controls the logrus logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Compression: "auto",
		},
		Output: OutputConfig{
			Dir:    ".",
			Format: "tsv",
		},
		Database: DatabaseConfig{
			Driver:    "mysql",
			Port:      3306,
			Name:      "ETF_DL_REFINED",
			Schema:    "ias_recon",
			BatchSize: 1000,
		},
		Catalog: CatalogConfig{
			Schema:   "ias_conv",
			Table:    "FileMetaData",
			CacheTTL: 10 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			FlushWorkers: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
