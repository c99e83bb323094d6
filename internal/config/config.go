// Package config holds the ddrlens configuration: where the export comes
// from, where the tables go, and how the service logs and listens.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/ddrlens/internal/errs"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DDRLENS_"

// SourceType selects where the schema export is read from.
type SourceType string

const (
	SourceFile  SourceType = "file"
	SourceMinIO SourceType = "minio"
)

// ExportFormat selects the destination of the sixteen tables.
type ExportFormat string

const (
	FormatCSV      ExportFormat = "csv"
	FormatPostgres ExportFormat = "postgres"
	FormatMySQL    ExportFormat = "mysql"
	FormatSQLite   ExportFormat = "sqlite"
)

// Config is the full ddrlens configuration.
type Config struct {
	Log    LogConfig    `json:"log" yaml:"log"`
	Source SourceConfig `json:"source" yaml:"source"`
	MinIO  MinIOConfig  `json:"minio" yaml:"minio"`
	Export ExportConfig `json:"export" yaml:"export"`
	Server ServerConfig `json:"server" yaml:"server"`
}

// LogConfig mirrors logger.Config minus the writer.
type LogConfig struct {
	Level      string `json:"level" yaml:"level"`
	Format     string `json:"format" yaml:"format"`
	TimeFormat string `json:"time_format" yaml:"time_format"`
}

// SourceConfig locates the schema export.
type SourceConfig struct {
	// Type is file or minio
	Type SourceType `json:"type" yaml:"type"`

	// Path is the local export file (for file type)
	Path string `json:"path" yaml:"path"`

	// Bucket and Key locate the export object (for minio type).
	// An empty Bucket falls back to minio.bucket.
	Bucket string `json:"bucket" yaml:"bucket"`
	Key    string `json:"key" yaml:"key"`
}

// MinIOConfig holds object store credentials.
type MinIOConfig struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	AccessKey string `json:"access_key" yaml:"access_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl"`
	Region    string `json:"region" yaml:"region"`

	// Bucket is the default bucket for exports and sources
	Bucket string `json:"bucket" yaml:"bucket"`
}

// ExportConfig describes where tables are written.
type ExportConfig struct {
	// Format is csv, postgres, mysql or sqlite
	Format ExportFormat `json:"format" yaml:"format"`

	// Dir is the local CSV output directory. When empty and MinIO is
	// configured, CSV files are published to minio.bucket instead.
	Dir string `json:"dir" yaml:"dir"`

	// Prefix is prepended to every published object key
	Prefix string `json:"prefix" yaml:"prefix"`

	// DSN is the connection string (postgres, mysql) or database file (sqlite)
	DSN string `json:"dsn" yaml:"dsn"`

	// Schema is the postgres schema or a table name prefix elsewhere
	Schema string `json:"schema" yaml:"schema"`

	// BatchSize bounds the rows per INSERT statement
	BatchSize int `json:"batch_size" yaml:"batch_size"`
}

// ServerConfig holds the HTTP read API settings.
type ServerConfig struct {
	Addr         string        `json:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

// DefaultConfig returns settings for a local run against a file.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			TimeFormat: "rfc3339",
		},
		Source: SourceConfig{
			Type: SourceFile,
		},
		Export: ExportConfig{
			Format:    FormatCSV,
			Dir:       "ddr_tables",
			BatchSize: 500,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file on top of
// DefaultConfig.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.ErrKindNotFound, "config file not found", err)
		}
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to read config file", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to parse YAML config", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errs.Wrap(errs.ErrKindInvalidInput, "failed to parse JSON config", err)
		}
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv applies DDRLENS_* environment overrides to cfg. Unparseable
// numbers and durations are ignored.
func LoadFromEnv(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(EnvPrefix + name); v != "" {
			*dst = v
		}
	}

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("LOG_TIME_FORMAT", &cfg.Log.TimeFormat)

	if v := os.Getenv(EnvPrefix + "SOURCE_TYPE"); v != "" {
		cfg.Source.Type = SourceType(v)
	}
	str("SOURCE_PATH", &cfg.Source.Path)
	str("SOURCE_BUCKET", &cfg.Source.Bucket)
	str("SOURCE_KEY", &cfg.Source.Key)

	str("MINIO_ENDPOINT", &cfg.MinIO.Endpoint)
	str("MINIO_ACCESS_KEY", &cfg.MinIO.AccessKey)
	str("MINIO_SECRET_KEY", &cfg.MinIO.SecretKey)
	str("MINIO_REGION", &cfg.MinIO.Region)
	str("MINIO_BUCKET", &cfg.MinIO.Bucket)
	if v := os.Getenv(EnvPrefix + "MINIO_USE_SSL"); v != "" {
		cfg.MinIO.UseSSL = v == "true" || v == "1"
	}

	if v := os.Getenv(EnvPrefix + "EXPORT_FORMAT"); v != "" {
		cfg.Export.Format = ExportFormat(v)
	}
	str("EXPORT_DIR", &cfg.Export.Dir)
	str("EXPORT_PREFIX", &cfg.Export.Prefix)
	str("EXPORT_DSN", &cfg.Export.DSN)
	str("EXPORT_SCHEMA", &cfg.Export.Schema)
	if v := os.Getenv(EnvPrefix + "EXPORT_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Export.BatchSize = n
		}
	}

	str("SERVER_ADDR", &cfg.Server.Addr)
	if v := os.Getenv(EnvPrefix + "SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv(EnvPrefix + "SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
}

// MinIOConfigured reports whether object store credentials are present.
func (c *Config) MinIOConfigured() bool {
	return c.MinIO.Endpoint != ""
}

// SourceBucket is the bucket holding the export object.
func (c *Config) SourceBucket() string {
	if c.Source.Bucket != "" {
		return c.Source.Bucket
	}
	return c.MinIO.Bucket
}

// Validate checks the configuration for the operations that need it.
// Source settings are only checked when a source is set.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "invalid log level: %s (must be debug, info, warn or error)", c.Log.Level)
	}

	switch c.Source.Type {
	case SourceFile:
	case SourceMinIO:
		if !c.MinIOConfigured() {
			return errs.New(errs.ErrKindInvalidInput, "minio.endpoint is required when source type is minio")
		}
		if c.Source.Key != "" && c.SourceBucket() == "" {
			return errs.New(errs.ErrKindInvalidInput, "source.bucket or minio.bucket is required when source type is minio")
		}
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "invalid source type: %s (must be file or minio)", c.Source.Type)
	}

	switch c.Export.Format {
	case FormatCSV:
		if c.Export.Dir == "" && (!c.MinIOConfigured() || c.MinIO.Bucket == "") {
			return errs.New(errs.ErrKindInvalidInput, "export.dir or minio.bucket is required for csv export")
		}
	case FormatPostgres, FormatMySQL, FormatSQLite:
		if c.Export.DSN == "" {
			return errs.Newf(errs.ErrKindInvalidInput, "export.dsn is required for %s export", c.Export.Format)
		}
	default:
		return errs.Newf(errs.ErrKindInvalidInput, "invalid export format: %s (must be csv, postgres, mysql or sqlite)", c.Export.Format)
	}

	if c.Export.BatchSize < 1 {
		return errs.Newf(errs.ErrKindInvalidInput, "export.batch_size must be positive, got %d", c.Export.BatchSize)
	}

	if c.Server.Addr == "" {
		return errs.New(errs.ErrKindInvalidInput, "server.addr is required")
	}

	return nil
}
