// Package config loads the server configuration from an optional YAML file
// with ARCHIVE_SEARCH_* environment-variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/gcbaptista/go-archive-search/internal/persistence"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ARCHIVE_SEARCH_"

// Config is the top-level configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Index   IndexConfig   `yaml:"index"`
	Search  SearchConfig  `yaml:"search"`
	Jobs    JobsConfig    `yaml:"jobs"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	MaxUploadBytes  int64         `yaml:"maxUploadBytes"`
	MaxBodyBytes    int64         `yaml:"maxBodyBytes"`
	DashboardDir    string        `yaml:"dashboardDir"` // Served under /dashboard when set
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
}

// IndexConfig locates the persisted index and the rebuild inputs.
type IndexConfig struct {
	Path        string `yaml:"path"`        // Blob loaded at startup
	Compression string `yaml:"compression"` // "zstd" or "none"
	RecordsPath string `yaml:"recordsPath"` // Default records file for /admin/rebuild
	OutputPath  string `yaml:"outputPath"`  // Default destination for rebuilt blobs; empty keeps them in memory only
	RebuildDir  string `yaml:"rebuildDir"`  // Paths sent to /admin/rebuild are confined here; empty allows only the defaults
}

// SearchConfig controls query defaults.
type SearchConfig struct {
	DefaultMaxLength int `yaml:"defaultMaxLength"` // Applied when a request has no max_length; 0 means unbounded
}

// JobsConfig controls background rebuilds.
type JobsConfig struct {
	Workers   int           `yaml:"workers"`
	Retention time.Duration `yaml:"retention"`
}

// CacheConfig controls the optional Redis query cache.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads a YAML config file (if path is not empty), applies environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path comes from the command line
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			DashboardDir:    "static",
			MaxUploadBytes:  256 << 20,
			MaxBodyBytes:    1 << 20,
			AllowedOrigins:  []string{"*"},
		},
		Index: IndexConfig{
			Path:        "data/index.bin",
			Compression: string(persistence.CompressionZstd),
		},
		Jobs: JobsConfig{
			Workers:   1,
			Retention: 24 * time.Hour,
		},
		Cache: CacheConfig{
			Addr: "localhost:6379",
			TTL:  5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		err = multierror.Append(err, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.MaxUploadBytes <= 0 {
		err = multierror.Append(err, errors.New("server.maxUploadBytes must be positive"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		err = multierror.Append(err, errors.New("server.maxBodyBytes must be positive"))
	}
	if c.Index.Path == "" {
		err = multierror.Append(err, errors.New("index.path has not been specified"))
	}
	if _, cerr := persistence.ParseCompression(c.Index.Compression); cerr != nil {
		err = multierror.Append(err, cerr)
	}
	if c.Search.DefaultMaxLength < 0 {
		err = multierror.Append(err, errors.New("search.defaultMaxLength must not be negative"))
	}
	if c.Jobs.Workers < 1 {
		err = multierror.Append(err, errors.New("jobs.workers must be at least 1"))
	}
	if c.Cache.Enabled && c.Cache.Addr == "" {
		err = multierror.Append(err, errors.New("cache.addr is required when the cache is enabled"))
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		err = multierror.Append(err, errors.New("cache.ttl must be positive"))
	}
	if c.Metrics.Enabled && (c.Metrics.Path == "" || c.Metrics.Path[0] != '/') {
		err = multierror.Append(err, fmt.Errorf("metrics.path %q must start with /", c.Metrics.Path))
	}
	return err
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}

type lookupFunc func(key string) (string, bool)

// applyEnvOverrides copies ARCHIVE_SEARCH_* variables over the loaded values.
// Malformed numbers, durations and booleans are reported together.
func applyEnvOverrides(cfg *Config, lookup lookupFunc) error {
	var err error
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		return v, ok && v != ""
	}
	setInt := func(name string, dst *int) {
		if v, ok := get(name); ok {
			n, perr := strconv.Atoi(v)
			if perr != nil {
				err = multierror.Append(err, fmt.Errorf("%s%s: %w", EnvPrefix, name, perr))
				return
			}
			*dst = n
		}
	}
	setInt64 := func(name string, dst *int64) {
		if v, ok := get(name); ok {
			n, perr := strconv.ParseInt(v, 10, 64)
			if perr != nil {
				err = multierror.Append(err, fmt.Errorf("%s%s: %w", EnvPrefix, name, perr))
				return
			}
			*dst = n
		}
	}
	setDuration := func(name string, dst *time.Duration) {
		if v, ok := get(name); ok {
			d, perr := time.ParseDuration(v)
			if perr != nil {
				err = multierror.Append(err, fmt.Errorf("%s%s: %w", EnvPrefix, name, perr))
				return
			}
			*dst = d
		}
	}
	setBool := func(name string, dst *bool) {
		if v, ok := get(name); ok {
			b, perr := strconv.ParseBool(v)
			if perr != nil {
				err = multierror.Append(err, fmt.Errorf("%s%s: %w", EnvPrefix, name, perr))
				return
			}
			*dst = b
		}
	}
	setString := func(name string, dst *string) {
		if v, ok := get(name); ok {
			*dst = v
		}
	}

	setInt("SERVER_PORT", &cfg.Server.Port)
	setDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	setDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	setDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	setInt64("SERVER_MAX_UPLOAD_BYTES", &cfg.Server.MaxUploadBytes)
	setInt64("SERVER_MAX_BODY_BYTES", &cfg.Server.MaxBodyBytes)
	setString("SERVER_DASHBOARD_DIR", &cfg.Server.DashboardDir)
	setString("INDEX_PATH", &cfg.Index.Path)
	setString("INDEX_COMPRESSION", &cfg.Index.Compression)
	setString("INDEX_RECORDS_PATH", &cfg.Index.RecordsPath)
	setString("INDEX_OUTPUT_PATH", &cfg.Index.OutputPath)
	setString("INDEX_REBUILD_DIR", &cfg.Index.RebuildDir)
	setInt("SEARCH_DEFAULT_MAX_LENGTH", &cfg.Search.DefaultMaxLength)
	setInt("JOBS_WORKERS", &cfg.Jobs.Workers)
	setDuration("JOBS_RETENTION", &cfg.Jobs.Retention)
	setBool("CACHE_ENABLED", &cfg.Cache.Enabled)
	setString("CACHE_ADDR", &cfg.Cache.Addr)
	setString("CACHE_PASSWORD", &cfg.Cache.Password)
	setInt("CACHE_DB", &cfg.Cache.DB)
	setDuration("CACHE_TTL", &cfg.Cache.TTL)
	setString("LOGGING_LEVEL", &cfg.Logging.Level)
	setString("LOGGING_FORMAT", &cfg.Logging.Format)
	setBool("METRICS_ENABLED", &cfg.Metrics.Enabled)
	setString("METRICS_PATH", &cfg.Metrics.Path)
	return err
}
