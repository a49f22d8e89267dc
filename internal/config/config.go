package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/revitview/internal/pipeline"
	"github.com/JaimeStill/revitview/pkg/aps"
	"github.com/JaimeStill/revitview/pkg/database"
	"github.com/JaimeStill/revitview/pkg/envvar"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvRevitviewEnv             = "REVITVIEW_ENV"
	EnvRevitviewShutdownTimeout = "REVITVIEW_SHUTDOWN_TIMEOUT"
	EnvRevitviewVersion         = "REVITVIEW_VERSION"
	EnvRevitviewLogLevel        = "REVITVIEW_LOG_LEVEL"
)

// DatabaseEnv names the variables that override the database section.
var DatabaseEnv = &database.Env{
	Host:            "REVITVIEW_DB_HOST",
	Port:            "REVITVIEW_DB_PORT",
	Name:            "REVITVIEW_DB_NAME",
	User:            "REVITVIEW_DB_USER",
	Password:        "REVITVIEW_DB_PASSWORD",
	SSLMode:         "REVITVIEW_DB_SSL_MODE",
	MaxOpenConns:    "REVITVIEW_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "REVITVIEW_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "REVITVIEW_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "REVITVIEW_DB_CONN_TIMEOUT",
}

// The credential variables keep the names used by existing .env files.
var apsEnv = &aps.Env{
	BaseURL:           "APS_BASE_URL",
	ClientID:          "APS_CLIENT_ID",
	ClientSecret:      "APS_CLIENT_SECRET",
	BucketKey:         "APS_BUCKET_KEY",
	Scope:             "REVITVIEW_APS_SCOPE",
	OutputFormat:      "REVITVIEW_APS_OUTPUT_FORMAT",
	UploadConcurrency: "REVITVIEW_APS_UPLOAD_CONCURRENCY",
	PollInterval:      "REVITVIEW_APS_POLL_INTERVAL",
}

var pipelineEnv = &pipeline.Env{
	UploadDir:          "REVITVIEW_UPLOAD_DIR",
	PropagationDelay:   "REVITVIEW_PROPAGATION_DELAY",
	TranslationTimeout: "REVITVIEW_TRANSLATION_TIMEOUT",
}

// Config is the root configuration for the revitview service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	API             APIConfig       `toml:"api"`
	APS             aps.Config      `toml:"aps"`
	Pipeline        pipeline.Config `toml:"pipeline"`
	Jobs            JobsConfig      `toml:"jobs"`
	Database        database.Config `toml:"database"`
	LogLevel        string          `toml:"log_level"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the REVITVIEW_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvRevitviewEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Level returns LogLevel as a slog.Level.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.APS.Merge(&overlay.APS)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Jobs.Merge(&overlay.Jobs)
	c.Database.Merge(&overlay.Database)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.APS.Finalize(apsEnv); err != nil {
		return fmt.Errorf("aps: %w", err)
	}
	if err := c.Pipeline.Finalize(pipelineEnv); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Jobs.Finalize(); err != nil {
		return fmt.Errorf("jobs: %w", err)
	}
	if err := c.Database.Finalize(DatabaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "1.0.0"
	}
}

func (c *Config) loadEnv() {
	envvar.String(&c.LogLevel, EnvRevitviewLogLevel)
	envvar.String(&c.ShutdownTimeout, EnvRevitviewShutdownTimeout)
	envvar.String(&c.Version, EnvRevitviewVersion)
}

func (c *Config) validate() error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level: %s", c.LogLevel)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvRevitviewEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
