package aps

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/JaimeStill/revitview/pkg/envvar"
	"github.com/JaimeStill/revitview/pkg/formatting"
)

const (
	DefaultBaseURL   = "https://developer.api.autodesk.com"
	DefaultBucketKey = "enhanced-revit-viewer-v3"
	// DefaultScope covers bucket management, object data, and viewable reads.
	DefaultScope = "bucket:create bucket:read bucket:update bucket:delete data:read data:write data:create data:search viewables:read"
	// DefaultOutputFormat is the derivative format requested from translation.
	DefaultOutputFormat = "svf"
)

var bucketKeyPattern = regexp.MustCompile(`^[-_.a-z0-9]{3,128}$`)

// Config holds provider credentials, endpoints, and transfer tuning.
type Config struct {
	BaseURL           string   `toml:"base_url"`
	ClientID          string   `toml:"client_id"`
	ClientSecret      string   `toml:"client_secret"`
	BucketKey         string   `toml:"bucket_key"`
	Scope             string   `toml:"scope"`
	OutputFormat      string   `toml:"output_format"`
	Views             []string `toml:"views"`
	SinglePartLimit   string   `toml:"single_part_limit"`
	PartSize          string   `toml:"part_size"`
	UploadConcurrency int      `toml:"upload_concurrency"`
	VerifyAttempts    int      `toml:"verify_attempts"`
	VerifyInterval    string   `toml:"verify_interval"`
	PollInterval      string   `toml:"poll_interval"`
	RequestTimeout    string   `toml:"request_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	BaseURL           string
	ClientID          string
	ClientSecret      string
	BucketKey         string
	Scope             string
	OutputFormat      string
	UploadConcurrency string
	PollInterval      string
}

// SinglePartLimitBytes returns the largest file size uploaded as a single part.
func (c *Config) SinglePartLimitBytes() int64 {
	n, err := formatting.ParseBytes(c.SinglePartLimit)
	if err != nil {
		return DefaultSinglePartLimit
	}
	return n
}

// PartSizeBytes returns the target part size for multipart uploads.
func (c *Config) PartSizeBytes() int64 {
	n, err := formatting.ParseBytes(c.PartSize)
	if err != nil || n <= 0 {
		return DefaultPartSize
	}
	return n
}

// VerifyIntervalDuration returns VerifyInterval as a time.Duration.
func (c *Config) VerifyIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.VerifyInterval)
	return d
}

// PollIntervalDuration returns PollInterval as a time.Duration.
func (c *Config) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
	return d
}

// RequestTimeoutDuration returns RequestTimeout as a time.Duration.
func (c *Config) RequestTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.RequestTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.ClientSecret != "" {
		c.ClientSecret = overlay.ClientSecret
	}
	if overlay.BucketKey != "" {
		c.BucketKey = overlay.BucketKey
	}
	if overlay.Scope != "" {
		c.Scope = overlay.Scope
	}
	if overlay.OutputFormat != "" {
		c.OutputFormat = overlay.OutputFormat
	}
	if overlay.Views != nil {
		c.Views = overlay.Views
	}
	if overlay.SinglePartLimit != "" {
		c.SinglePartLimit = overlay.SinglePartLimit
	}
	if overlay.PartSize != "" {
		c.PartSize = overlay.PartSize
	}
	if overlay.UploadConcurrency != 0 {
		c.UploadConcurrency = overlay.UploadConcurrency
	}
	if overlay.VerifyAttempts != 0 {
		c.VerifyAttempts = overlay.VerifyAttempts
	}
	if overlay.VerifyInterval != "" {
		c.VerifyInterval = overlay.VerifyInterval
	}
	if overlay.PollInterval != "" {
		c.PollInterval = overlay.PollInterval
	}
	if overlay.RequestTimeout != "" {
		c.RequestTimeout = overlay.RequestTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.BucketKey == "" {
		c.BucketKey = DefaultBucketKey
	}
	if c.Scope == "" {
		c.Scope = DefaultScope
	}
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutputFormat
	}
	if len(c.Views) == 0 {
		c.Views = []string{"2d", "3d"}
	}
	if c.SinglePartLimit == "" {
		c.SinglePartLimit = "100MB"
	}
	if c.PartSize == "" {
		c.PartSize = "10MB"
	}
	if c.UploadConcurrency <= 0 {
		c.UploadConcurrency = 1
	}
	if c.VerifyAttempts <= 0 {
		c.VerifyAttempts = 5
	}
	if c.VerifyInterval == "" {
		c.VerifyInterval = "3s"
	}
	if c.PollInterval == "" {
		c.PollInterval = "5s"
	}
	if c.RequestTimeout == "" {
		c.RequestTimeout = "10m"
	}
}

func (c *Config) loadEnv(env *Env) {
	envvar.String(&c.BaseURL, env.BaseURL)
	envvar.String(&c.ClientID, env.ClientID)
	envvar.String(&c.ClientSecret, env.ClientSecret)
	envvar.String(&c.BucketKey, env.BucketKey)
	envvar.String(&c.Scope, env.Scope)
	envvar.String(&c.OutputFormat, env.OutputFormat)
	envvar.Int(&c.UploadConcurrency, env.UploadConcurrency)
	envvar.String(&c.PollInterval, env.PollInterval)
}

func (c *Config) validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("client_id and client_secret required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("invalid base_url: %s", c.BaseURL)
	}
	if c.UploadConcurrency < 1 {
		return fmt.Errorf("invalid upload_concurrency: %d", c.UploadConcurrency)
	}
	if !bucketKeyPattern.MatchString(c.BucketKey) {
		return fmt.Errorf("invalid bucket_key: %s", c.BucketKey)
	}
	if _, err := formatting.ParseBytes(c.SinglePartLimit); err != nil {
		return fmt.Errorf("invalid single_part_limit: %w", err)
	}
	if n, err := formatting.ParseBytes(c.PartSize); err != nil || n <= 0 {
		return fmt.Errorf("invalid part_size: %s", c.PartSize)
	}
	if _, err := time.ParseDuration(c.VerifyInterval); err != nil {
		return fmt.Errorf("invalid verify_interval: %w", err)
	}
	if d, err := time.ParseDuration(c.PollInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid poll_interval: %s", c.PollInterval)
	}
	if _, err := time.ParseDuration(c.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request_timeout: %w", err)
	}
	return nil
}
