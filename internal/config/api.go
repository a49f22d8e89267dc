package config

import (
	"fmt"

	"github.com/JaimeStill/revitview/pkg/envvar"
	"github.com/JaimeStill/revitview/pkg/formatting"
	"github.com/JaimeStill/revitview/pkg/middleware"
	"github.com/JaimeStill/revitview/pkg/pagination"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "REVITVIEW_CORS_ENABLED",
	Origins:          "REVITVIEW_CORS_ORIGINS",
	AllowedMethods:   "REVITVIEW_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "REVITVIEW_CORS_ALLOWED_HEADERS",
	AllowCredentials: "REVITVIEW_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "REVITVIEW_CORS_MAX_AGE",
}

var paginationEnv = &pagination.Env{
	DefaultPageSize: "REVITVIEW_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "REVITVIEW_PAGINATION_MAX_PAGE_SIZE",
}

// DefaultOrigins are the local viewer dev servers plus any origin.
var DefaultOrigins = []string{"http://localhost:5173", "http://localhost:3000", "*"}

// APIConfig holds API routing, upload limits, CORS, and pagination settings.
type APIConfig struct {
	BasePath      string                `toml:"base_path"`
	MaxUploadSize string                `toml:"max_upload_size"`
	CORS          middleware.CORSConfig `toml:"cors"`
	Pagination    pagination.Config     `toml:"pagination"`
}

// MaxUploadSizeBytes returns the largest accepted upload body.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 2 << 30
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS and pagination configs.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Pagination.Merge(&overlay.Pagination)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "2GB"
	}
	if len(c.CORS.Origins) == 0 {
		c.CORS.Enabled = true
		c.CORS.AllowCredentials = true
		c.CORS.Origins = DefaultOrigins
	}
}

func (c *APIConfig) loadEnv() {
	envvar.String(&c.BasePath, "REVITVIEW_API_BASE_PATH")
	envvar.String(&c.MaxUploadSize, "REVITVIEW_API_MAX_UPLOAD_SIZE")
}

func (c *APIConfig) validate() error {
	if n, err := formatting.ParseBytes(c.MaxUploadSize); err != nil || n <= 0 {
		return fmt.Errorf("invalid max_upload_size: %s", c.MaxUploadSize)
	}
	return nil
}
