package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/JaimeStill/revitview/pkg/envvar"
)

// DefaultExtensions lists the model file types accepted for translation.
var DefaultExtensions = []string{".rvt", ".rfa", ".ifc", ".dwg"}

// Config controls where uploads are staged and how long each stage may take.
type Config struct {
	UploadDir          string   `toml:"upload_dir"`
	PropagationDelay   string   `toml:"propagation_delay"`
	TranslationTimeout string   `toml:"translation_timeout"`
	Extensions         []string `toml:"extensions"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	UploadDir          string
	PropagationDelay   string
	TranslationTimeout string
}

// PropagationDelayDuration returns the wait between upload completion and translation submission.
func (c *Config) PropagationDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.PropagationDelay)
	return d
}

// TranslationTimeoutDuration returns the translation wait budget.
func (c *Config) TranslationTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.TranslationTimeout)
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
	if overlay.UploadDir != "" {
		c.UploadDir = overlay.UploadDir
	}
	if overlay.PropagationDelay != "" {
		c.PropagationDelay = overlay.PropagationDelay
	}
	if overlay.TranslationTimeout != "" {
		c.TranslationTimeout = overlay.TranslationTimeout
	}
	if overlay.Extensions != nil {
		c.Extensions = overlay.Extensions
	}
}

func (c *Config) loadDefaults() {
	if c.UploadDir == "" {
		c.UploadDir = "uploads"
	}
	if c.PropagationDelay == "" {
		c.PropagationDelay = "20s"
	}
	if c.TranslationTimeout == "" {
		c.TranslationTimeout = "5m"
	}
	if len(c.Extensions) == 0 {
		c.Extensions = slices.Clone(DefaultExtensions)
	}
}

func (c *Config) loadEnv(env *Env) {
	envvar.String(&c.UploadDir, env.UploadDir)
	envvar.String(&c.PropagationDelay, env.PropagationDelay)
	envvar.String(&c.TranslationTimeout, env.TranslationTimeout)
}

func (c *Config) validate() error {
	if d, err := time.ParseDuration(c.PropagationDelay); err != nil || d < 0 {
		return fmt.Errorf("invalid propagation_delay: %s", c.PropagationDelay)
	}
	if d, err := time.ParseDuration(c.TranslationTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid translation_timeout: %s", c.TranslationTimeout)
	}
	for i, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("invalid extension %q: must start with '.'", ext)
		}
		c.Extensions[i] = strings.ToLower(ext)
	}
	return nil
}
