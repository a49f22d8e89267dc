package config

import (
	"fmt"

	"github.com/JaimeStill/revitview/pkg/envvar"
)

// Job store kinds.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// JobsConfig selects the job record store.
type JobsConfig struct {
	Store string `toml:"store"`
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *JobsConfig) Finalize() error {
	if c.Store == "" {
		c.Store = StoreMemory
	}
	envvar.String(&c.Store, "REVITVIEW_JOBS_STORE")

	switch c.Store {
	case StoreMemory, StorePostgres:
		return nil
	}
	return fmt.Errorf("invalid store %q: must be %s or %s", c.Store, StoreMemory, StorePostgres)
}

// Merge overwrites non-zero fields from overlay.
func (c *JobsConfig) Merge(overlay *JobsConfig) {
	if overlay.Store != "" {
		c.Store = overlay.Store
	}
}
