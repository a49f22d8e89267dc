package api

import (
	"github.com/JaimeStill/revitview/internal/config"
	"github.com/JaimeStill/revitview/internal/infrastructure"
	"github.com/JaimeStill/revitview/internal/pipeline"
	"github.com/JaimeStill/revitview/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination    pagination.Config
	Pipeline      pipeline.Config
	JobStore      string
	MaxUploadSize int64
	Version       string
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			APS:       infra.APS,
			Database:  infra.Database,
		},
		Pagination:    cfg.API.Pagination,
		Pipeline:      cfg.Pipeline,
		JobStore:      cfg.Jobs.Store,
		MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
		Version:       cfg.Version,
	}
}
