package pipeline

import (
	"log/slog"
	"time"

	"github.com/JaimeStill/revitview/internal/jobs"
	"github.com/JaimeStill/revitview/pkg/aps"
)

// Runtime bundles the dependencies a pipeline execution requires.
// It is constructed by higher-level composition code from Infrastructure and Domain systems.
type Runtime struct {
	APS                aps.System
	Jobs               jobs.Sink
	Logger             *slog.Logger
	PropagationDelay   time.Duration
	TranslationTimeout time.Duration
}

// NewRuntime builds a Runtime from cfg.
func NewRuntime(cfg *Config, provider aps.System, sink jobs.Sink, logger *slog.Logger) *Runtime {
	return &Runtime{
		APS:                provider,
		Jobs:               sink,
		Logger:             logger.With("system", "pipeline"),
		PropagationDelay:   cfg.PropagationDelayDuration(),
		TranslationTimeout: cfg.TranslationTimeoutDuration(),
	}
}
