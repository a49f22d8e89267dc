// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"
	"os"

	"github.com/JaimeStill/revitview/internal/config"
	"github.com/JaimeStill/revitview/internal/infrastructure"
	"github.com/JaimeStill/revitview/pkg/middleware"
	"github.com/JaimeStill/revitview/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	if err := os.MkdirAll(runtime.Pipeline.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.Recover(runtime.Logger))

	return m, nil
}
