package main

import (
	"net/http"

	"github.com/JaimeStill/revitview/internal/api"
	"github.com/JaimeStill/revitview/internal/config"
	"github.com/JaimeStill/revitview/internal/infrastructure"
	"github.com/JaimeStill/revitview/pkg/handlers"
	"github.com/JaimeStill/revitview/pkg/module"
)

// Modules holds the prefixed modules mounted on the root router.
type Modules struct {
	API *module.Module
}

// NewModules builds every module from the shared infrastructure.
func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	return &Modules{API: apiModule}, nil
}

// Mount registers every module on router.
func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

type serviceInfo struct {
	Message  string   `json:"message"`
	Status   string   `json:"status"`
	Viewer   string   `json:"viewer"`
	Version  string   `json:"version"`
	Features []string `json:"features"`
}

func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config) *module.Router {
	router := module.NewRouter()

	info := serviceInfo{
		Message: "Revit Viewer API",
		Status:  "running",
		Viewer:  "APS Viewer only",
		Version: cfg.Version,
		Features: []string{
			"Multipart upload to APS",
			"SVF translation",
			"APS Viewer integration",
		},
	}

	router.HandleNative("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, info)
	})

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !ready(infra) {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, map[string]any{
			"status":       "ready",
			"active_tasks": infra.Lifecycle.Active(),
		})
	})

	return router
}

func ready(infra *infrastructure.Infrastructure) bool {
	if !infra.Lifecycle.Ready() {
		return false
	}
	return infra.Database == nil || infra.Database.Ready()
}
