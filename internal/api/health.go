package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/revitview/internal/jobs"
	"github.com/JaimeStill/revitview/pkg/aps"
	"github.com/JaimeStill/revitview/pkg/handlers"
	"github.com/JaimeStill/revitview/pkg/routes"
)

type services struct {
	APSConnected     bool `json:"aps_connected"`
	BucketAccessible bool `json:"bucket_accessible"`
}

type healthResponse struct {
	Status      string          `json:"status"`
	Viewer      string          `json:"viewer"`
	Version     string          `json:"version"`
	Bucket      string          `json:"bucket"`
	Services    services        `json:"services"`
	Diagnostics aps.Diagnostics `json:"diagnostics"`
}

type healthHandler struct {
	aps     aps.System
	version string
	logger  *slog.Logger
}

func newHealthHandler(provider aps.System, version string, logger *slog.Logger) *healthHandler {
	return &healthHandler{
		aps:     provider,
		version: version,
		logger:  logger.With("handler", "health"),
	}
}

func (h *healthHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/health",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.health},
		},
	}
}

// health always answers 200; provider failures are reported in diagnostics.
func (h *healthHandler) health(w http.ResponseWriter, r *http.Request) {
	report := h.aps.Health(r.Context())

	if !report.Diagnostics.TokenObtained || !report.Diagnostics.BucketAccessible {
		h.logger.Warn("aps diagnostics degraded",
			"token_error", report.Diagnostics.TokenError,
			"bucket_error", report.Diagnostics.BucketError,
		)
	}

	handlers.RespondJSON(w, http.StatusOK, healthResponse{
		Status:  report.Status,
		Viewer:  jobs.ViewerType,
		Version: h.version,
		Bucket:  report.Bucket,
		Services: services{
			APSConnected:     report.Diagnostics.TokenObtained,
			BucketAccessible: report.Diagnostics.BucketAccessible,
		},
		Diagnostics: report.Diagnostics,
	})
}
