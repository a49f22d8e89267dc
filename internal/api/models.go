package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/revitview/internal/jobs"
	"github.com/JaimeStill/revitview/pkg/aps"
	"github.com/JaimeStill/revitview/pkg/handlers"
	"github.com/JaimeStill/revitview/pkg/routes"
)

type viewerToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type modelsHandler struct {
	aps    aps.System
	jobs   jobs.System
	logger *slog.Logger
}

func newModelsHandler(provider aps.System, jobsSystem jobs.System, logger *slog.Logger) *modelsHandler {
	return &modelsHandler{
		aps:    provider,
		jobs:   jobsSystem,
		logger: logger.With("handler", "models"),
	}
}

func (h *modelsHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/models/{id}",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/viewer-token", Handler: h.viewerToken},
			{Method: "GET", Pattern: "/svf-url", Handler: h.svfURL},
			{Method: "GET", Pattern: "/verify-svf", Handler: h.verifySVF},
		},
	}
}

func (h *modelsHandler) viewerToken(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.completed(w, r); !ok {
		return
	}

	cred, err := h.aps.Token(r.Context())
	if err != nil {
		handlers.RespondError(w, h.logger, aps.MapHTTPStatus(err), err)
		return
	}

	tokenType := cred.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}

	handlers.RespondJSON(w, http.StatusOK, viewerToken{
		AccessToken: cred.AccessToken,
		TokenType:   tokenType,
		ExpiresIn:   cred.ExpiresIn(time.Now()),
	})
}

func (h *modelsHandler) svfURL(w http.ResponseWriter, r *http.Request) {
	urn, ok := h.completed(w, r)
	if !ok {
		return
	}

	res, err := h.aps.Resolve(r.Context(), urn)
	if err != nil {
		handlers.RespondError(w, h.logger, aps.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, res)
}

func (h *modelsHandler) verifySVF(w http.ResponseWriter, r *http.Request) {
	urn, ok := h.completed(w, r)
	if !ok {
		return
	}

	v, err := h.aps.Verify(r.Context(), urn)
	if err != nil {
		handlers.RespondError(w, h.logger, aps.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, v)
}

// completed returns the URN of a completed job or writes the error response.
func (h *modelsHandler) completed(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := jobs.ParseID(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return "", false
	}

	job, err := h.jobs.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, jobs.MapHTTPStatus(err), err)
		return "", false
	}

	if job.Status != jobs.StatusCompleted {
		err := fmt.Errorf("%w: status %s", jobs.ErrNotCompleted, job.Status)
		handlers.RespondError(w, h.logger, jobs.MapHTTPStatus(err), err)
		return "", false
	}

	if job.URN == nil || *job.URN == "" {
		err := fmt.Errorf("%w: no urn recorded", jobs.ErrNotCompleted)
		handlers.RespondError(w, h.logger, jobs.MapHTTPStatus(err), err)
		return "", false
	}

	return *job.URN, true
}
