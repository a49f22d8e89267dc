package jobs

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/revitview/pkg/handlers"
	"github.com/JaimeStill/revitview/pkg/pagination"
	"github.com/JaimeStill/revitview/pkg/routes"
)

// ViewerType names the client viewer completed models are rendered with.
const ViewerType = "APS Viewer"

// Model is the client-facing summary of a job.
type Model struct {
	ID         uuid.UUID `json:"job_id"`
	Filename   string    `json:"filename"`
	URN        string    `json:"urn"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	ViewerType string    `json:"viewer_type"`
}

// ModelOf summarizes j for clients.
func ModelOf(j *Job) Model {
	m := Model{
		ID:         j.ID,
		Filename:   j.Filename,
		Status:     j.Status,
		CreatedAt:  j.CreatedAt,
		ViewerType: ViewerType,
	}
	if j.URN != nil {
		m.URN = *j.URN
	}
	return m
}

// Handler provides HTTP endpoints for job status and model records.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "jobs"),
		pagination: pagination,
	}
}

// Routes returns the route groups for job endpoints.
func (h *Handler) Routes() []routes.Group {
	return []routes.Group{
		{
			Prefix: "/status",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/{id}", Handler: h.Status},
			},
		},
		{
			Prefix: "/models",
			Routes: []routes.Route{
				{Method: "GET", Pattern: "", Handler: h.Models},
				{Method: "GET", Pattern: "/{id}/info", Handler: h.Info},
				{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete},
			},
		},
	}
}

// Status returns the job record for the id path parameter.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	job, ok := h.find(w, r)
	if !ok {
		return
	}
	handlers.RespondJSON(w, http.StatusOK, job)
}

// Models returns a page of completed models.
func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromQuery(r.URL.Query(), h.pagination)

	completed := StatusCompleted
	result, err := h.sys.List(r.Context(), page, Filters{Status: &completed})
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	models := make([]Model, len(result.Data))
	for i := range result.Data {
		models[i] = ModelOf(&result.Data[i])
	}

	handlers.RespondJSON(w, http.StatusOK, &pagination.PageResult[Model]{
		Data:       models,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

// Info returns the model summary for the id path parameter.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	job, ok := h.find(w, r)
	if !ok {
		return
	}
	handlers.RespondJSON(w, http.StatusOK, ModelOf(job))
}

// Delete removes the job record for the id path parameter.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) find(w http.ResponseWriter, r *http.Request) (*Job, bool) {
	id, err := ParseID(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return nil, false
	}

	job, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return nil, false
	}
	return job, true
}

// ParseID parses a job id path parameter.
func ParseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}
