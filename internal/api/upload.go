package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/JaimeStill/revitview/internal/jobs"
	"github.com/JaimeStill/revitview/internal/pipeline"
	"github.com/JaimeStill/revitview/pkg/aps"
	"github.com/JaimeStill/revitview/pkg/formatting"
	"github.com/JaimeStill/revitview/pkg/handlers"
	"github.com/JaimeStill/revitview/pkg/lifecycle"
	"github.com/JaimeStill/revitview/pkg/routes"
)

// multipart parts beyond this are spooled to disk by the form parser.
const formMemory = 32 << 20

var (
	errFileTooLarge = errors.New("file exceeds maximum upload size")
	errEmptyFile    = fmt.Errorf("%w: file is empty", aps.ErrValidation)
)

type uploadResponse struct {
	JobID    uuid.UUID `json:"job_id"`
	Filename string    `json:"filename"`
	Status   string    `json:"status"`
	Message  string    `json:"message"`
}

type uploadHandler struct {
	jobs          jobs.System
	pipeline      *pipeline.Runtime
	lifecycle     *lifecycle.Coordinator
	logger        *slog.Logger
	uploadDir     string
	extensions    []string
	maxUploadSize int64
}

func newUploadHandler(runtime *Runtime, domain *Domain) *uploadHandler {
	return &uploadHandler{
		jobs:          domain.Jobs,
		pipeline:      domain.Pipeline,
		lifecycle:     runtime.Lifecycle,
		logger:        runtime.Logger.With("handler", "upload"),
		uploadDir:     runtime.Pipeline.UploadDir,
		extensions:    runtime.Pipeline.Extensions,
		maxUploadSize: runtime.MaxUploadSize,
	}
}

func (h *uploadHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/upload",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.upload},
		},
	}
}

func (h *uploadHandler) upload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadSize {
		handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, errFileTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, errFileTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: %v", aps.ErrValidation, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, fmt.Errorf("%w: no file provided", aps.ErrValidation))
		return
	}
	defer file.Close()

	if err := pipeline.ValidateFilename(header.Filename, h.extensions); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	id := uuid.New()
	path := pipeline.UploadPath(h.uploadDir, id, header.Filename)

	size, err := save(path, file)
	if err != nil {
		os.Remove(path)
		status := http.StatusInternalServerError
		if errors.Is(err, aps.ErrValidation) {
			status = http.StatusBadRequest
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	job, err := h.jobs.Create(r.Context(), jobs.CreateCommand{ID: id, Filename: header.Filename})
	if err != nil {
		os.Remove(path)
		handlers.RespondError(w, h.logger, jobs.MapHTTPStatus(err), err)
		return
	}

	h.logger.Info("upload staged",
		"job_id", job.ID,
		"filename", job.Filename,
		"size", formatting.FormatBytes(size, 1),
	)

	req := pipeline.Request{JobID: job.ID, FilePath: path, Filename: job.Filename}
	h.lifecycle.Go(func(ctx context.Context) {
		pipeline.Execute(ctx, h.pipeline, req)
	})

	handlers.RespondJSON(w, http.StatusOK, uploadResponse{
		JobID:    job.ID,
		Filename: job.Filename,
		Status:   "uploaded",
		Message:  "File uploaded successfully, processing started",
	})
}

func save(path string, src io.Reader) (int64, error) {
	dst, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create staged file: %w", err)
	}

	n, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("write staged file: %w", err)
	}
	if n == 0 {
		return 0, errEmptyFile
	}
	return n, nil
}
