// Package pipeline drives one uploaded model through provider upload,
// translation, and completion, recording each stage on the job record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/revitview/internal/jobs"
)

// Stage messages recorded on the job as the pipeline advances.
const (
	MessageUploading   = "Uploading file to APS..."
	MessageTranslating = "Translating model to SVF format..."
	MessageCompleted   = "SVF model ready for viewing"
)

// Request identifies the staged file to process and the job that tracks it.
type Request struct {
	JobID    uuid.UUID
	FilePath string
	Filename string
}

// Execute uploads, translates, and awaits the model in req, recording stage
// transitions on rt.Jobs. Any failure is recorded on the job as failed and
// returned. The staged file is removed once the model is ready.
func Execute(ctx context.Context, rt *Runtime, req Request) error {
	logger := rt.Logger.With("job_id", req.JobID, "filename", req.Filename)
	start := time.Now()

	urn, err := run(ctx, rt, logger, req)
	if err != nil {
		logger.ErrorContext(ctx, "pipeline failed", "error", err, "elapsed", time.Since(start))

		msg := err.Error()
		record(context.WithoutCancel(ctx), rt, logger, req.JobID,
			jobs.Stage(jobs.StatusFailed, 0, msg).WithError(msg))
		return err
	}

	if err := os.Remove(req.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.WarnContext(ctx, "staged file cleanup failed", "path", req.FilePath, "error", err)
	}

	logger.InfoContext(ctx, "pipeline completed", "urn", urn, "elapsed", time.Since(start))
	return nil
}

func run(ctx context.Context, rt *Runtime, logger *slog.Logger, req Request) (string, error) {
	record(ctx, rt, logger, req.JobID, jobs.Stage(jobs.StatusUploading, 10, MessageUploading))

	obj, err := rt.APS.Upload(ctx, req.FilePath, ObjectKey(req.JobID, req.Filename))
	if err != nil {
		return "", err
	}

	record(ctx, rt, logger, req.JobID, jobs.Update{}.WithURN(obj.URN))
	record(ctx, rt, logger, req.JobID, jobs.Stage(jobs.StatusTranslating, 50, MessageTranslating))

	if err := wait(ctx, rt.PropagationDelay); err != nil {
		return "", err
	}

	if err := rt.APS.Translate(ctx, obj.URN); err != nil {
		return "", err
	}

	if _, err := rt.APS.Await(ctx, obj.URN, rt.TranslationTimeout); err != nil {
		return "", err
	}

	record(ctx, rt, logger, req.JobID, jobs.Stage(jobs.StatusCompleted, 100, MessageCompleted))
	return obj.URN, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting for storage propagation: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func record(ctx context.Context, rt *Runtime, logger *slog.Logger, id uuid.UUID, u jobs.Update) {
	if err := rt.Jobs.Record(ctx, id, u); err != nil {
		logger.WarnContext(ctx, "job record update failed", "error", err)
	}
}
