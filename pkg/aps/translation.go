package aps

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	jobPath = "/modelderivative/v2/designdata/job"
	// DefaultTranslationTimeout bounds Await when no timeout is given.
	DefaultTranslationTimeout = 5 * time.Minute
)

// Status is the remote state of a translation job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "inprogress"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusTimeout    Status = "timeout"
)

// Terminal reports whether no further remote progress is expected.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusTimeout:
		return true
	}
	return false
}

// JobStatus is a snapshot of a translation job observed from its manifest.
type JobStatus struct {
	URN      string    `json:"urn"`
	Status   Status    `json:"status"`
	Progress string    `json:"progress"`
	Messages []Message `json:"messages,omitempty"`
	Manifest *Manifest `json:"-"`
}

type jobRequest struct {
	Input  jobInput  `json:"input"`
	Output jobOutput `json:"output"`
}

type jobInput struct {
	URN string `json:"urn"`
}

type jobOutput struct {
	Formats []jobFormat `json:"formats"`
}

type jobFormat struct {
	Type  string   `json:"type"`
	Views []string `json:"views"`
}

var errRunning = errors.New("translation still running")

// Translator submits translation jobs and follows them to a terminal state.
type Translator struct {
	client *client
	format string
	views  []string
	poll   time.Duration
	logger *slog.Logger
}

func newTranslator(cfg *Config, c *client, logger *slog.Logger) *Translator {
	return &Translator{
		client: c,
		format: cfg.OutputFormat,
		views:  cfg.Views,
		poll:   cfg.PollIntervalDuration(),
		logger: logger,
	}
}

// Submit requests translation of urn into the configured format and views.
// A conflict response means a job already exists and is treated as success.
func (t *Translator) Submit(ctx context.Context, urn string) error {
	if _, _, err := DecodeURN(urn); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	req := jobRequest{
		Input: jobInput{URN: urn},
		Output: jobOutput{
			Formats: []jobFormat{{Type: t.format, Views: t.views}},
		},
	}

	status, data, err := t.client.call(ctx, http.MethodPost, jobPath, req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTranslation, err)
	}

	switch {
	case success(status):
		t.logger.InfoContext(ctx, "translation submitted", "urn", urn)
	case status == http.StatusConflict:
		t.logger.InfoContext(ctx, "translation already submitted", "urn", urn)
	default:
		return fmt.Errorf("%w: %w", ErrTranslation, newResponseError(http.MethodPost, jobPath, status, data))
	}

	return nil
}

// Status fetches the manifest for urn and summarizes it.
// A failed remote status is returned as a value, not an error.
func (t *Translator) Status(ctx context.Context, urn string) (*JobStatus, error) {
	m, err := t.manifest(ctx, urn)
	if err != nil {
		return nil, err
	}

	js := &JobStatus{
		URN:      urn,
		Status:   Status(strings.ToLower(m.Status)),
		Progress: m.Progress,
		Messages: m.Diagnostics(),
		Manifest: m,
	}

	if js.Status == "" {
		js.Status = StatusPending
	}
	if js.Progress == "" {
		js.Progress = "0%"
	}

	if js.Status == StatusFailed {
		t.diagnose(ctx, urn, js.Messages)
	}

	return js, nil
}

// Await polls Status at the configured interval until the job succeeds,
// fails, or timeout elapses. Transient poll errors are logged and retried.
// Authentication failures and caller cancellation end the wait immediately.
func (t *Translator) Await(ctx context.Context, urn string, timeout time.Duration) (*JobStatus, error) {
	if timeout <= 0 {
		timeout = DefaultTranslationTimeout
	}

	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var last *JobStatus
	backoff := retry.WithMaxDuration(timeout, constant(t.poll))

	err := retry.Do(wctx, backoff, func(ctx context.Context) error {
		js, err := t.Status(ctx, urn)
		if err != nil {
			if errors.Is(err, ErrAuth) {
				return err
			}
			t.logger.WarnContext(ctx, "translation poll failed", "urn", urn, "error", err)
			return retry.RetryableError(err)
		}

		last = js

		if js.Status.Terminal() {
			if js.Status == StatusSuccess {
				return nil
			}
			return &FailedError{URN: urn, Messages: js.Messages}
		}

		t.logger.DebugContext(ctx, "translation in progress",
			"urn", urn,
			"status", js.Status,
			"progress", js.Progress,
		)
		return retry.RetryableError(errRunning)
	})

	if err == nil {
		t.logger.InfoContext(ctx, "translation complete", "urn", urn)
		return last, nil
	}

	if ctx.Err() != nil {
		return last, ctx.Err()
	}

	var failed *FailedError
	if errors.As(err, &failed) || errors.Is(err, ErrAuth) {
		return last, err
	}

	state := "unknown"
	if last != nil {
		state = fmt.Sprintf("%s %s", last.Status, last.Progress)
	}
	return last, fmt.Errorf("%w after %s (last status: %s)", ErrTimeout, timeout, state)
}

func (t *Translator) manifest(ctx context.Context, urn string) (*Manifest, error) {
	path := manifestPath(urn)

	status, data, err := t.client.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, newResponseError(http.MethodGet, path, status, data)
	}

	var m Manifest
	if err := decode(http.MethodGet, path, data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (t *Translator) diagnose(ctx context.Context, urn string, msgs []Message) {
	for _, m := range msgs {
		text := strings.ToLower(string(m.Text))
		if strings.Contains(text, "download") && strings.Contains(text, "worker") {
			t.logger.WarnContext(ctx, "translation worker could not download the uploaded object; "+
				"the upload may be incomplete or storage had not propagated",
				"urn", urn,
				"code", m.Code,
			)
			return
		}
	}
}

func manifestPath(urn string) string {
	return "/modelderivative/v2/designdata/" + url.PathEscape(urn) + "/manifest"
}
