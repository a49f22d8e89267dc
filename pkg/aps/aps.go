// Package aps drives the Autodesk Platform Services upload and model
// translation contract: client-credentials tokens, signed multipart uploads
// to an OSS bucket, Model Derivative translation jobs, and viewable lookup.
package aps

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/revitview/pkg/lifecycle"
)

// System is the provider surface consumed by the pipeline and the HTTP layer.
type System interface {
	// Start registers a startup hook that acquires a token and ensures the bucket exists.
	Start(lc *lifecycle.Coordinator) error
	// Token returns a bearer credential suitable for a client-side viewer.
	Token(ctx context.Context) (Credential, error)
	// Upload stores the file at path under key and returns the object with its URN.
	Upload(ctx context.Context, path, key string) (*Object, error)
	// Translate submits a translation job for urn. Existing jobs are not an error.
	Translate(ctx context.Context, urn string) error
	// Status returns the current translation state for urn.
	Status(ctx context.Context, urn string) (*JobStatus, error)
	// Await blocks until the translation for urn succeeds, fails, or timeout elapses.
	Await(ctx context.Context, urn string, timeout time.Duration) (*JobStatus, error)
	// Resolve returns the viewable derivatives of a successful translation.
	Resolve(ctx context.Context, urn string) (*Resolution, error)
	// Verify checks that the primary derivative of urn is reachable.
	Verify(ctx context.Context, urn string) (*Verification, error)
	// Health reports token and bucket diagnostics.
	Health(ctx context.Context) Health
}

// Health is the diagnostic report returned by System.Health.
type Health struct {
	Status      string      `json:"status"`
	Bucket      string      `json:"bucket"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Diagnostics holds the individual health probes.
type Diagnostics struct {
	TokenObtained    bool   `json:"token_obtained"`
	TokenLength      int    `json:"token_length,omitempty"`
	TokenError       string `json:"token_error,omitempty"`
	BucketAccessible bool   `json:"bucket_accessible"`
	BucketError      string `json:"bucket_error,omitempty"`
}

type provider struct {
	creds      *Credentials
	transfer   *Transfer
	translator *Translator
	resolver   *Resolver
	bucket     string
	logger     *slog.Logger
}

// New creates the provider system. No network calls are made until an operation runs.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	return NewWithClient(cfg, &http.Client{Timeout: cfg.RequestTimeoutDuration()}, logger)
}

// NewWithClient creates the provider system using httpClient for every request.
func NewWithClient(cfg *Config, httpClient *http.Client, logger *slog.Logger) (System, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: client id and secret required", ErrAuth)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger = logger.With("system", "aps")

	creds := NewCredentials(cfg, httpClient, logger)
	c := newClient(cfg, httpClient, creds, logger)
	tr := newTranslator(cfg, c, logger)

	return &provider{
		creds:      creds,
		transfer:   newTransfer(cfg, c, logger),
		translator: tr,
		resolver:   newResolver(cfg, c, tr, logger),
		bucket:     cfg.BucketKey,
		logger:     logger,
	}, nil
}

func (p *provider) Start(lc *lifecycle.Coordinator) error {
	p.logger.Info("starting aps system", "bucket", p.bucket)

	lc.OnStartup(func() {
		ctx := lc.Context()

		if _, err := p.creds.Get(ctx); err != nil {
			p.logger.Error("aps token acquisition failed", "error", err)
			return
		}

		if err := p.transfer.EnsureBucket(ctx); err != nil {
			p.logger.Error("aps bucket initialization failed", "bucket", p.bucket, "error", err)
			return
		}

		p.logger.Info("aps bucket ready", "bucket", p.bucket)
	})

	return nil
}

func (p *provider) Token(ctx context.Context) (Credential, error) {
	return p.creds.Get(ctx)
}

func (p *provider) Upload(ctx context.Context, path, key string) (*Object, error) {
	return p.transfer.Upload(ctx, path, key)
}

func (p *provider) Translate(ctx context.Context, urn string) error {
	return p.translator.Submit(ctx, urn)
}

func (p *provider) Status(ctx context.Context, urn string) (*JobStatus, error) {
	return p.translator.Status(ctx, urn)
}

func (p *provider) Await(ctx context.Context, urn string, timeout time.Duration) (*JobStatus, error) {
	return p.translator.Await(ctx, urn, timeout)
}

func (p *provider) Resolve(ctx context.Context, urn string) (*Resolution, error) {
	return p.resolver.Resolve(ctx, urn)
}

func (p *provider) Verify(ctx context.Context, urn string) (*Verification, error) {
	return p.resolver.Verify(ctx, urn)
}

func (p *provider) Health(ctx context.Context) Health {
	h := Health{Status: "healthy", Bucket: p.bucket}

	cred, err := p.creds.Get(ctx)
	if err != nil {
		h.Diagnostics.TokenError = err.Error()
		return h
	}
	h.Diagnostics.TokenObtained = true
	h.Diagnostics.TokenLength = len(cred.AccessToken)

	if err := p.transfer.EnsureBucket(ctx); err != nil {
		h.Diagnostics.BucketError = err.Error()
		return h
	}
	h.Diagnostics.BucketAccessible = true

	return h
}
