package aps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/revitview/pkg/formatting"
)

const bucketsPath = "/oss/v2/buckets"

// Object describes a file stored in the provider bucket.
type Object struct {
	URN       string `json:"urn"`
	BucketKey string `json:"bucket_key"`
	ObjectKey string `json:"object_key"`
	ObjectID  string `json:"object_id"`
	Size      int64  `json:"size"`
	Parts     int    `json:"parts"`
	Verified  bool   `json:"verified"`
}

type bucketRequest struct {
	BucketKey string `json:"bucketKey"`
	PolicyKey string `json:"policyKey"`
}

type signedUpload struct {
	UploadKey string   `json:"uploadKey"`
	URLs      []string `json:"urls"`
}

type completeRequest struct {
	UploadKey string `json:"uploadKey"`
}

type objectDetails struct {
	ObjectID string `json:"objectId"`
	Size     int64  `json:"size"`
}

// Transfer uploads local files through the signed upload handshake.
type Transfer struct {
	client          *client
	bucket          string
	singlePartLimit int64
	partSize        int64
	concurrency     int
	verifyAttempts  int
	verifyInterval  time.Duration
	logger          *slog.Logger
}

// newTransfer creates a transfer engine bound to the configured bucket.
func newTransfer(cfg *Config, c *client, logger *slog.Logger) *Transfer {
	return &Transfer{
		client:          c,
		bucket:          cfg.BucketKey,
		singlePartLimit: cfg.SinglePartLimitBytes(),
		partSize:        cfg.PartSizeBytes(),
		concurrency:     max(cfg.UploadConcurrency, 1),
		verifyAttempts:  max(cfg.VerifyAttempts, 1),
		verifyInterval:  cfg.VerifyIntervalDuration(),
		logger:          logger,
	}
}

// EnsureBucket creates the bucket with a persistent policy when it does not exist.
func (t *Transfer) EnsureBucket(ctx context.Context) error {
	details := bucketPath(t.bucket) + "/details"

	status, data, err := t.client.call(ctx, http.MethodGet, details, nil)
	if err != nil {
		return err
	}

	switch {
	case success(status):
		return nil
	case status != http.StatusNotFound:
		return newResponseError(http.MethodGet, details, status, data)
	}

	status, data, err = t.client.call(ctx, http.MethodPost, bucketsPath, bucketRequest{
		BucketKey: t.bucket,
		PolicyKey: "persistent",
	})
	if err != nil {
		return err
	}

	if !success(status) && status != http.StatusConflict {
		return newResponseError(http.MethodPost, bucketsPath, status, data)
	}

	t.logger.InfoContext(ctx, "bucket ready", "bucket", t.bucket, "status", status)
	return nil
}

// Upload sends the file at path to the bucket under key and returns the stored object.
// Part transfers that fail abort the upload before completion is requested.
// Post-upload size verification is advisory and never fails the upload.
func (t *Transfer) Upload(ctx context.Context, path, key string) (*Object, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: object key required", ErrValidation)
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: file not found: %s", ErrValidation, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: not a file: %s", ErrValidation, path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: file is empty: %s", ErrValidation, path)
	}

	size := info.Size()

	if err := t.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	count := PartCount(size, t.singlePartLimit, t.partSize)
	objectPath := bucketPath(t.bucket) + "/objects/" + url.PathEscape(key)

	t.logger.InfoContext(ctx, "upload started",
		"key", key,
		"size", formatting.FormatBytes(size, 1),
		"parts", count,
	)

	session, err := t.begin(ctx, objectPath, count)
	if err != nil {
		return nil, err
	}

	if err := t.sendParts(ctx, path, size, session.URLs); err != nil {
		return nil, err
	}

	if err := t.complete(ctx, objectPath, session.UploadKey); err != nil {
		return nil, err
	}

	obj := &Object{
		URN:       EncodeURN(t.bucket, key),
		BucketKey: t.bucket,
		ObjectKey: key,
		ObjectID:  ObjectID(t.bucket, key),
		Size:      size,
		Parts:     count,
		Verified:  t.verify(ctx, objectPath, size),
	}

	t.logger.InfoContext(ctx, "upload complete", "key", key, "urn", obj.URN, "verified", obj.Verified)
	return obj, nil
}

func (t *Transfer) begin(ctx context.Context, objectPath string, count int) (*signedUpload, error) {
	path := objectPath + "/signeds3upload?parts=" + strconv.Itoa(count)

	status, data, err := t.client.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !success(status) {
		return nil, fmt.Errorf("%w: %w", ErrTransfer, newResponseError(http.MethodGet, path, status, data))
	}

	var session signedUpload
	if err := decode(http.MethodGet, path, data, &session); err != nil {
		return nil, err
	}

	if session.UploadKey == "" || len(session.URLs) == 0 {
		return nil, fmt.Errorf("%w: signed upload response missing upload key or urls", ErrTransfer)
	}
	if len(session.URLs) != count {
		return nil, fmt.Errorf("%w: requested %d parts, received %d urls", ErrTransfer, count, len(session.URLs))
	}

	return &session, nil
}

func (t *Transfer) sendParts(ctx context.Context, path string, size int64, urls []string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	defer f.Close()

	parts := PartRanges(size, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)

	for _, part := range parts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			section := io.NewSectionReader(f, part.Offset, part.Length)
			status, err := t.client.put(gctx, urls[part.Index], section, part.Length)
			if err != nil {
				return fmt.Errorf("%w: part %d/%d: %v", ErrTransfer, part.Index+1, len(parts), err)
			}
			if !success(status) {
				return fmt.Errorf("%w: part %d/%d: status %d", ErrTransfer, part.Index+1, len(parts), status)
			}

			t.logger.DebugContext(gctx, "part uploaded",
				"part", part.Index+1,
				"parts", len(parts),
				"bytes", part.Length,
			)
			return nil
		})
	}

	return g.Wait()
}

func (t *Transfer) complete(ctx context.Context, objectPath, uploadKey string) error {
	path := objectPath + "/signeds3upload"

	status, data, err := t.client.call(ctx, http.MethodPost, path, completeRequest{UploadKey: uploadKey})
	if err != nil {
		return err
	}
	if !success(status) {
		return fmt.Errorf("%w: complete: %w", ErrTransfer, newResponseError(http.MethodPost, path, status, data))
	}
	return nil
}

func (t *Transfer) verify(ctx context.Context, objectPath string, expected int64) bool {
	path := objectPath + "/details"
	backoff := retry.WithMaxRetries(uint64(t.verifyAttempts-1), constant(t.verifyInterval))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		status, data, err := t.client.call(ctx, http.MethodGet, path, nil)
		if err != nil {
			return retry.RetryableError(err)
		}
		if !success(status) {
			return retry.RetryableError(newResponseError(http.MethodGet, path, status, data))
		}

		var details objectDetails
		if err := decode(http.MethodGet, path, data, &details); err != nil {
			return retry.RetryableError(err)
		}
		if details.Size != expected {
			return retry.RetryableError(fmt.Errorf("size mismatch: expected %d, got %d", expected, details.Size))
		}
		return nil
	})

	if err != nil {
		t.logger.WarnContext(ctx, "upload verification failed", "path", path, "error", err)
		return false
	}
	return true
}

func bucketPath(bucket string) string {
	return bucketsPath + "/" + url.PathEscape(bucket)
}

func constant(d time.Duration) retry.Backoff {
	if d <= 0 {
		d = time.Millisecond
	}
	return retry.NewConstant(d)
}
