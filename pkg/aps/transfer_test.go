package aps_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/revitview/pkg/aps"
)

func writeFile(t *testing.T, name string, size int) (string, []byte) {
	t.Helper()

	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path, data
}

func smallParts(cfg *aps.Config) *aps.Config {
	cfg.SinglePartLimit = "1KB"
	cfg.PartSize = "1KB"
	return cfg
}

func TestUploadSinglePart(t *testing.T) {
	f := newFakeAPS(t)
	sys := f.system(f.config())

	path, data := writeFile(t, "model.rvt", 4096)

	obj, err := sys.Upload(context.Background(), path, "job_model.rvt")
	require.NoError(t, err)

	assert.Equal(t, 1, obj.Parts)
	assert.Equal(t, int64(len(data)), obj.Size)
	assert.True(t, obj.Verified)
	assert.Equal(t, aps.EncodeURN(testBucket, "job_model.rvt"), obj.URN)
	assert.Equal(t, "urn:adsk.objects:os.object:test-bucket/job_model.rvt", obj.ObjectID)

	f.set(func(f *fakeAPS) {
		assert.True(t, f.completed)
		assert.Equal(t, data, f.parts[0])
	})
}

func TestUploadMultipart(t *testing.T) {
	tests := []struct {
		name        string
		concurrency int
	}{
		{"sequential", 1},
		{"parallel", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAPS(t)
			cfg := smallParts(f.config())
			cfg.UploadConcurrency = tt.concurrency
			sys := f.system(cfg)

			path, data := writeFile(t, "tower.rvt", 2500)

			obj, err := sys.Upload(context.Background(), path, "job_tower.rvt")
			require.NoError(t, err)
			assert.Equal(t, 3, obj.Parts)
			assert.Equal(t, 1, f.callCount("GET /oss/v2/buckets/test-bucket/objects/job_tower.rvt/signeds3upload"))

			f.set(func(f *fakeAPS) {
				require.Len(t, f.parts, 3)

				var joined []byte
				for i := range 3 {
					joined = append(joined, f.parts[i]...)
				}

				assert.Len(t, f.parts[0], 833)
				assert.Len(t, f.parts[1], 833)
				assert.Len(t, f.parts[2], 834)
				assert.True(t, bytes.Equal(data, joined), "reassembled parts differ from file")
				assert.True(t, f.completed)
			})
		})
	}
}

func TestUploadValidation(t *testing.T) {
	empty := filepath.Join(t.TempDir(), "empty.rvt")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	tests := []struct {
		name string
		path string
		key  string
	}{
		{"zero byte file", empty, "job_empty.rvt"},
		{"missing file", filepath.Join(t.TempDir(), "missing.rvt"), "job_missing.rvt"},
		{"directory", t.TempDir(), "job_dir.rvt"},
		{"empty key", empty, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAPS(t)
			sys := f.system(f.config())

			_, err := sys.Upload(context.Background(), tt.path, tt.key)
			assert.ErrorIs(t, err, aps.ErrValidation)
			assert.Zero(t, f.totalCalls(), "network call made before validation")
		})
	}
}

func TestUploadPartFailure(t *testing.T) {
	f := newFakeAPS(t)
	f.set(func(f *fakeAPS) { f.partStatus[1] = http.StatusForbidden })
	sys := f.system(smallParts(f.config()))

	path, _ := writeFile(t, "model.rvt", 2500)

	_, err := sys.Upload(context.Background(), path, "job_model.rvt")
	require.ErrorIs(t, err, aps.ErrTransfer)
	assert.Contains(t, err.Error(), "part 2/3")
	assert.Zero(t, f.callCount("POST /oss/v2/buckets/test-bucket/objects/job_model.rvt/signeds3upload"),
		"completion requested after failed part")
	assert.Zero(t, f.callCount("PUT /s3/2"), "parts sent after failure")
}

func TestUploadSignedURLMismatch(t *testing.T) {
	tests := []struct {
		name string
		urls int
	}{
		{"no urls", 0},
		{"fewer urls than parts", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeAPS(t)
			f.set(func(f *fakeAPS) { f.signedURLs = tt.urls })
			sys := f.system(smallParts(f.config()))

			path, _ := writeFile(t, "model.rvt", 2500)

			_, err := sys.Upload(context.Background(), path, "job_model.rvt")
			assert.ErrorIs(t, err, aps.ErrTransfer)
			assert.Zero(t, f.callCount("PUT /s3/"))
		})
	}
}

func TestUploadMissingUploadKey(t *testing.T) {
	f := newFakeAPS(t)
	f.set(func(f *fakeAPS) { f.uploadKey = "" })
	sys := f.system(f.config())

	path, _ := writeFile(t, "model.rvt", 128)

	_, err := sys.Upload(context.Background(), path, "job_model.rvt")
	assert.ErrorIs(t, err, aps.ErrTransfer)
}

func TestUploadCreatesBucket(t *testing.T) {
	f := newFakeAPS(t)
	f.set(func(f *fakeAPS) { f.bucketExists = false })
	sys := f.system(f.config())

	path, _ := writeFile(t, "model.rvt", 128)

	_, err := sys.Upload(context.Background(), path, "job_model.rvt")
	require.NoError(t, err)
	assert.Equal(t, 1, f.callExact("POST /oss/v2/buckets"))
}

func TestUploadVerificationAdvisory(t *testing.T) {
	f := newFakeAPS(t)
	f.set(func(f *fakeAPS) { f.sizeOffset = -1 })
	cfg := f.config()
	sys := f.system(cfg)

	path, _ := writeFile(t, "model.rvt", 128)

	obj, err := sys.Upload(context.Background(), path, "job_model.rvt")
	require.NoError(t, err, "verification mismatch must not fail the upload")
	assert.False(t, obj.Verified)
	assert.NotEmpty(t, obj.URN)

	f.set(func(f *fakeAPS) {
		assert.Equal(t, cfg.VerifyAttempts, f.detailCalls)
	})
}

func TestUploadRetriesAfterUnauthorized(t *testing.T) {
	f := newFakeAPS(t)
	f.set(func(f *fakeAPS) { f.unauthorized = 1 })
	sys := f.system(f.config())

	path, _ := writeFile(t, "model.rvt", 128)

	_, err := sys.Upload(context.Background(), path, "job_model.rvt")
	require.NoError(t, err)
	assert.Equal(t, 2, f.callCount("POST /authentication/v2/token"))
}
