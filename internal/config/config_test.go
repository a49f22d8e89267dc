package config_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/revitview/internal/config"
)

func credentials(t *testing.T) {
	t.Helper()
	t.Setenv("APS_CLIENT_ID", "client")
	t.Setenv("APS_CLIENT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	credentials(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, 30*time.Minute, cfg.Server.ReadTimeoutDuration())
	assert.Equal(t, "/api", cfg.API.BasePath)
	assert.Equal(t, int64(2<<30), cfg.API.MaxUploadSizeBytes())
	assert.True(t, cfg.API.CORS.Enabled)
	assert.Equal(t, config.DefaultOrigins, cfg.API.CORS.Origins)
	assert.Equal(t, 20, cfg.API.Pagination.DefaultPageSize)

	assert.Equal(t, "client", cfg.APS.ClientID)
	assert.Equal(t, "enhanced-revit-viewer-v3", cfg.APS.BucketKey)
	assert.Equal(t, 5*time.Second, cfg.APS.PollIntervalDuration())

	assert.Equal(t, 20*time.Second, cfg.Pipeline.PropagationDelayDuration())
	assert.Equal(t, config.StoreMemory, cfg.Jobs.Store)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeoutDuration())
	assert.Equal(t, "local", cfg.Env())
}

func TestLoadMissingCredentials(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APS_CLIENT_ID", "")
	t.Setenv("APS_CLIENT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "aps")
}

func TestLoadFileAndOverlay(t *testing.T) {
	t.Chdir(t.TempDir())
	credentials(t)

	base := `
log_level = "debug"

[server]
port = 9000

[aps]
bucket_key = "models-dev"
poll_interval = "2s"

[pipeline]
propagation_delay = "5s"

[jobs]
store = "postgres"
`
	overlay := `
[server]
port = 9100

[aps]
bucket_key = "models-prod"
`
	require.NoError(t, os.WriteFile(config.BaseConfigFile, []byte(base), 0o644))
	require.NoError(t, os.WriteFile("config.prod.toml", []byte(overlay), 0o644))
	t.Setenv(config.EnvRevitviewEnv, "prod")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "models-prod", cfg.APS.BucketKey)
	assert.Equal(t, 2*time.Second, cfg.APS.PollIntervalDuration())
	assert.Equal(t, 5*time.Second, cfg.Pipeline.PropagationDelayDuration())
	assert.Equal(t, config.StorePostgres, cfg.Jobs.Store)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "prod", cfg.Env())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	credentials(t)

	t.Setenv("APS_BUCKET_KEY", "env-bucket")
	t.Setenv("REVITVIEW_SERVER_PORT", "8081")
	t.Setenv("REVITVIEW_LOG_LEVEL", "WARN")
	t.Setenv("REVITVIEW_PROPAGATION_DELAY", "0s")
	t.Setenv("REVITVIEW_API_MAX_UPLOAD_SIZE", "500MB")
	t.Setenv("REVITVIEW_JOBS_STORE", "postgres")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "env-bucket", cfg.APS.BucketKey)
	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
	assert.Equal(t, time.Duration(0), cfg.Pipeline.PropagationDelayDuration())
	assert.Equal(t, int64(500<<20), cfg.API.MaxUploadSizeBytes())
	assert.Equal(t, config.StorePostgres, cfg.Jobs.Store)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"log level", "REVITVIEW_LOG_LEVEL", "loud"},
		{"shutdown timeout", "REVITVIEW_SHUTDOWN_TIMEOUT", "later"},
		{"port", "REVITVIEW_SERVER_PORT", "70000"},
		{"upload size", "REVITVIEW_API_MAX_UPLOAD_SIZE", "huge"},
		{"store", "REVITVIEW_JOBS_STORE", "redis"},
		{"bucket", "APS_BUCKET_KEY", "Bad Bucket"},
		{"translation timeout", "REVITVIEW_TRANSLATION_TIMEOUT", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			credentials(t)
			t.Setenv(tt.key, tt.val)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadMalformedFile(t *testing.T) {
	t.Chdir(t.TempDir())
	credentials(t)

	require.NoError(t, os.WriteFile(config.BaseConfigFile, []byte("[server\nport = "), 0o644))

	_, err := config.Load()
	assert.ErrorContains(t, err, "parse config")
}
