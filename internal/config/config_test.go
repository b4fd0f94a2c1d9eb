package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir()) // keep a stray .env out of the picture
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 5*time.Minute, cfg.ProductsCacheTTL)
	assert.Equal(t, 24*time.Hour, cfg.CouponSweepInterval)
	assert.Equal(t, "5000", cfg.WelcomeCouponAmount.String())
	assert.Equal(t, 5, cfg.JobsMaxAttempts)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "neurocart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9000"
jobs_backend: redis
jobs_workers: 4
coupon_sweep_interval: 1h
welcome_coupon_amount: "250.50"
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JOBS_WORKERS", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "redis", cfg.JobsBackend)
	assert.Equal(t, 8, cfg.JobsWorkers, "env overrides the yaml file")
	assert.Equal(t, time.Hour, cfg.CouponSweepInterval)
	assert.Equal(t, "250.5", cfg.WelcomeCouponAmount.String())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JOBS_BACKOFF_BASE", "soon")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("JOBS_BACKOFF_BASE", "")
	t.Setenv("DB_DRIVER", "mysql")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadRejectsNonPositiveIntervals(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, v := range []string{"0s", "-1h"} {
		t.Setenv("COUPON_SWEEP_INTERVAL", v)
		_, err := Load()
		require.Error(t, err, v)
		assert.Contains(t, err.Error(), "COUPON_SWEEP_INTERVAL")
	}

	t.Setenv("COUPON_SWEEP_INTERVAL", "")
	t.Setenv("JOBS_WORKERS", "0")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("JOBS_WORKERS", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session_ttl: 0s\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	_, err = Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_TTL")
}
