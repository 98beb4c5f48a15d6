package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MAGAZORD_URL", "https://loja.magazord.com.br/api/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://loja.magazord.com.br/api", cfg.Magazord.BaseURL)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 100, cfg.Magazord.PageSize)
	assert.Equal(t, 100, cfg.Magazord.MaxPages)
	assert.Equal(t, 10, cfg.Fetch.Concurrency)
	assert.Equal(t, PolicyFlag, cfg.Fetch.FailurePolicy)
	assert.Equal(t, 20, cfg.Repair.BatchSize)
	assert.Equal(t, BackendFile, cfg.Cache.Backend)
	assert.Equal(t, 15*time.Second, cfg.Magazord.RequestTimeout)
	assert.Equal(t, "cancelado", cfg.Status.CancelledMarker)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MAGAZORD_URL", "https://loja.magazord.com.br/api")
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("FETCH_CONCURRENCY", "4")
	t.Setenv("DETAIL_FAILURE_POLICY", "retry")
	t.Setenv("MAGAZORD_REQUEST_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 4, cfg.Fetch.Concurrency)
	assert.Equal(t, PolicyRetry, cfg.Fetch.FailurePolicy)
	assert.Equal(t, 3*time.Second, cfg.Magazord.RequestTimeout)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing url", map[string]string{"MAGAZORD_URL": ""}},
		{"bad backend", map[string]string{"MAGAZORD_URL": "http://x", "CACHE_BACKEND": "mongo"}},
		{"bad policy", map[string]string{"MAGAZORD_URL": "http://x", "DETAIL_FAILURE_POLICY": "ignore"}},
		{"bad timezone", map[string]string{"MAGAZORD_URL": "http://x", "MAGAZORD_TIMEZONE": "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
