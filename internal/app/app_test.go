package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/config"
	"github.com/juancollazo-ch/magazord-sales-dashboard/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Magazord: config.MagazordConfig{
			BaseURL:        "http://magazord.invalid",
			PageSize:       100,
			MaxPages:       10,
			RequestTimeout: time.Second,
			Timezone:       "America/Sao_Paulo",
		},
		Cache: config.CacheConfig{
			Backend: config.BackendFile,
			File:    filepath.Join(t.TempDir(), "cache_pedidos.json"),
		},
		Fetch: config.FetchConfig{
			Concurrency:   2,
			FailurePolicy: config.PolicyRetry,
			RetryAttempts: 2,
		},
		Repair: config.RepairConfig{BatchSize: 5},
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	t.Run("file", func(t *testing.T) {
		st, err := OpenStore(ctx, config.CacheConfig{Backend: config.BackendFile, File: filepath.Join(t.TempDir(), "c.json")}, logger)
		require.NoError(t, err)
		assert.IsType(t, &store.FileStore{}, st)
		assert.NoError(t, st.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		st, err := OpenStore(ctx, config.CacheConfig{Backend: config.BackendSQLite, DSN: filepath.Join(t.TempDir(), "c.db")}, logger)
		require.NoError(t, err)
		assert.IsType(t, &store.SQLStore{}, st)
		assert.NoError(t, st.Close())
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		st, err := OpenStore(ctx, config.CacheConfig{Backend: config.BackendRedis, RedisAddr: mr.Addr()}, logger)
		require.NoError(t, err)
		assert.IsType(t, &store.RedisStore{}, st)
		assert.NoError(t, st.Close())
	})

	t.Run("unsupported", func(t *testing.T) {
		st, err := OpenStore(ctx, config.CacheConfig{Backend: "memcached"}, logger)
		assert.Error(t, err)
		assert.Nil(t, st)
	})
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, a.Service)
	assert.Equal(t, 0, a.Cache.Len())
	assert.NoError(t, a.Close(context.Background()))
}

func TestNewInvalidTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Magazord.Timezone = "Nowhere/Invalid"

	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
