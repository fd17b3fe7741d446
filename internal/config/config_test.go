package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("UPLOADS_BACKEND", "")
	t.Setenv("UPLOAD_MAX_BYTES", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "3001", cfg.Server.Port)
	require.Equal(t, "0.0.0.0:3001", cfg.Server.Addr())
	require.Equal(t, StoreMemory, cfg.Store.Backend)
	require.Equal(t, StorageDisk, cfg.Uploads.Backend)
	require.Equal(t, int64(5<<20), cfg.Uploads.MaxBytes)
	require.Equal(t, "/uploads", cfg.Uploads.URLPrefix)
	require.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("STORE_BACKEND", "Mongo")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("MONGODB_DATABASE", "blog_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_CACHE_TTL", "60")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_USE_REDIS", "true")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("SEED_SAMPLE", "true")
	t.Setenv("UPLOAD_MAX_BYTES", "1048576")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, StoreMongo, cfg.Store.Backend)
	require.Equal(t, "blog_test", cfg.MongoDB.Database)
	require.Equal(t, 10*time.Second, cfg.MongoDB.Timeout)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr())
	require.Equal(t, time.Minute, cfg.Redis.CacheTTL)
	require.True(t, cfg.RateLimit.Enabled)
	require.InDelta(t, 2.5, cfg.RateLimit.RPS, 1e-9)
	require.True(t, cfg.Seed.Sample)
	require.Equal(t, int64(1<<20), cfg.Uploads.MaxBytes)
}

func TestLoadConfig_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown store":        {"STORE_BACKEND": "sqlite"},
		"mongo without uri":    {"STORE_BACKEND": "mongo", "MONGODB_URI": ""},
		"postgres without dsn": {"STORE_BACKEND": "postgres", "POSTGRES_DSN": ""},
		"unknown uploads":      {"UPLOADS_BACKEND": "s3"},
		"minio without host":   {"UPLOADS_BACKEND": "minio", "MINIO_ENDPOINT": ""},
		"zero upload limit":    {"UPLOAD_MAX_BYTES": "0"},
		"redis limiter alone":  {"RATE_LIMIT_USE_REDIS": "true", "REDIS_HOST": ""},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}
