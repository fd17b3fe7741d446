package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/inkpress/inkpress/backend/blog-service/internal/storage"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store and storage backends.
const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	StorageDisk  = "disk"
	StorageMinIO = "minio"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Uploads   UploadsConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	MinIO     storage.MinIOConfig
	RateLimit RateLimitConfig
	Seed      SeedConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigin   string
}

type LogConfig struct {
	Level string
}

type UploadsConfig struct {
	Backend   string
	Dir       string
	URLPrefix string
	MaxBytes  int64
}

type StoreConfig struct {
	Backend string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type PostgresConfig struct {
	DSN string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	CacheTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

type SeedConfig struct {
	Sample bool
	File   string
}

// LoadConfig loads configuration from environment variables and an
// optional .env file in the working directory.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "3001")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("UPLOADS_BACKEND", StorageDisk)
	v.SetDefault("UPLOADS_DIR", "uploads")
	v.SetDefault("UPLOADS_URL_PREFIX", "/uploads")
	v.SetDefault("UPLOAD_MAX_BYTES", 5<<20)
	v.SetDefault("STORE_BACKEND", StoreMemory)
	v.SetDefault("MONGODB_DATABASE", "blog")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_CACHE_TTL", 300)
	v.SetDefault("MINIO_BUCKET", "blog-uploads")
	v.SetDefault("RATE_LIMIT_RPS", 10)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  time.Duration(v.GetInt("SERVER_READ_TIMEOUT")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("SERVER_WRITE_TIMEOUT")) * time.Second,
			CORSOrigin:   v.GetString("CORS_ORIGIN"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Uploads: UploadsConfig{
			Backend:   strings.ToLower(v.GetString("UPLOADS_BACKEND")),
			Dir:       v.GetString("UPLOADS_DIR"),
			URLPrefix: v.GetString("UPLOADS_URL_PREFIX"),
			MaxBytes:  v.GetInt64("UPLOAD_MAX_BYTES"),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(v.GetString("STORE_BACKEND")),
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Postgres: PostgresConfig{
			DSN: v.GetString("POSTGRES_DSN"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			CacheTTL: time.Duration(v.GetInt("REDIS_CACHE_TTL")) * time.Second,
		},
		MinIO: storage.MinIOConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Seed: SeedConfig{
			Sample: v.GetBool("SEED_SAMPLE"),
			File:   v.GetString("SEED_FILE"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StoreMemory:
	case StoreMongo:
		if c.MongoDB.URI == "" {
			return fmt.Errorf("STORE_BACKEND=mongo requires MONGODB_URI")
		}
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("STORE_BACKEND=postgres requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.Uploads.Backend {
	case StorageDisk:
	case StorageMinIO:
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("UPLOADS_BACKEND=minio requires MINIO_ENDPOINT")
		}
	default:
		return fmt.Errorf("unknown UPLOADS_BACKEND %q", c.Uploads.Backend)
	}

	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	if c.RateLimit.UseRedis && c.Redis.Host == "" {
		return fmt.Errorf("RATE_LIMIT_USE_REDIS requires REDIS_HOST")
	}
	return nil
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Addr is host:port, or empty when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}
