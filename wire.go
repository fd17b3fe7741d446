package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/inkpress/backend/blog-service/handlers"
	"github.com/inkpress/inkpress/backend/blog-service/internal/config"
	"github.com/inkpress/inkpress/backend/blog-service/internal/database"
	"github.com/inkpress/inkpress/backend/blog-service/internal/post/handler"
	"github.com/inkpress/inkpress/backend/blog-service/internal/post/repository"
	"github.com/inkpress/inkpress/backend/blog-service/internal/post/seed"
	"github.com/inkpress/inkpress/backend/blog-service/internal/post/service"
	"github.com/inkpress/inkpress/backend/blog-service/internal/storage"
	"github.com/inkpress/inkpress/backend/blog-service/pkg/logger"
	"github.com/inkpress/inkpress/backend/blog-service/pkg/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// deps are the process-wide collaborators built once at startup.
type deps struct {
	repo    repository.Repository
	blobs   storage.BlobStore
	redis   *redis.Client
	probes  map[string]handlers.Probe
	closers []func()
}

func (d *deps) close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

func openDeps(ctx context.Context, cfg *config.Config) (*deps, error) {
	d := &deps{probes: map[string]handlers.Probe{}}
	ok := false
	defer func() {
		if !ok {
			d.close()
		}
	}()

	if addr := cfg.Redis.Addr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			// the limiter needs Redis; the cache can do without
			if cfg.RateLimit.UseRedis {
				client.Close()
				return nil, fmt.Errorf("redis %s: %w", addr, err)
			}
			logger.Warnf("failed to connect to Redis (%s): %v; post cache disabled", addr, err)
			client.Close()
		} else {
			logger.Infof("Connected to Redis: %s", addr)
			d.redis = client
			d.closers = append(d.closers, func() { _ = client.Close() })
			d.probes["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}

	repo, err := openRepository(ctx, cfg, d)
	if err != nil {
		return nil, err
	}
	if d.redis != nil {
		repo = repository.NewCachedRepository(repo, d.redis, "post:", cfg.Redis.CacheTTL)
	}
	d.repo = repo

	blobs, err := openBlobs(cfg, d)
	if err != nil {
		return nil, err
	}
	d.blobs = blobs

	ok = true
	return d, nil
}

func openRepository(ctx context.Context, cfg *config.Config, d *deps) (repository.Repository, error) {
	switch cfg.Store.Backend {
	case config.StoreMongo:
		client, err := database.Retry(ctx, "MongoDB", connectAttempts, connectBackoff, func(ctx context.Context) (*mongo.Client, error) {
			return database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		})
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() { _ = client.Disconnect(context.Background()) })
		d.probes["store"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		logger.Infof("Using MongoDB post store (database=%s)", cfg.MongoDB.Database)
		return repository.NewMongoRepo(ctx, client.Database(cfg.MongoDB.Database))

	case config.StorePostgres:
		pool, err := database.Retry(ctx, "Postgres", connectAttempts, connectBackoff, func(ctx context.Context) (*pgxpool.Pool, error) {
			return database.ConnectPostgres(ctx, cfg.Postgres.DSN, 10*time.Second)
		})
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, pool.Close)
		d.probes["store"] = pool.Ping
		logger.Infof("Using Postgres post store")
		return repository.NewPostgresRepo(ctx, pool)

	default:
		logger.Infof("Using in-memory post store; posts are lost on restart")
		return repository.NewMemoryRepo(), nil
	}
}

func openBlobs(cfg *config.Config, d *deps) (storage.BlobStore, error) {
	if cfg.Uploads.Backend == config.StorageMinIO {
		s, err := storage.NewMinIOStorage(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		d.probes["uploads"] = s.Ping
		logger.Infof("Storing uploads in MinIO bucket %s", cfg.MinIO.Bucket)
		return s, nil
	}
	logger.Infof("Storing uploads in %s", cfg.Uploads.Dir)
	return storage.NewDiskStorage(afero.NewOsFs(), cfg.Uploads.Dir)
}

func seedStore(ctx context.Context, cfg *config.Config, svc service.Service) error {
	var entries []seed.Entry
	if cfg.Seed.Sample {
		sample, err := seed.Sample()
		if err != nil {
			return err
		}
		entries = append(entries, sample...)
	}
	if cfg.Seed.File != "" {
		fromFile, err := seed.Load(afero.NewOsFs(), cfg.Seed.File)
		if err != nil {
			return err
		}
		entries = append(entries, fromFile...)
	}
	if len(entries) == 0 {
		return nil
	}
	n, err := seed.Apply(ctx, svc, entries)
	if err != nil {
		return err
	}
	logger.Infof("seeded %d posts", n)
	return nil
}

func newRouter(cfg *config.Config, svc service.Service, rdb *redis.Client, probes map[string]handlers.Probe) *gin.Engine {
	if strings.EqualFold(cfg.Server.Environment, "production") {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.RequestMetrics(), middleware.CORS(cfg.Server.CORSOrigin))

	handlers.RegisterHealth(r, startTime, probes)
	handlers.RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// health, docs and metrics stay outside the limiter
	limited := r.Group("/")
	if cfg.RateLimit.Enabled {
		win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		if cfg.RateLimit.UseRedis && rdb != nil {
			limited.Use(middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			limited.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}
	handler.NewPostHandler(svc, cfg.Uploads.MaxBytes).Register(limited)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return r
}
