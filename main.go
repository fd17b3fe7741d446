package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkpress/inkpress/backend/blog-service/internal/config"
	"github.com/inkpress/inkpress/backend/blog-service/internal/post/service"
	"github.com/inkpress/inkpress/backend/blog-service/pkg/logger"
	"github.com/inkpress/inkpress/backend/blog-service/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: store=%s uploads=%s redis=%v rate_limit=%v",
		cfg.Store.Backend, cfg.Uploads.Backend, cfg.Redis.Host != "", cfg.RateLimit.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDeps(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to initialise dependencies: %v", err)
	}
	defer d.close()

	svc := service.New(d.repo, d.blobs, service.Options{ImagePrefix: cfg.Uploads.URLPrefix})
	if err := seedStore(ctx, cfg, svc); err != nil {
		logger.Fatalf("failed to seed posts: %v", err)
	}

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r := newRouter(cfg, svc, d.redis, d.probes)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("Blog API server running on %s (uploads served from %s)", srv.Addr, cfg.Uploads.URLPrefix)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}
