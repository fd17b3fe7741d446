package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/inkpress/backend/blog-service/pkg/logger"
)

// Probe reports whether a dependency is usable.
type Probe func(ctx context.Context) error

const probeTimeout = 2 * time.Second

// RegisterHealth mounts /api/health (liveness) and /ready (every probe
// must pass). started is used to report uptime.
func RegisterHealth(r gin.IRouter, started time.Time, probes map[string]Probe) {
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Blog API is running"})
	})

	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
		defer cancel()

		ready := true
		deps := map[string]bool{}
		for name, probe := range probes {
			if err := probe(ctx); err != nil {
				logger.Warnf("readiness: %s: %v", name, err)
				deps[name] = false
				ready = false
				continue
			}
			deps[name] = true
		}

		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"status": status, "deps": deps, "uptime": time.Since(started).String()})
	})
}
