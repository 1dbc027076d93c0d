package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

type HealthHandler struct {
	checks  map[string]Check
	timeout time.Duration
	log     *slog.Logger
}

func NewHealthHandler(checks map[string]Check, log *slog.Logger) *HealthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HealthHandler{checks: checks, timeout: 2 * time.Second, log: log}
}

// liveness: the process is up
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	results := make(map[string]string, len(h.checks))
	ready := true

	for name, check := range h.checks {
		cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
		err := check(cctx)
		cancel()

		if err != nil {
			ready = false
			results[name] = "down"
			h.log.WarnContext(ctx.Request.Context(), "readiness check failed", "check", name, "err", err)
			continue
		}
		results[name] = "ok"
	}

	if !ready {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": results})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ready", "checks": results})
}
