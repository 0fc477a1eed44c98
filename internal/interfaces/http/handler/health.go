package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/estatevest/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// Check is a named readiness probe such as a database or Redis ping
type Check struct {
	Name     string
	Probe    func(ctx context.Context) error
	Optional bool // a failing optional check is reported but does not fail readiness
}

// HealthHandler serves liveness and readiness
type HealthHandler struct {
	BaseHandler
	service   string
	version   string
	checks    []Check
	timeout   time.Duration
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler. timeout bounds every probe.
func NewHealthHandler(service, version string, timeout time.Duration, checks ...Check) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{
		service:   service,
		version:   version,
		checks:    checks,
		timeout:   timeout,
		startTime: time.Now(),
	}
}

// LivenessResponse is returned by /health
type LivenessResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// ReadinessResponse is returned by /ready
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health reports that the process is up without touching dependencies
func (h *HealthHandler) Health(c *gin.Context) {
	h.Success(c, LivenessResponse{
		Status:    statusOK,
		Service:   h.service,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready runs every probe and answers 503 when a required one fails
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := ReadinessResponse{Status: statusOK, Checks: make(map[string]string, len(h.checks))}
	for _, check := range h.checks {
		if err := check.Probe(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Readiness check failed",
				zap.String("check", check.Name),
				zap.Bool("optional", check.Optional),
				zap.Error(err),
			)
			resp.Checks[check.Name] = statusError
			if !check.Optional {
				resp.Status = statusError
			}
			continue
		}
		resp.Checks[check.Name] = statusOK
	}

	if resp.Status != statusOK {
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
