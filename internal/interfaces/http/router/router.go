// Package router assembles the worker's ops HTTP engine.
package router

import (
	"time"

	"github.com/estatevest/backend/internal/infrastructure/logger"
	"github.com/estatevest/backend/internal/interfaces/http/handler"
	"github.com/estatevest/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	HealthPath = "/health"
	ReadyPath  = "/ready"
	JobsPath   = "/internal/jobs"
)

// Config wires the engine's dependencies
type Config struct {
	ServiceName string
	Version     string
	Logger      *zap.Logger

	TracingEnabled bool
	TracerProvider trace.TracerProvider
	// Meter records request metrics when set
	Meter metric.Meter

	Scheduler    handler.JobScheduler
	Checks       []handler.Check
	ProbeTimeout time.Duration
	// TriggerToken guards the job endpoints. When empty the jobs can be
	// listed but not triggered over HTTP.
	TriggerToken string
}

// New builds the gin engine serving liveness, readiness and job control
func New(cfg Config) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	metrics, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, err
	}

	engine := gin.New()
	engine.Use(
		logger.Recovery(log),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName:    cfg.ServiceName,
			Enabled:        cfg.TracingEnabled,
			TracerProvider: cfg.TracerProvider,
		}),
		logger.GinMiddleware(log, HealthPath, ReadyPath),
		middleware.SpanEnricher(),
		metrics,
	)

	health := handler.NewHealthHandler(cfg.ServiceName, cfg.Version, cfg.ProbeTimeout, cfg.Checks...)
	engine.GET(HealthPath, health.Health)
	engine.GET(ReadyPath, health.Ready)

	if cfg.Scheduler != nil {
		jobs := handler.NewJobHandler(cfg.Scheduler)
		group := engine.Group(JobsPath)
		if cfg.TriggerToken != "" {
			group.Use(middleware.BearerToken(cfg.TriggerToken))
			group.POST("/:name/run", jobs.Run)
		} else {
			log.Warn("Ops trigger token not set, manual job runs disabled")
		}
		group.GET("", jobs.List)
	}

	return engine, nil
}
