// Command worker runs the settlement and dividend payout jobs on their cron
// schedules and serves the ops HTTP endpoints.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/estatevest/backend/internal/application/payout"
	"github.com/estatevest/backend/internal/infrastructure/config"
	"github.com/estatevest/backend/internal/infrastructure/logger"
	"github.com/estatevest/backend/internal/infrastructure/scheduler"
	"github.com/estatevest/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Fields: map[string]string{"service": cfg.App.Name, "env": cfg.App.Env},
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(baseLog)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := setupTelemetry(ctx, cfg, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := tel.logger
	defer tel.shutdown(log)

	log.Info("Starting payout worker",
		zap.String("version", cfg.App.Version),
		zap.Bool("scheduler_enabled", cfg.Scheduler.Enabled),
		zap.Bool("deeds_enabled", cfg.Printing.DeedsEnabled),
	)

	infra, err := setupInfrastructure(ctx, cfg, tel, log)
	if err != nil {
		log.Fatal("Failed to initialize infrastructure", zap.Error(err))
	}
	defer infra.close(log)

	payoutCfg, err := payoutConfig(cfg)
	if err != nil {
		log.Fatal("Invalid payout configuration", zap.Error(err))
	}
	deps := infra.payoutDependencies(log)
	settlement := payout.NewSettlementService(payoutCfg, deps)
	dividend := payout.NewDividendService(payoutCfg, deps)

	location, _ := time.LoadLocation(cfg.Scheduler.Timezone)
	sched := scheduler.New(scheduler.Config{
		Location:   location,
		JobTimeout: cfg.Scheduler.JobTimeout,
	}, log)
	for _, job := range []scheduler.Job{
		{Spec: cronSpec(cfg.Scheduler.Enabled, cfg.Scheduler.SettlementCron), Runner: settlement},
		{Spec: cronSpec(cfg.Scheduler.Enabled, cfg.Scheduler.DividendCron), Runner: dividend},
	} {
		if err := sched.Register(job); err != nil {
			log.Fatal("Failed to register job", zap.String("job", job.Runner.Name()), zap.Error(err))
		}
	}
	if err := sched.Start(ctx); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := router.New(router.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		Version:        cfg.App.Version,
		Logger:         log,
		TracingEnabled: cfg.Telemetry.Enabled,
		Meter:          tel.meter.Meter("ops.http"),
		Scheduler:      sched,
		Checks:         infra.readinessChecks(cfg),
		TriggerToken:   cfg.HTTP.TriggerToken,
	})
	if err != nil {
		log.Fatal("Failed to build ops router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("Ops server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	case err := <-serveErr:
		log.Error("Ops server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Ops server forced to shutdown", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("Scheduler did not drain before timeout", zap.Error(err))
	}
	log.Info("Worker exited")
}

// cronSpec registers jobs as manual only when scheduling is disabled
func cronSpec(enabled bool, spec string) string {
	if !enabled {
		return ""
	}
	return spec
}

func payoutConfig(cfg *config.Config) (payout.Config, error) {
	tokenValue, err := cfg.Payout.TokenValueDecimal()
	if err != nil {
		return payout.Config{}, err
	}
	return payout.Config{
		MoneyScale:            cfg.Payout.MoneyScale,
		TokenValue:            tokenValue,
		Currency:              cfg.Payout.Currency,
		BatchSize:             cfg.Payout.BatchSize,
		Concurrency:           cfg.Payout.Concurrency,
		LockTTL:               cfg.Payout.LockTTL,
		PostCommitTimeout:     cfg.Payout.PostCommitTimeout,
		SeedDividendFromStart: cfg.Payout.SeedDividendFromStart,
		AppBaseURL:            cfg.App.BaseURL,
	}, nil
}
