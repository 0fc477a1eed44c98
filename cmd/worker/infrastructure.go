package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/estatevest/backend/internal/application/payout"
	"github.com/estatevest/backend/internal/infrastructure/cache"
	"github.com/estatevest/backend/internal/infrastructure/config"
	"github.com/estatevest/backend/internal/infrastructure/messaging"
	"github.com/estatevest/backend/internal/infrastructure/metrics"
	"github.com/estatevest/backend/internal/infrastructure/notification"
	"github.com/estatevest/backend/internal/infrastructure/persistence"
	"github.com/estatevest/backend/internal/infrastructure/printing"
	"github.com/estatevest/backend/internal/infrastructure/storage"
	"github.com/estatevest/backend/internal/infrastructure/telemetry"
	"github.com/estatevest/backend/internal/interfaces/http/handler"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// infrastructure owns every external connection the payout engines use
type infrastructure struct {
	db        *persistence.Database
	dbMetrics *telemetry.DBMetrics
	redis     *redis.Client
	locker    payout.Locker
	amqpConn  *amqp.Connection
	rabbit    *messaging.RabbitPublisher
	alerter   *messaging.AlertGateway
	mailer    *messaging.MailGateway
	notifier  *notification.RedisQueue
	deeds     *printing.DeedGateway
	recorder  *metrics.PayoutRecorder
}

func setupInfrastructure(ctx context.Context, cfg *config.Config, tel *telemetryStack, log *zap.Logger) (infra *infrastructure, err error) {
	infra = &infrastructure{}
	defer func() {
		if err != nil {
			infra.close(log)
		}
	}()

	if err := infra.openDatabase(ctx, cfg, tel, log); err != nil {
		return nil, err
	}
	if err := infra.connectRedis(ctx, cfg, log); err != nil {
		return nil, err
	}
	if err := infra.connectRabbitMQ(ctx, cfg, log); err != nil {
		return nil, err
	}
	if cfg.Printing.DeedsEnabled {
		if err := infra.startDeedRendering(ctx, cfg, log); err != nil {
			return nil, err
		}
	}

	infra.recorder, err = metrics.NewPayoutRecorder(tel.meter.Meter("payout"))
	if err != nil {
		return nil, fmt.Errorf("failed to create payout instruments: %w", err)
	}
	return infra, nil
}

func (i *infrastructure) openDatabase(ctx context.Context, cfg *config.Config, tel *telemetryStack, log *zap.Logger) error {
	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		return err
	}
	i.db = db
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.DBName),
	)

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log)
		if err := plugin.RegisterOtelGorm(db.DB); err != nil {
			return fmt.Errorf("failed to register database tracing: %w", err)
		}
	}

	dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbMetricsCfg.SlowQueryThreshold = cfg.Telemetry.DBSlowQueryThresh
	}
	i.dbMetrics, err = telemetry.RegisterDBMetrics(db.DB, tel.meter, dbMetricsCfg, log)
	if err != nil {
		return fmt.Errorf("failed to register database metrics: %w", err)
	}
	if i.dbMetrics != nil {
		i.dbMetrics.StartPoolStatsCollection(ctx)
	}
	return nil
}

func (i *infrastructure) connectRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	factory := cache.NewLockerFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.Redis.Required),
	)

	client, err := factory.Connect(ctx)
	if err != nil {
		if cfg.Redis.Required {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Warn("Redis unavailable, notifications disabled and locks are process local", zap.Error(err))
		client = nil
	}
	i.redis = client

	i.locker, err = factory.CreateLocker(client)
	if err != nil {
		return err
	}
	if client != nil {
		i.notifier = notification.NewRedisQueue(client, notification.DefaultQueueKey)
	}
	return nil
}

func (i *infrastructure) connectRabbitMQ(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	service := cfg.Telemetry.ServiceName
	if !cfg.RabbitMQ.Enabled {
		log.Info("RabbitMQ disabled, alerts are logged only and emails are not sent")
		i.alerter = messaging.NewAlertGateway(nil, "", service, log)
		return nil
	}

	conn, err := messaging.Dial(ctx, cfg.RabbitMQ, log)
	if err != nil {
		return err
	}
	i.amqpConn = conn
	publisher, err := messaging.NewRabbitPublisher(conn, log)
	if err != nil {
		return err
	}
	i.rabbit = publisher
	if err := publisher.DeclareTopology(cfg.RabbitMQ.AlertExchange, cfg.RabbitMQ.MailQueue); err != nil {
		return err
	}

	i.alerter = messaging.NewAlertGateway(publisher, cfg.RabbitMQ.AlertExchange, service, log)
	i.mailer = messaging.NewMailGateway(publisher, cfg.RabbitMQ.MailQueue)
	return nil
}

func (i *infrastructure) startDeedRendering(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	store, err := storage.NewS3Store(ctx, cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return err
	}

	renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Printing.RenderTimeout,
		ExecPath:       cfg.Printing.ChromePath,
		RemoteURL:      cfg.Printing.RemoteURL,
		NoSandbox:      cfg.Printing.NoSandbox,
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("failed to start chrome: %w", err)
	}

	tmpl, err := printing.NewDeedTemplate(cfg.Payout.Currency)
	if err != nil {
		_ = renderer.Close()
		return err
	}
	i.deeds = printing.NewDeedGateway(tmpl, renderer, store, cfg.Printing.MaxConcurrent, log)
	return nil
}

// payoutDependencies assembles the engine ports. Optional ports are left as
// untyped nil when their backend is not configured.
func (i *infrastructure) payoutDependencies(log *zap.Logger) payout.Dependencies {
	deps := payout.Dependencies{
		Investments: persistence.NewGormInvestmentRepository(i.db.DB),
		UnitOfWork:  persistence.NewGormUnitOfWork(i.db.DB),
		Locker:      i.locker,
		Alerter:     i.alerter,
		Recorder:    i.recorder,
		Logger:      log,
	}
	if i.deeds != nil {
		deps.Deeds = i.deeds
	}
	if i.mailer != nil {
		deps.Mailer = i.mailer
	}
	if i.notifier != nil {
		deps.Notifier = i.notifier
	}
	return deps
}

func (i *infrastructure) readinessChecks(cfg *config.Config) []handler.Check {
	checks := []handler.Check{
		{Name: "database", Probe: i.db.Ping},
	}
	if i.redis != nil {
		client := i.redis
		checks = append(checks, handler.Check{
			Name:     "redis",
			Probe:    func(ctx context.Context) error { return client.Ping(ctx).Err() },
			Optional: !cfg.Redis.Required,
		})
	}
	return checks
}

// close releases connections in reverse order of acquisition
func (i *infrastructure) close(log *zap.Logger) {
	var errs []error
	if i.deeds != nil {
		errs = append(errs, i.deeds.Close())
	}
	if i.rabbit != nil {
		errs = append(errs, i.rabbit.Close())
	}
	if i.amqpConn != nil {
		errs = append(errs, i.amqpConn.Close())
	}
	if i.redis != nil {
		errs = append(errs, i.redis.Close())
	}
	if i.dbMetrics != nil {
		i.dbMetrics.Stop()
	}
	if i.db != nil {
		errs = append(errs, i.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn("Errors while closing infrastructure", zap.Error(err))
	}
}
