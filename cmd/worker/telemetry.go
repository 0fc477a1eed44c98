package main

import (
	"context"

	"github.com/estatevest/backend/internal/infrastructure/config"
	"github.com/estatevest/backend/internal/infrastructure/logger"
	"github.com/estatevest/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

type telemetryStack struct {
	logger   *zap.Logger
	tracer   *telemetry.TracerProvider
	meter    *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
}

// setupTelemetry starts tracing, metrics, the OTLP log bridge and the
// profiler. The returned logger tees into OTLP when logs are enabled.
func setupTelemetry(ctx context.Context, cfg *config.Config, base *zap.Logger) (*telemetryStack, error) {
	t := cfg.Telemetry
	st := &telemetryStack{logger: base}

	var err error
	st.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           t.Enabled,
		CollectorEndpoint: t.CollectorEndpoint,
		SamplingRatio:     t.SamplingRatio,
		ServiceName:       t.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Environment:       cfg.App.Env,
		Insecure:          t.Insecure,
	}, base)
	if err != nil {
		return nil, err
	}

	st.meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           t.Enabled && t.MetricsEnabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ExportInterval:    t.MetricsInterval,
		ServiceName:       t.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Environment:       cfg.App.Env,
		Insecure:          t.Insecure,
	}, base)
	if err != nil {
		return nil, err
	}

	st.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           t.Enabled && t.LogsEnabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ServiceName:       t.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Environment:       cfg.App.Env,
		Insecure:          t.Insecure,
	}, base)
	if err != nil {
		return nil, err
	}
	st.logger = telemetry.Bridge(base, st.logs, t.ServiceName, logger.ParseLevel(cfg.Log.Level))

	st.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:              t.Profiler.Enabled,
		ServerAddress:        t.Profiler.ServerAddress,
		ApplicationName:      t.ServiceName,
		BasicAuthUser:        t.Profiler.BasicAuthUser,
		BasicAuthPassword:    t.Profiler.BasicAuthPassword,
		ProfileTypes:         t.Profiler.ProfileTypes,
		MutexProfileFraction: t.Profiler.MutexProfileRate,
		BlockProfileRate:     t.Profiler.BlockProfileRate,
	}, st.logger)
	if err != nil {
		return nil, err
	}
	if t.Profiler.Enabled && t.Profiler.SpanProfiles {
		if err := st.tracer.EnableSpanProfiles(); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (st *telemetryStack) shutdown(log *zap.Logger) {
	ctx := context.Background()
	if err := st.profiler.Stop(); err != nil {
		log.Warn("Failed to stop profiler", zap.Error(err))
	}
	if err := st.meter.Shutdown(ctx); err != nil {
		log.Warn("Failed to shutdown meter provider", zap.Error(err))
	}
	if err := st.tracer.Shutdown(ctx); err != nil {
		log.Warn("Failed to shutdown tracer provider", zap.Error(err))
	}
	// last, so the messages above are still exported
	if err := st.logs.Shutdown(ctx); err != nil {
		log.Warn("Failed to shutdown logger provider", zap.Error(err))
	}
}
