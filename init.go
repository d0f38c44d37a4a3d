package main

import (
	"context"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/redis/go-redis/v9"
	"github.com/tournevent/kargo/internal/config"
	"github.com/tournevent/kargo/internal/telemetry"
	"github.com/tournevent/kargo/pkg/kargo"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type app struct {
	cfg     *config.Config
	logger  *otelzap.Logger
	kargo   *kargo.Kargo
	metrics *prometheus.Registry
	closers []func(context.Context) error
}

// dumpMetrics writes the metrics gathered during the command in the text
// exposition format.
func (a *app) dumpMetrics(w io.Writer) error {
	families, err := a.metrics.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Debug("Shutdown step failed", zap.Error(err))
		}
	}
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}
	a.closers = append(a.closers, func(context.Context) error { return logger.Sync() })

	tracer, shutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		a.closers = append(a.closers, shutdown)
	}

	tokens, closeTokens := initTokens(cfg)
	if closeTokens != nil {
		a.closers = append(a.closers, closeTokens)
	}

	a.metrics = prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(a.metrics)
	a.kargo = kargo.New(kargo.Options{
		Logger:   logger,
		Tracer:   tracer,
		Tokens:   tokens,
		Observer: metrics,
		Recorder: metrics,
		UseMock:  cfg.UseMock,
	})
	return a, nil
}

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(cfg *config.Config) (*otelzap.Logger, error) {
	return telemetry.NewLogger(cfg.LogLevel, zap.String("service", cfg.ServiceName))
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.Attributes()...)
}

func initTokens(cfg *config.Config) (kargo.Tokens, func(context.Context) error) {
	switch cfg.TokenBackend {
	case config.TokenBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return kargo.RedisTokens(client), func(context.Context) error { return client.Close() }
	case config.TokenBackendFile:
		return kargo.FileTokens(cfg.TokenDir), nil
	default:
		return kargo.MemoryTokens(), nil
	}
}
