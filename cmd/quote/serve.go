package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fd1az/quote-engine/business/chain"
	chainDI "github.com/fd1az/quote-engine/business/chain/di"
	"github.com/fd1az/quote-engine/business/quote/infra/httpapi"
	"github.com/fd1az/quote-engine/internal/apm"
	"github.com/fd1az/quote-engine/internal/config"
	"github.com/fd1az/quote-engine/internal/di"
	"github.com/fd1az/quote-engine/internal/health"
	"github.com/fd1az/quote-engine/internal/logger"
	"github.com/fd1az/quote-engine/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the quote API, health probes and metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, serve)
		},
	}
	cmd.Flags().Int("port", 8080, "API port")
	return cmd
}

func serve(ctx context.Context, rt *runtime) error {
	log := rt.log
	cfg := rt.cfg

	log.Info(ctx, "starting quote engine",
		"version", version,
		"environment", cfg.App.Environment,
	)

	stopTelemetry, err := startTelemetry(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stopTelemetry()

	// Health probes run on their own port so the API can be drained separately
	healthServer := health.NewServer(cfg.Health.Port, version, log)
	if gas, ok := di.TryGetToken(rt.services, chainDI.GasService); ok {
		healthServer.RegisterCheck("rpc", chain.HealthCheck(gas))
	}
	if err := healthServer.Start(ctx); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		defer stopWithTimeout(healthServer.Stop)
	}

	handler := httpapi.NewHandler(rt.svc, httpapi.Options{
		DisplayDecimals: cfg.Orchestrator.DisplayDecimals,
		StreamInterval:  cfg.Server.StreamInterval,
		RequestTimeout:  cfg.Server.WriteTimeout,
		Logger:          log,
	})
	api := httpapi.NewServer(handler, cfg.Server.Port, cfg.Server.ReadTimeout, log)
	if err := api.Start(ctx); err != nil {
		return fmt.Errorf("failed to start api: %w", err)
	}

	// Wait for shutdown
	<-ctx.Done()
	log.Info(ctx, "shutting down")

	return stopWithTimeout(api.Stop)
}

// startTelemetry installs the global tracer and meter providers when
// telemetry is enabled. The returned func flushes and stops them.
func startTelemetry(ctx context.Context, cfg *config.Config, log logger.LoggerInterface) (func(), error) {
	if !cfg.Telemetry.Enabled {
		return func() {}, nil
	}
	tel := cfg.Telemetry

	tp, err := apm.NewTraceProvider(ctx, apm.Config{
		Provider:    apm.Provider(tel.TraceProvider),
		ServiceName: tel.ServiceName,
		Endpoint:    tel.OTLPEndpoint,
		Headers:     tel.OTLPHeaders,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	log.Info(ctx, "tracing initialized", "provider", tel.TraceProvider, "endpoint", tel.OTLPEndpoint)

	opts := []metrics.OptionFn{
		metrics.WithServiceName(tel.ServiceName),
		metrics.WithProviderConfig(metrics.ProviderCfg{Provider: metrics.PrometheusProvider}),
	}
	if apm.Provider(tel.TraceProvider) == apm.OTLPGRPCProvider && tel.OTLPEndpoint != "" {
		headers, err := apm.ParseHeaders(tel.OTLPHeaders)
		if err != nil {
			_ = tp.Stop()
			return nil, fmt.Errorf("invalid telemetry.otlp_headers: %w", err)
		}
		opts = append(opts, metrics.WithProviderConfig(
			metrics.NewOtelCollectorConfig(tel.OTLPEndpoint, headers, metrics.InsecureOtel)))
	}

	mp, err := metrics.NewMetricProvider(ctx, opts...)
	if err != nil {
		_ = tp.Stop()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	promServer, err := metrics.ServePrometheusMetrics(ctx, log, metrics.WithPort(tel.PrometheusPort))
	if err != nil {
		log.Warn(ctx, "failed to start prometheus server", "error", err)
	}

	return func() {
		if promServer != nil {
			_ = stopWithTimeout(promServer.Shutdown)
		}
		_ = stopWithTimeout(mp.Shutdown)
		if err := tp.Stop(); err != nil {
			log.Warn(context.Background(), "trace provider shutdown failed", "error", err)
		}
	}, nil
}

func stopWithTimeout(stop func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return stop(ctx)
}
