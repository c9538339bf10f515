package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityCore/internal/amm"
	"liquidityCore/internal/api"
	"liquidityCore/internal/config"
	"liquidityCore/internal/metrics"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pool registry over HTTP",
		RunE:  runServe,
	}
	cmd.Flags().String("listen", "127.0.0.1:8080", "listen address")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, cfg.Config, logger, amm.WithObserver(collector))
	if err != nil {
		return err
	}
	defer s.close()

	server := api.NewServer(s.svc,
		api.WithLogger(logger),
		api.WithMetrics(reg),
		api.WithCommit(func(ctx context.Context) error { return s.commit(ctx) }),
	)

	logger.Info("serve start",
		zap.String("listen", cfg.Listen),
		zap.String("snapshot", cfg.Snapshot),
		zap.String("events", cfg.Events),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("pools", len(s.registry.Pools())),
	)
	return server.ListenAndServe(ctx, cfg.Listen)
}
