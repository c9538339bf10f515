package main

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityCore/internal/amm"
	"liquidityCore/internal/asset"
	"liquidityCore/internal/config"
	"liquidityCore/internal/eventlog"
	"liquidityCore/internal/service"
	"liquidityCore/internal/snapshot"
	"liquidityCore/internal/storage"
	"liquidityCore/internal/storage/postgres"
)

// session is the restored state of one command run.
type session struct {
	logger    *zap.Logger
	owner     common.Address
	snapshots *snapshot.FileStore
	ledger    *asset.Ledger
	registry  *amm.Registry
	recorder  *eventlog.Recorder
	pg        *postgres.Store
	svc       *service.Service
}

func openSession(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...amm.Option) (*session, error) {
	if !common.IsHexAddress(cfg.Owner) {
		return nil, fmt.Errorf("invalid owner address: %q", cfg.Owner)
	}
	owner := common.HexToAddress(cfg.Owner)

	snapshots := snapshot.NewFileStore(cfg.Snapshot)
	state, found, err := snapshots.Load()
	if err != nil {
		return nil, err
	}
	if !found {
		state = snapshot.Empty(owner)
		logger.Info("starting from empty state", zap.String("snapshot", cfg.Snapshot), zap.String("owner", owner.Hex()))
	} else if state.Owner != owner.Hex() {
		logger.Debug("snapshot owner overrides configured owner", zap.String("snapshot_owner", state.Owner))
		owner = common.HexToAddress(state.Owner)
	}

	next := state.NextSequence
	if next == 0 {
		next = 1
	}
	recorder, err := eventlog.NewRecorder(next, logger)
	if err != nil {
		return nil, err
	}

	registryOpts := append([]amm.Option{amm.WithLogger(logger), amm.WithEmitter(recorder)}, opts...)
	ledger, registry, err := snapshot.Restore(state, registryOpts...)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", cfg.Snapshot, err)
	}

	s := &session{
		logger:    logger,
		owner:     owner,
		snapshots: snapshots,
		ledger:    ledger,
		registry:  registry,
		recorder:  recorder,
	}

	sinks := storage.Multi{storage.NewJsonlStorage(cfg.Events)}
	svcOpts := []service.Option{service.WithLogger(logger)}
	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		s.pg = pg
		sinks = append(sinks, pg)
		svcOpts = append(svcOpts, service.WithPoolSink(pg))
	}
	s.svc = service.New(ledger, registry, recorder, sinks, svcOpts...)
	return s, nil
}

// commit flushes pending events and saves the snapshot.
func (s *session) commit(ctx context.Context) error {
	if err := s.svc.Flush(ctx); err != nil {
		return err
	}
	state := snapshot.Capture(s.ledger, s.registry, s.owner, s.recorder.NextSequence())
	if err := s.snapshots.Save(state); err != nil {
		return err
	}
	if failed := s.recorder.Failed(); failed > 0 {
		s.logger.Warn("events dropped by encoder", zap.Int("failed", failed))
	}
	return nil
}

func (s *session) close() {
	if s.pg != nil {
		s.pg.Close()
	}
}

// runMutation restores state, runs fn, commits, and prints fn's result.
func runMutation(cmd *cobra.Command, cfg config.Config, fn func(ctx context.Context, s *session) (interface{}, error)) error {
	return runSession(cmd, cfg, true, fn)
}

// runQuery restores state and prints fn's result without saving anything.
func runQuery(cmd *cobra.Command, cfg config.Config, fn func(ctx context.Context, s *session) (interface{}, error)) error {
	cfg.PGDSN = ""
	return runSession(cmd, cfg, false, fn)
}

func runSession(cmd *cobra.Command, cfg config.Config, mutate bool, fn func(ctx context.Context, s *session) (interface{}, error)) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.close()

	result, err := fn(ctx, s)
	if err != nil {
		return err
	}
	if mutate {
		if err := s.commit(ctx); err != nil {
			return err
		}
	}
	if result == nil {
		return nil
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	return config.Load(cfgFile, cmd.Flags())
}
