package aggregate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"go.uber.org/zap"

	"liquidityCore/internal/model"
)

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	// RecomputeFrom rewrites every window holding a sequence at or after it,
	// ignoring the saved state.
	RecomputeFrom uint64
	StateStore    StateStore
}

// MetricsStore receives finished windows. *postgres.Store satisfies it.
type MetricsStore interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Aggregator aggregates decoded pool events into per-pool window metrics.
// Reserves are rebuilt by replaying every event from the start of the input,
// so the input must hold each pool's full history.
type Aggregator struct {
	cfg          Config
	store        MetricsStore
	logger       *zap.Logger
	accumulators map[string]*Accumulator
	reserves     map[string]*Reserves
	firstSeq     map[string]uint64
}

func NewAggregator(cfg Config, store MetricsStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
		reserves:     make(map[string]*Reserves),
		firstSeq:     make(map[string]uint64),
	}
}

// Run executes aggregation over a typed events JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.store == nil {
		return fmt.Errorf("store is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startSeq, err := a.loadStartSequence(ctx)
	if err != nil {
		return err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	maxSeq := startSeq
	var total, windows, skipped, failed int

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		total++

		var record model.TypedEventRecord
		if err := json.Unmarshal(line, &record); err != nil {
			failed++
			a.logger.Warn("decode typed event", zap.Error(err))
			continue
		}

		start := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		key := poolKey(record.Address)
		acc := a.accumulators[key]
		switch {
		case acc == nil:
			acc = a.openWindow(key, record, start)
		case start > acc.WindowStart:
			if metrics := a.closeWindow(key, acc, startSeq); metrics != nil {
				batch = append(batch, *metrics)
				windows++
			} else {
				skipped++
			}
			acc = a.openWindow(key, record, start)
		}

		reserves := a.reserves[key]
		if reserves == nil {
			reserves = newReserves()
			a.reserves[key] = reserves
		}
		if err := acc.AddEvent(record, reserves); err != nil {
			failed++
			a.logger.Warn("aggregate event", zap.Error(err), zap.String("pool", record.Address), zap.String("event", record.EventName))
			continue
		}

		if record.Sequence > maxSeq {
			maxSeq = record.Sequence
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]

			if err := a.saveState(ctx, maxSeq); err != nil {
				return err
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	for key, acc := range a.accumulators {
		if metrics := a.closeWindow(key, acc, startSeq); metrics != nil {
			batch = append(batch, *metrics)
			windows++
		} else {
			skipped++
		}
	}
	a.accumulators = make(map[string]*Accumulator)
	a.firstSeq = make(map[string]uint64)

	if len(batch) > 0 {
		if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
			return err
		}
	}
	if err := a.saveState(ctx, maxSeq); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", windows),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
		zap.Uint64("last_sequence", maxSeq),
	)

	return nil
}

// ReservesOf returns the replayed reserves of a pool after Run.
func (a *Aggregator) ReservesOf(pool string) (*big.Int, *big.Int, bool) {
	reserves, ok := a.reserves[poolKey(pool)]
	if !ok {
		return nil, nil, false
	}
	return new(big.Int).Set(reserves.A), new(big.Int).Set(reserves.B), true
}

func (a *Aggregator) openWindow(key string, record model.TypedEventRecord, start uint64) *Accumulator {
	acc := NewAccumulator(record, start, start+a.cfg.WindowSeconds)
	a.accumulators[key] = acc
	a.firstSeq[key] = record.Sequence
	return acc
}

// closeWindow turns an accumulator into metrics using the pool's current
// replayed reserves. Windows with nothing newer than startSeq are dropped.
func (a *Aggregator) closeWindow(key string, acc *Accumulator, startSeq uint64) *model.PoolWindowMetrics {
	delete(a.accumulators, key)
	delete(a.firstSeq, key)

	if startSeq > 0 && acc.LastSeq <= startSeq {
		return nil
	}
	if acc.CoinA == "" {
		a.logger.Warn("window without pool coins", zap.String("pool", acc.PoolAddress))
		return nil
	}

	reserves := a.reserves[key]
	if reserves == nil {
		reserves = newReserves()
	}
	return &model.PoolWindowMetrics{
		PoolAddress:    acc.PoolAddress,
		CoinA:          acc.CoinA,
		CoinB:          acc.CoinB,
		WindowSizeSecs: int64(a.cfg.WindowSeconds),
		WindowStart:    time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:      acc.SwapCount,
		SupplyCount:    acc.SupplyCount,
		RemoveCount:    acc.RemoveCount,
		VolumeAIn:      acc.VolumeAIn.String(),
		VolumeAOut:     acc.VolumeAOut.String(),
		VolumeBIn:      acc.VolumeBIn.String(),
		VolumeBOut:     acc.VolumeBOut.String(),
		ReserveA:       reserves.A.String(),
		ReserveB:       reserves.B.String(),
		ClosingPrice:   closingPrice(reserves.A, reserves.B),
	}
}

func (a *Aggregator) loadStartSequence(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

// saveState records the highest sequence whose windows are all written.
// Sequences in still-open windows are not yet safe.
func (a *Aggregator) saveState(ctx context.Context, maxSeq uint64) error {
	if a.cfg.StateStore == nil {
		return nil
	}

	safe := maxSeq
	for _, first := range a.firstSeq {
		if first > 0 && first-1 < safe {
			safe = first - 1
		}
	}
	return a.cfg.StateStore.Save(ctx, safe)
}
