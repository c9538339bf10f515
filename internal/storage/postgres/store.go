package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityCore/internal/model"
)

const writeTimeout = 30 * time.Second

// Store provides Postgres persistence for pool events, pools and metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables the store writes to.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// PutLogBatch implements storage.Storage.
func (s *Store) PutLogBatch(logs []model.LogRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return s.PutLogBatchContext(ctx, logs)
}

// PutLogBatchContext inserts log records into pool_events. Records already
// stored under the same sequence are left as they are.
func (s *Store) PutLogBatchContext(ctx context.Context, logs []model.LogRecord) error {
	if len(logs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, log := range logs {
		topic0 := ""
		if len(log.Topics) > 0 {
			topic0 = log.Topics[0]
		}
		batch.Queue(`
			INSERT INTO pool_events (
				sequence, pool_address, topic0, topics, data, event_ts, emitted_at, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			ON CONFLICT (sequence) DO NOTHING
		`,
			int64(log.Sequence),
			log.Address,
			topic0,
			log.Topics,
			log.Data,
			int64(log.Timestamp),
			log.EmittedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range logs {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertPools inserts or updates pool records.
func (s *Store) UpsertPools(ctx context.Context, pools []model.PoolRecord) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, pool := range pools {
		batch.Queue(`
			INSERT INTO pools (
				pool_address, coin_a, coin_b, share_token, share_name, share_symbol,
				reserve_a, reserve_b, locked_shares, share_supply, created_ts, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
			ON CONFLICT (pool_address)
			DO UPDATE SET
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				locked_shares = EXCLUDED.locked_shares,
				share_supply = EXCLUDED.share_supply,
				updated_at = now()
		`,
			pool.Address,
			pool.CoinA,
			pool.CoinB,
			pool.ShareToken,
			pool.ShareName,
			pool.ShareSymbol,
			fmt.Sprintf("%d", pool.ReserveA),
			fmt.Sprintf("%d", pool.ReserveB),
			fmt.Sprintf("%d", pool.LockedShares),
			pool.ShareSupply,
			int64(pool.CreatedAt),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_address, coin_a, coin_b, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, supply_count, remove_count,
				volume_a_in, volume_a_out, volume_b_in, volume_b_out,
				reserve_a, reserve_b, closing_price, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now(),now())
			ON CONFLICT (pool_address, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				supply_count = EXCLUDED.supply_count,
				remove_count = EXCLUDED.remove_count,
				volume_a_in = EXCLUDED.volume_a_in,
				volume_a_out = EXCLUDED.volume_a_out,
				volume_b_in = EXCLUDED.volume_b_in,
				volume_b_out = EXCLUDED.volume_b_out,
				reserve_a = EXCLUDED.reserve_a,
				reserve_b = EXCLUDED.reserve_b,
				closing_price = EXCLUDED.closing_price,
				updated_at = now()
		`,
			m.PoolAddress,
			m.CoinA,
			m.CoinB,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			int64(m.SupplyCount),
			int64(m.RemoveCount),
			m.VolumeAIn,
			m.VolumeAOut,
			m.VolumeBIn,
			m.VolumeBOut,
			m.ReserveA,
			m.ReserveB,
			m.ClosingPrice,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns last_processed_seq for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var seq int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_seq FROM aggregator_state WHERE name=$1`, name)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(seq), true, nil
}

// SaveState upserts last_processed_seq for a name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO aggregator_state (name, last_processed_seq, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_seq = EXCLUDED.last_processed_seq, updated_at = now()
	`, name, int64(seq))
	return err
}
