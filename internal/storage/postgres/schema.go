package postgres

var schema = []string{
	`CREATE TABLE IF NOT EXISTS pool_events (
		sequence     BIGINT PRIMARY KEY,
		pool_address TEXT NOT NULL,
		topic0       TEXT NOT NULL,
		topics       TEXT[] NOT NULL,
		data         TEXT NOT NULL,
		event_ts     BIGINT NOT NULL,
		emitted_at   TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS pool_events_pool_idx ON pool_events (pool_address, sequence)`,
	`CREATE TABLE IF NOT EXISTS pools (
		pool_address  TEXT PRIMARY KEY,
		coin_a        TEXT NOT NULL,
		coin_b        TEXT NOT NULL,
		share_token   TEXT NOT NULL,
		share_name    TEXT NOT NULL,
		share_symbol  TEXT NOT NULL,
		reserve_a     NUMERIC NOT NULL,
		reserve_b     NUMERIC NOT NULL,
		locked_shares NUMERIC NOT NULL,
		share_supply  NUMERIC NOT NULL,
		created_ts    BIGINT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pool_window_metrics (
		pool_address        TEXT NOT NULL,
		coin_a              TEXT NOT NULL,
		coin_b              TEXT NOT NULL,
		window_size_seconds BIGINT NOT NULL,
		window_start_ts     TIMESTAMPTZ NOT NULL,
		window_end_ts       TIMESTAMPTZ NOT NULL,
		swap_count          BIGINT NOT NULL,
		supply_count        BIGINT NOT NULL,
		remove_count        BIGINT NOT NULL,
		volume_a_in         NUMERIC NOT NULL,
		volume_a_out        NUMERIC NOT NULL,
		volume_b_in         NUMERIC NOT NULL,
		volume_b_out        NUMERIC NOT NULL,
		reserve_a           NUMERIC NOT NULL,
		reserve_b           NUMERIC NOT NULL,
		closing_price       NUMERIC,
		created_at          TIMESTAMPTZ NOT NULL,
		updated_at          TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (pool_address, window_size_seconds, window_start_ts)
	)`,
	`CREATE TABLE IF NOT EXISTS aggregator_state (
		name               TEXT PRIMARY KEY,
		last_processed_seq BIGINT NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL
	)`,
}
