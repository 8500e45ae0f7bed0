package store

// schema is the consolidated, linear schema for the data model. The
// source carried two competing 0005 migrations (titan_v8_schema vs
// add_alerts_tss_conviction) and a 0006 that re-added the same alerts
// columns; this is that dual-branch history already flattened into one
// sequence, per the design note on duplicate migration revisions.
// Schema migration tooling itself is an out-of-scope collaborator —
// this is applied once, idempotently, at store construction time, the
// same way the teacher's sqlite store embeds its schema.
const schema = `
CREATE TABLE IF NOT EXISTS wallets (
	chain TEXT NOT NULL,
	address TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT 'manual',
	prior_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
	merit_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	tier TEXT,
	tier_reason JSONB NOT NULL DEFAULT '{}',
	ignore_reason TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain, address)
);

CREATE TABLE IF NOT EXISTS tokens (
	chain TEXT NOT NULL,
	address TEXT NOT NULL,
	symbol TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL DEFAULT '',
	decimals INT NOT NULL DEFAULT 18,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain, address)
);

CREATE TABLE IF NOT EXISTS watch_pairs (
	chain TEXT NOT NULL,
	pair_address TEXT NOT NULL,
	dex TEXT NOT NULL DEFAULT '',
	token0_symbol TEXT NOT NULL DEFAULT '',
	token0_address TEXT NOT NULL DEFAULT '',
	token1_symbol TEXT NOT NULL DEFAULT '',
	token1_address TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL DEFAULT 'autopilot',
	priority INT NOT NULL DEFAULT 0,
	score DOUBLE PRECISION NOT NULL DEFAULT 0,
	reason JSONB NOT NULL DEFAULT '{}',
	expires_at TIMESTAMPTZ NOT NULL,
	last_seen TIMESTAMPTZ,
	PRIMARY KEY (chain, pair_address)
);

CREATE TABLE IF NOT EXISTS trades (
	chain TEXT NOT NULL,
	tx_hash TEXT NOT NULL,
	log_index INT NOT NULL,
	wallet_address TEXT,
	token_address TEXT,
	side TEXT,
	amount DOUBLE PRECISION,
	price DOUBLE PRECISION,
	usd_value DOUBLE PRECISION,
	block_number BIGINT,
	block_time TIMESTAMPTZ,
	dex TEXT,
	pair_address TEXT,
	decode_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain, tx_hash, log_index),
	CONSTRAINT trades_confidence_pair_check CHECK (decode_confidence < 0.6 OR pair_address IS NOT NULL)
);
CREATE INDEX IF NOT EXISTS idx_trades_wallet ON trades (chain, wallet_address) WHERE wallet_address IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_trades_token_time ON trades (chain, token_address, block_time);

CREATE TABLE IF NOT EXISTS positions (
	chain TEXT NOT NULL,
	wallet_address TEXT NOT NULL,
	token_address TEXT NOT NULL,
	quantity DOUBLE PRECISION NOT NULL DEFAULT 0,
	average_price DOUBLE PRECISION,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain, wallet_address, token_address)
);

CREATE TABLE IF NOT EXISTS wallet_metrics (
	chain TEXT NOT NULL,
	wallet_address TEXT NOT NULL,
	total_value DOUBLE PRECISION NOT NULL DEFAULT 0,
	pnl DOUBLE PRECISION NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain, wallet_address)
);

CREATE TABLE IF NOT EXISTS token_risk (
	chain TEXT NOT NULL,
	address TEXT NOT NULL,
	score DOUBLE PRECISION NOT NULL DEFAULT 0,
	tss DOUBLE PRECISION NOT NULL DEFAULT 0,
	flags JSONB NOT NULL DEFAULT '[]',
	components JSONB NOT NULL DEFAULT '{}',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain, address)
);

CREATE TABLE IF NOT EXISTS alerts (
	id BIGSERIAL PRIMARY KEY,
	chain TEXT NOT NULL,
	wallet_address TEXT,
	token_address TEXT,
	alert_type TEXT NOT NULL,
	tss DOUBLE PRECISION,
	conviction DOUBLE PRECISION,
	reasons JSONB NOT NULL DEFAULT '{}',
	narrative TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_alerts_wallet_type_time ON alerts (chain, wallet_address, token_address, alert_type, created_at);
CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts (created_at);

CREATE TABLE IF NOT EXISTS signal_outcomes (
	alert_id BIGINT NOT NULL REFERENCES alerts(id) ON DELETE CASCADE,
	horizon_minutes INT NOT NULL,
	was_sellable_entire_window BOOLEAN,
	min_exit_slippage_1k DOUBLE PRECISION,
	max_exit_slippage_1k DOUBLE PRECISION,
	tradeable_peak_gain DOUBLE PRECISION,
	exit_feasible_peak_gain DOUBLE PRECISION,
	exit_feasible_peak_time TIMESTAMPTZ,
	tradeable_drawdown DOUBLE PRECISION,
	net_tradeable_return_est DOUBLE PRECISION,
	trap_flag BOOLEAN NOT NULL DEFAULT false,
	evaluated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (alert_id, horizon_minutes)
);

CREATE TABLE IF NOT EXISTS gas_cost_observations (
	chain TEXT NOT NULL,
	tx_hash TEXT NOT NULL,
	gas_used BIGINT NOT NULL,
	effective_gas_price_wei DOUBLE PRECISION NOT NULL,
	native_price_usd DOUBLE PRECISION NOT NULL,
	gas_cost_usd DOUBLE PRECISION NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain, tx_hash)
);
CREATE INDEX IF NOT EXISTS idx_gas_obs_chain_time ON gas_cost_observations (chain, observed_at);

CREATE TABLE IF NOT EXISTS chain_gas_estimates (
	chain TEXT PRIMARY KEY,
	avg_gas_usd_1h DOUBLE PRECISION NOT NULL DEFAULT 0,
	p95_gas_usd_1h DOUBLE PRECISION NOT NULL DEFAULT 0,
	sample_count INT NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS settings_store (
	key TEXT PRIMARY KEY,
	value JSONB NOT NULL
);
`
