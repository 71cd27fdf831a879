package journal

// Schema creates every table the journal uses. Timestamps are epoch
// milliseconds in UTC.
//
// ohlcv holds raw ingested candles; numeric fields may be NULL. ohlcv_clean
// holds the sanitized series and is only ever replaced per series.
const Schema = `
CREATE TABLE IF NOT EXISTS ohlcv (
	exchange TEXT NOT NULL,
	symbol TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	open REAL,
	high REAL,
	low REAL,
	close REAL,
	volume REAL,
	UNIQUE (exchange, symbol, timeframe, timestamp)
);

CREATE INDEX IF NOT EXISTS idx_ohlcv_series_ts ON ohlcv(exchange, symbol, timeframe, timestamp);

CREATE TABLE IF NOT EXISTS ohlcv_clean (
	exchange TEXT NOT NULL,
	symbol TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	timestamp INTEGER NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume REAL NOT NULL,
	UNIQUE (exchange, symbol, timeframe, timestamp)
);

CREATE INDEX IF NOT EXISTS idx_ohlcv_clean_series_ts ON ohlcv_clean(exchange, symbol, timeframe, timestamp);

CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	strategy TEXT NOT NULL,
	exchange TEXT NOT NULL,
	symbol TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	start_ts INTEGER NOT NULL,
	end_ts INTEGER NOT NULL,
	bars INTEGER NOT NULL,
	initial_capital REAL NOT NULL,
	final_equity REAL NOT NULL,
	trade_count INTEGER NOT NULL,
	params_json TEXT NOT NULL,
	stats_json TEXT,
	chart_path TEXT NOT NULL DEFAULT '',
	csv_path TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_backtest_runs_created ON backtest_runs(created_at);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL REFERENCES backtest_runs(run_id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	entry_time INTEGER NOT NULL,
	exit_time INTEGER NOT NULL,
	side TEXT NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	net_pnl REAL NOT NULL,
	pnl_pct REAL NOT NULL,
	result TEXT NOT NULL,
	entry_trigger TEXT NOT NULL,
	exit_trigger TEXT NOT NULL,
	bars_in_trade INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`
