package journal

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/backtester/market"
)

// SQLite is the journal and candle store backed by a single database file.
type SQLite struct {
	db *sql.DB
}

var (
	_ Journal     = (*SQLite)(nil)
	_ CandleStore = (*SQLite)(nil)
)

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// one writer; keeps ":memory:" databases on a single connection too
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// InsertCandles stores raw candles, skipping keys already present. NaN fields
// are stored as NULL. It returns the number of new rows.
func (j *SQLite) InsertCandles(ctx context.Context, candles []market.Candle) (int, error) {
	if len(candles) == 0 {
		return 0, nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO ohlcv
		(exchange, symbol, timeframe, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, c := range candles {
		res, err := stmt.ExecContext(ctx,
			c.Exchange, c.Symbol, c.Timeframe, c.Timestamp,
			nullable(c.Open), nullable(c.High), nullable(c.Low), nullable(c.Close), nullable(c.Volume),
		)
		if err != nil {
			return 0, fmt.Errorf("journal: insert candle %s@%d: %w", c.Symbol, c.Timestamp, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

// ReplaceClean swaps the clean copy of one series for candles in a single
// transaction. Readers see either the old or the new series, never a mix.
func (j *SQLite) ReplaceClean(ctx context.Context, s market.Series, candles []market.Candle) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM ohlcv_clean
		WHERE exchange = ? AND symbol = ? AND timeframe = ?`,
		s.Exchange, s.Symbol, s.Timeframe); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ohlcv_clean
		(exchange, symbol, timeframe, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		if c.Series() != s {
			return fmt.Errorf("journal: candle %s/%s/%s does not belong to series %s/%s/%s",
				c.Exchange, c.Symbol, c.Timeframe, s.Exchange, s.Symbol, s.Timeframe)
		}
		if _, err := stmt.ExecContext(ctx,
			c.Exchange, c.Symbol, c.Timeframe, c.Timestamp,
			c.Open, c.High, c.Low, c.Close, c.Volume,
		); err != nil {
			return fmt.Errorf("journal: insert clean candle @%d: %w", c.Timestamp, err)
		}
	}

	return tx.Commit()
}

func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// toFloat converts a stored price or volume. NULL and anything that does not
// parse as a number become NaN.
func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case string:
		return parseStored(x)
	case []byte:
		return parseStored(string(x))
	}
	return math.NaN()
}

func parseStored(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
