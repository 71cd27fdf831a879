package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/market"
)

// LoadCandles returns one series in ascending timestamp order. Raw rows with
// NULL fields come back as NaN.
func (j *SQLite) LoadCandles(ctx context.Context, q Query) ([]market.Candle, error) {
	table := "ohlcv"
	if q.Clean {
		table = "ohlcv_clean"
	}

	var (
		where = []string{"exchange = ?", "symbol = ?", "timeframe = ?"}
		args  = []any{q.Exchange, q.Symbol, q.Timeframe}
	)
	if q.Start > 0 {
		where = append(where, "timestamp >= ?")
		args = append(args, q.Start)
	}
	if q.End > 0 {
		where = append(where, "timestamp <= ?")
		args = append(args, q.End)
	}

	order := "ASC"
	limit := ""
	if q.Limit > 0 {
		order = "DESC"
		limit = " LIMIT ?"
		args = append(args, q.Limit)
	}

	query := fmt.Sprintf(`
		SELECT exchange, symbol, timeframe, timestamp, open, high, low, close, volume
		FROM %s
		WHERE %s
		ORDER BY timestamp %s%s`, table, strings.Join(where, " AND "), order, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []market.Candle{}
	for rows.Next() {
		var (
			c              market.Candle
			o, h, l, cl, v any
		)
		if err := rows.Scan(&c.Exchange, &c.Symbol, &c.Timeframe, &c.Timestamp, &o, &h, &l, &cl, &v); err != nil {
			return nil, err
		}
		c.Open, c.High, c.Low, c.Close, c.Volume = toFloat(o), toFloat(h), toFloat(l), toFloat(cl), toFloat(v)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if q.Limit > 0 {
		for i, k := 0, len(out)-1; i < k; i, k = i+1, k-1 {
			out[i], out[k] = out[k], out[i]
		}
	}
	return out, nil
}

// RecordRun stores a run and its trades atomically.
func (j *SQLite) RecordRun(ctx context.Context, run Run, trades []backtest.Trade) error {
	if run.ID == "" {
		return errors.New("journal: run id is required")
	}

	var stats sql.NullString
	if run.Stats != nil {
		b, err := json.Marshal(run.Stats)
		if err != nil {
			return err
		}
		stats = sql.NullString{String: string(b), Valid: true}
	}
	params := string(run.Params)
	if params == "" {
		params = "{}"
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO backtest_runs
		(run_id, strategy, exchange, symbol, timeframe, start_ts, end_ts, bars,
		 initial_capital, final_equity, trade_count, params_json, stats_json,
		 chart_path, csv_path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Strategy, run.Exchange, run.Symbol, run.Timeframe,
		millis(run.Start), millis(run.End), run.Bars,
		run.InitialCapital, run.FinalEquity, len(trades), params, stats,
		run.ChartPath, run.CSVPath, millis(run.CreatedAt),
	); err != nil {
		return fmt.Errorf("journal: insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades
		(run_id, seq, entry_time, exit_time, side, entry_price, exit_price,
		 net_pnl, pnl_pct, result, entry_trigger, exit_trigger, bars_in_trade)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, t := range trades {
		if _, err := stmt.ExecContext(ctx,
			run.ID, i, millis(t.EntryTime), millis(t.ExitTime), t.Side.String(),
			t.EntryPrice, t.ExitPrice, t.NetPnL, t.PnLPct, string(t.Result),
			t.EntryTrigger, t.ExitTrigger, t.BarsInTrade,
		); err != nil {
			return fmt.Errorf("journal: insert trade %d of run %s: %w", i, run.ID, err)
		}
	}

	return tx.Commit()
}

const runColumns = `run_id, strategy, exchange, symbol, timeframe, start_ts, end_ts, bars,
	initial_capital, final_equity, trade_count, params_json, stats_json,
	chart_path, csv_path, created_at`

// GetRun returns a single run by ID.
func (j *SQLite) GetRun(ctx context.Context, id string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM backtest_runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("%w: %q", ErrRunNotFound, id)
		}
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs ORDER BY created_at DESC, run_id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTrades returns the trades of a run in ledger order.
func (j *SQLite) ListTrades(ctx context.Context, runID string) ([]backtest.Trade, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT entry_time, exit_time, side, entry_price, exit_price, net_pnl,
		       pnl_pct, result, entry_trigger, exit_trigger, bars_in_trade
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []backtest.Trade{}
	for rows.Next() {
		var (
			t            backtest.Trade
			entry, exit  int64
			side, result string
		)
		if err := rows.Scan(
			&entry, &exit, &side,
			&t.EntryPrice, &t.ExitPrice, &t.NetPnL, &t.PnLPct, &result,
			&t.EntryTrigger, &t.ExitTrigger, &t.BarsInTrade,
		); err != nil {
			return nil, err
		}
		t.EntryTime = fromMillis(entry)
		t.ExitTime = fromMillis(exit)
		t.Side = backtest.Long
		t.Result = backtest.Outcome(result)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r                   Run
		start, end, created int64
		params              string
		stats               sql.NullString
	)
	if err := s.Scan(
		&r.ID, &r.Strategy, &r.Exchange, &r.Symbol, &r.Timeframe,
		&start, &end, &r.Bars,
		&r.InitialCapital, &r.FinalEquity, &r.TradeCount, &params, &stats,
		&r.ChartPath, &r.CSVPath, &created,
	); err != nil {
		return Run{}, err
	}
	r.Start = fromMillis(start)
	r.End = fromMillis(end)
	r.CreatedAt = fromMillis(created)
	r.Params = json.RawMessage(params)

	if stats.Valid {
		var st backtest.Stats
		if err := json.Unmarshal([]byte(stats.String), &st); err != nil {
			return Run{}, fmt.Errorf("journal: run %s stats: %w", r.ID, err)
		}
		r.Stats = &st
	}
	return r, nil
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
