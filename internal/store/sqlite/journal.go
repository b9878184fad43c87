package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"synapse-analytics/internal/backtest"
	"synapse-analytics/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Journal persists backtest runs and their trades for later comparison.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// RunRecord is one completed backtest.
type RunRecord struct {
	ID        string
	Strategy  string
	Symbol    string
	Params    map[string]float64
	Config    backtest.Config
	Result    backtest.Result
	CreatedAt time.Time
}

// RunSummary is a journal row without its trades.
type RunSummary struct {
	ID           string           `json:"id"`
	Strategy     string           `json:"strategy"`
	Symbol       string           `json:"symbol"`
	FinalCapital decimal.Decimal  `json:"final_capital"`
	TotalReturn  decimal.Decimal  `json:"total_return"`
	TotalTrades  int              `json:"total_trades"`
	Metrics      backtest.Metrics `json:"metrics"`
	CreatedAt    time.Time        `json:"created_at"`
}

// NewJournal opens (or creates) the journal tables in dbPath.
func NewJournal(dbPath string) (*Journal, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite open journal: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite journal schema: %w", err)
	}

	slog.Info("opened run journal", slog.String("component", "journal"), slog.String("path", dbPath))
	return &Journal{db: db}, nil
}

// money renders v rounded to cents, or NULL when v is not finite.
func money(v float64) sql.NullString {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullString{}
	}
	return sql.NullString{String: decimal.NewFromFloat(v).StringFixed(2), Valid: true}
}

// price keeps four decimal places.
func price(v float64) sql.NullString {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullString{}
	}
	return sql.NullString{String: decimal.NewFromFloat(v).StringFixed(4), Valid: true}
}

func unixOrNull(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

// SaveRun writes the run and all its trades in one transaction.
func (j *Journal) SaveRun(ctx context.Context, rec RunRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	params, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	cfg, err := json.Marshal(rec.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	metrics, err := json.Marshal(rec.Result.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	final := rec.Config.InitialCapital + rec.Result.Metrics.TotalReturn

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO backtest_runs (id, strategy, symbol, params, config, metrics, final_capital, total_return, total_trades, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Strategy, rec.Symbol, string(params), string(cfg), string(metrics),
		money(final), money(rec.Result.Metrics.TotalReturn), len(rec.Result.Trades), rec.CreatedAt.Unix())
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite insert run: %w", err)
	}

	for i, t := range rec.Result.Trades {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO backtest_trades (run_id, seq, side, entry_ts, exit_ts, entry_price, exit_price, size, pnl, pnl_percent)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, rec.ID, i, string(t.Side), unixOrNull(t.EntryTime), unixOrNull(t.ExitTime),
			price(t.EntryPrice), price(t.ExitPrice), t.Size, money(t.PnL), t.PnLPercent)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert trade %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func parseDecimal(s sql.NullString) decimal.Decimal {
	if !s.Valid {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s.String)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ListRuns returns the last limit runs, newest first.
func (j *Journal) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, strategy, symbol, metrics, final_capital, total_return, total_trades, created_at
		FROM backtest_runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var metrics string
		var final, ret sql.NullString
		var created int64
		if err := rows.Scan(&r.ID, &r.Strategy, &r.Symbol, &metrics, &final, &ret, &r.TotalTrades, &created); err != nil {
			return nil, fmt.Errorf("sqlite scan run: %w", err)
		}
		if err := json.Unmarshal([]byte(metrics), &r.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics of %s: %w", r.ID, err)
		}
		r.FinalCapital = parseDecimal(final)
		r.TotalReturn = parseDecimal(ret)
		r.CreatedAt = time.Unix(created, 0).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetTrades returns the trades of a run in execution order. Prices come
// back at the stored precision.
func (j *Journal) GetTrades(ctx context.Context, runID string) ([]backtest.Trade, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	rows, err := j.db.QueryContext(ctx, `
		SELECT side, entry_ts, exit_ts, entry_price, exit_price, size, pnl, pnl_percent
		FROM backtest_trades WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite query trades: %w", err)
	}
	defer rows.Close()

	var trades []backtest.Trade
	for rows.Next() {
		var t backtest.Trade
		var side string
		var entryTS, exitTS sql.NullInt64
		var entry, exit, pnl sql.NullString
		var pct sql.NullFloat64
		if err := rows.Scan(&side, &entryTS, &exitTS, &entry, &exit, &t.Size, &pnl, &pct); err != nil {
			return nil, fmt.Errorf("sqlite scan trade: %w", err)
		}
		t.Side = model.Side(side)
		if entryTS.Valid {
			t.EntryTime = time.Unix(entryTS.Int64, 0).UTC()
		}
		if exitTS.Valid {
			t.ExitTime = time.Unix(exitTS.Int64, 0).UTC()
		}
		t.EntryPrice = parseDecimal(entry).InexactFloat64()
		t.ExitPrice = parseDecimal(exit).InexactFloat64()
		t.PnL = parseDecimal(pnl).InexactFloat64()
		t.PnLPercent = pct.Float64
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
