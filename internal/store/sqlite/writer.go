// Package sqlite persists bar history and the backtest run journal in a
// single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"synapse-analytics/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

const (
	defaultBatchSize  = 500
	defaultFlushDelay = 200 * time.Millisecond
)

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/analytics.db"
}

// Writer is a single-connection SQLite writer with transaction batching.
type Writer struct {
	db  *sql.DB
	log *slog.Logger
}

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

func open(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
}

// New creates a new SQLite Writer, initializes the database with WAL mode and schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Set connection pool for single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	l := slog.Default().With(slog.String("component", "sqlite"))
	l.Info("opened database", slog.String("path", cfg.DBPath))
	return &Writer{db: db, log: l}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS bars (
			symbol TEXT    NOT NULL,
			ts     INTEGER NOT NULL,
			open   REAL    NOT NULL,
			high   REAL    NOT NULL,
			low    REAL    NOT NULL,
			close  REAL    NOT NULL,
			volume REAL,
			PRIMARY KEY (symbol, ts)
		);

		CREATE TABLE IF NOT EXISTS backtest_runs (
			id            TEXT    PRIMARY KEY,
			strategy      TEXT    NOT NULL,
			symbol        TEXT    NOT NULL,
			params        TEXT    NOT NULL,
			config        TEXT    NOT NULL,
			metrics       TEXT    NOT NULL,
			final_capital TEXT,
			total_return  TEXT,
			total_trades  INTEGER NOT NULL,
			created_at    INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS backtest_trades (
			run_id      TEXT    NOT NULL REFERENCES backtest_runs(id) ON DELETE CASCADE,
			seq         INTEGER NOT NULL,
			side        TEXT    NOT NULL,
			entry_ts    INTEGER,
			exit_ts     INTEGER,
			entry_price TEXT,
			exit_price  TEXT,
			size        REAL    NOT NULL,
			pnl         TEXT,
			pnl_percent REAL,
			PRIMARY KEY (run_id, seq)
		);
	`)
	return err
}

// WriteBars upserts bars in one transaction.
func (w *Writer) WriteBars(ctx context.Context, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.ExecContext(ctx, b.Symbol, b.TS.Unix(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert bar %s@%d: %w", b.Symbol, b.TS.Unix(), err)
		}
	}

	return tx.Commit()
}

// Run reads bars from barCh and inserts them in batched transactions.
// Flushes every batchSize bars OR every flushDelay, whichever first.
// Blocks until ctx is cancelled or barCh is closed, and returns the
// number of bars committed. A failed batch is logged and dropped; the
// returned error then reports how many bars were lost.
func (w *Writer) Run(ctx context.Context, barCh <-chan model.Bar) (int, error) {
	batch := make([]model.Bar, 0, defaultBatchSize)
	timer := time.NewTimer(defaultFlushDelay)
	defer timer.Stop()

	committed, dropped := 0, 0
	var lastErr error
	done := func() (int, error) {
		if dropped > 0 {
			return committed, fmt.Errorf("sqlite: %d bars not written: %w", dropped, lastErr)
		}
		return committed, nil
	}
	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		// Use a fresh context so the final flush survives cancellation.
		if err := w.WriteBars(context.Background(), batch); err != nil {
			w.log.Error("batch insert error", slog.Any("err", err))
			dropped += len(batch)
			lastErr = err
		} else {
			committed += len(batch)
			w.log.Debug("committed bars", slog.Int("n", len(batch)), slog.Duration("took", time.Since(start)))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return done()

		case bar, ok := <-barCh:
			if !ok {
				flush()
				return done()
			}
			batch = append(batch, bar)
			if len(batch) >= defaultBatchSize {
				flush()
				timer.Reset(defaultFlushDelay)
			}

		case <-timer.C:
			flush()
			timer.Reset(defaultFlushDelay)
		}
	}
}

// GetLastTimestamp returns the last stored bar time for a symbol, or the
// zero time if none exist.
func (w *Writer) GetLastTimestamp(ctx context.Context, symbol string) (time.Time, error) {
	var ts sql.NullInt64
	err := w.db.QueryRowContext(ctx, `SELECT MAX(ts) FROM bars WHERE symbol = ?`, symbol).Scan(&ts)
	if err != nil {
		return time.Time{}, err
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.Unix(ts.Int64, 0).UTC(), nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
