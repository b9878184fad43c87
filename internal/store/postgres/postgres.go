// Package postgres reads and writes bar history in PostgreSQL. Prices are
// NUMERIC columns scanned through shopspring decimals.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"synapse-analytics/internal/model"
)

// Global error declarations.
var (
	ErrNoBars = errors.New("no bars found in datasource")
)

const schema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol TEXT        NOT NULL,
	ts     TIMESTAMPTZ NOT NULL,
	open   NUMERIC     NOT NULL,
	high   NUMERIC     NOT NULL,
	low    NUMERIC     NOT NULL,
	close  NUMERIC     NOT NULL,
	volume NUMERIC     NOT NULL DEFAULT 0,
	PRIMARY KEY (symbol, ts)
)`

// BarRow is a bars row as scanned from the database.
type BarRow struct {
	Symbol string
	TS     time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
}

type barsRepository interface {
	GetBars(ctx context.Context, symbol string, from, to time.Time) ([]BarRow, error)
	PutBars(ctx context.Context, rows []BarRow) error
}

// Database holds the pool and the queries run against it.
type Database struct {
	bars barsRepository
	conn *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(ctx context.Context, dbURL string) (*Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}

	slog.Info("connected", slog.String("component", "postgres"))
	return &Database{bars: queries{conn}, conn: conn}, nil
}

// ReadBars returns the bars of symbol with from <= ts <= to in time order.
// A zero from or to leaves that side open.
func (db *Database) ReadBars(ctx context.Context, symbol string, from, to time.Time) ([]model.Bar, error) {
	rows, err := db.bars.GetBars(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("symbol %s %w", symbol, ErrNoBars)
	}
	return convertBars(rows), nil
}

// WriteBars upserts bars.
func (db *Database) WriteBars(ctx context.Context, bars []model.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	rows := make([]BarRow, len(bars))
	for i, b := range bars {
		rows[i] = BarRow{
			Symbol: b.Symbol,
			TS:     b.TS,
			Open:   decimal.NewFromFloat(b.Open),
			High:   decimal.NewFromFloat(b.High),
			Low:    decimal.NewFromFloat(b.Low),
			Close:  decimal.NewFromFloat(b.Close),
			Volume: decimal.NewFromFloat(b.Volume),
		}
	}
	return db.bars.PutBars(ctx, rows)
}

// Close releases the pool.
func (db *Database) Close() error {
	if db.conn != nil {
		db.conn.Close()
	}
	return nil
}

func convertBars(rows []BarRow) []model.Bar {
	bars := make([]model.Bar, 0, len(rows))
	for _, r := range rows {
		bars = append(bars, model.Bar{
			Symbol: r.Symbol,
			TS:     r.TS.UTC(),
			Open:   r.Open.InexactFloat64(),
			High:   r.High.InexactFloat64(),
			Low:    r.Low.InexactFloat64(),
			Close:  r.Close.InexactFloat64(),
			Volume: r.Volume.InexactFloat64(),
		})
	}
	return bars
}

// queries runs the SQL for barsRepository on a pool.
type queries struct {
	pool *pgxpool.Pool
}

func (q queries) GetBars(ctx context.Context, symbol string, from, to time.Time) ([]BarRow, error) {
	var lo, hi *time.Time
	if !from.IsZero() {
		lo = &from
	}
	if !to.IsZero() {
		hi = &to
	}
	rows, err := q.pool.Query(ctx, `
		SELECT symbol, ts, open, high, low, close, volume
		FROM bars
		WHERE symbol = $1
		  AND ($2::timestamptz IS NULL OR ts >= $2)
		  AND ($3::timestamptz IS NULL OR ts <= $3)
		ORDER BY ts ASC`, symbol, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("postgres query bars: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[BarRow])
}

func (q queries) PutBars(ctx context.Context, rows []BarRow) error {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO bars (symbol, ts, open, high, low, close, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (symbol, ts) DO UPDATE SET
				open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
				close = EXCLUDED.close, volume = EXCLUDED.volume`,
			r.Symbol, r.TS, r.Open, r.High, r.Low, r.Close, r.Volume)
	}
	if err := q.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres upsert bars: %w", err)
	}
	return nil
}
