package model

import (
	"context"
	"time"
)

// ── Storage Port Interfaces ──
// These interfaces decouple the CLI and gateway from concrete bar sources
// (SQLite, Postgres, CSV). The analytics packages never import them.

// BarReader loads bar history for one symbol with from <= ts <= to.
// A zero from or to leaves that side of the range open.
type BarReader interface {
	ReadBars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error)

	// Close releases underlying resources.
	Close() error
}

// BarWriter persists bar history, replacing bars with the same symbol and
// timestamp.
type BarWriter interface {
	WriteBars(ctx context.Context, bars []Bar) error

	// Close releases underlying resources.
	Close() error
}
