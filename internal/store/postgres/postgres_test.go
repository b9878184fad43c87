package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"synapse-analytics/internal/model"
)

type mockBarsRepository struct {
	rows []BarRow
	err  error
	put  []BarRow
}

func (m *mockBarsRepository) GetBars(_ context.Context, _ string, _, _ time.Time) ([]BarRow, error) {
	return m.rows, m.err
}

func (m *mockBarsRepository) PutBars(_ context.Context, rows []BarRow) error {
	m.put = append(m.put, rows...)
	return m.err
}

func TestDatabase_ReadBars(t *testing.T) {
	ts := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	dbErr := errors.New("connection reset")

	tests := []struct {
		name    string
		rows    []BarRow
		repoErr error
		wantErr error
		wantLen int
	}{
		{"should throw ErrNoBars", nil, nil, ErrNoBars, 0},
		{"should pass through driver errors", nil, dbErr, dbErr, 0},
		{"should convert rows", []BarRow{{
			Symbol: "AAPL",
			TS:     ts,
			Open:   decimal.RequireFromString("187.15"),
			High:   decimal.RequireFromString("188.44"),
			Low:    decimal.RequireFromString("183.89"),
			Close:  decimal.RequireFromString("185.64"),
			Volume: decimal.NewFromInt(82488700),
		}}, nil, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &Database{bars: &mockBarsRepository{rows: tt.rows, err: tt.repoErr}}
			got, err := db.ReadBars(context.Background(), "AAPL", time.Time{}, time.Time{})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ReadBars() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadBars() unexpected error %v", err)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("ReadBars() len = %d, want %d", len(got), tt.wantLen)
			}
			b := got[0]
			if b.Close != 185.64 || b.Open != 187.15 || b.Volume != 82488700 || !b.TS.Equal(ts) {
				t.Errorf("ReadBars() bar = %+v", b)
			}
		})
	}
}

func TestDatabase_WriteBars(t *testing.T) {
	repo := &mockBarsRepository{}
	db := &Database{bars: repo}
	bars := []model.Bar{{Symbol: "X", TS: time.Unix(0, 0), Open: 1.25, High: 2, Low: 1, Close: 1.5, Volume: 10}}

	if err := db.WriteBars(context.Background(), bars); err != nil {
		t.Fatalf("WriteBars() error = %v", err)
	}
	if len(repo.put) != 1 || !repo.put[0].Open.Equal(decimal.RequireFromString("1.25")) {
		t.Fatalf("rows = %+v", repo.put)
	}

	if err := db.WriteBars(context.Background(), nil); err != nil {
		t.Fatalf("WriteBars(nil) error = %v", err)
	}
}

func TestNewDatabase_BadURL(t *testing.T) {
	if _, err := NewDatabase(context.Background(), "postgres://%zz"); err == nil {
		t.Fatal("expected a parse error")
	}
}
