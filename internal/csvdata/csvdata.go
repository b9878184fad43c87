// Package csvdata reads OHLCV bars from CSV files and writes bars and trades
// back out.
//
// Input rows are timestamp,open,high,low,close,volume. A header row is
// skipped when its first field is not a timestamp. Timestamps may be
// RFC3339, a plain date (2006-01-02) or unix seconds.
package csvdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"synapse-analytics/internal/backtest"
	"synapse-analytics/internal/model"
)

// ErrNoFiles is returned by LoadGlob when the pattern matches nothing.
var ErrNoFiles = errors.New("csvdata: no files matched")

const columns = 6

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timestamp %q", s)
	}
	return time.Unix(sec, 0).UTC(), nil
}

// Parse reads every bar from r and tags it with symbol. Bars are returned
// sorted by time.
func Parse(r io.Reader, symbol string) ([]model.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = columns
	cr.TrimLeadingSpace = true

	var bars []model.Bar
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvdata: line %d: %w", line, err)
		}

		ts, err := parseTime(rec[0])
		if err != nil {
			if line == 1 {
				continue // header
			}
			return nil, fmt.Errorf("csvdata: line %d: %w", line, err)
		}

		var v [columns - 1]float64
		for i := range v {
			v[i], err = strconv.ParseFloat(strings.TrimSpace(rec[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("csvdata: line %d column %d: %w", line, i+2, err)
			}
		}
		bars = append(bars, model.Bar{
			Symbol: symbol,
			TS:     ts,
			Open:   v[0],
			High:   v[1],
			Low:    v[2],
			Close:  v[3],
			Volume: v[4],
		})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].TS.Before(bars[j].TS) })
	return bars, nil
}

// SymbolFromPath is the file name without its extension.
func SymbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReadFile parses one CSV file, using its name as the symbol.
func ReadFile(path string) ([]model.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csvdata: open: %w", err)
	}
	defer f.Close()
	return Parse(f, SymbolFromPath(path))
}

// LoadGlob reads every file matching pattern (doublestar syntax, e.g.
// data/**/*.csv) and groups the bars by symbol.
func LoadGlob(pattern string) (map[string][]model.Bar, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("csvdata: glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, pattern)
	}
	sort.Strings(matches)

	out := make(map[string][]model.Bar, len(matches))
	for _, path := range matches {
		bars, err := ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		sym := SymbolFromPath(path)
		out[sym] = append(out[sym], bars...)
	}
	for sym := range out {
		bars := out[sym]
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].TS.Before(bars[j].TS) })
	}
	return out, nil
}

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// WriteBars writes bars with a header row, timestamps in RFC3339.
func WriteBars(w io.Writer, bars []model.Bar) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"timestamp", "open", "high", "low", "close", "volume"})
	for _, b := range bars {
		_ = cw.Write([]string{
			b.TS.UTC().Format(time.RFC3339),
			formatF(b.Open), formatF(b.High), formatF(b.Low), formatF(b.Close), formatF(b.Volume),
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteTrades writes one row per closed trade.
func WriteTrades(w io.Writer, trades []backtest.Trade) error {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"side", "entry_time", "exit_time", "entry", "exit", "size", "pnl", "pnl_percent"})
	for _, t := range trades {
		_ = cw.Write([]string{
			string(t.Side),
			t.EntryTime.Format(time.RFC3339),
			t.ExitTime.Format(time.RFC3339),
			formatF(t.EntryPrice), formatF(t.ExitPrice), formatF(t.Size),
			formatF(t.PnL), formatF(t.PnLPercent),
		})
	}
	cw.Flush()
	return cw.Error()
}
