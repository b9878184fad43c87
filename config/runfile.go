package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"synapse-analytics/internal/backtest"
)

var ErrNoDataSource = errors.New("config: run file names no data source")

// DataSource says where a run's bars come from. Exactly one of CSV,
// SQLite, Postgres or Synthetic should be set.
type DataSource struct {
	CSV       string         `yaml:"csv"` // doublestar glob
	SQLite    string         `yaml:"sqlite"`
	Postgres  string         `yaml:"postgres"`
	Synthetic *SyntheticData `yaml:"synthetic"`

	Symbol string    `yaml:"symbol"`
	From   time.Time `yaml:"from"`
	To     time.Time `yaml:"to"`
}

// SyntheticData parameterises a seeded random walk.
type SyntheticData struct {
	Bars       int           `yaml:"bars"`
	Seed       int64         `yaml:"seed"`
	Volatility float64       `yaml:"volatility"`
	Trend      float64       `yaml:"trend"`
	Interval   time.Duration `yaml:"interval"`

	// TradingDays skips weekends and Holidays (YYYY-MM-DD).
	TradingDays bool     `yaml:"trading_days"`
	Holidays    []string `yaml:"holidays"`
}

// StrategySpec names a strategy and its parameters.
type StrategySpec struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params"`
}

// SweepSpec is a parameter grid over one strategy. Every combination of
// Grid values is one point; Strategy.Params supplies fixed values.
type SweepSpec struct {
	Grid    map[string][]float64 `yaml:"grid"`
	Workers int                  `yaml:"workers"`
}

// RunFile is a YAML description of a backtest or sweep.
type RunFile struct {
	Name     string          `yaml:"name"`
	Data     DataSource      `yaml:"data"`
	Strategy StrategySpec    `yaml:"strategy"`
	Backtest backtest.Config `yaml:"backtest"`
	Sweep    *SweepSpec      `yaml:"sweep"`
}

// LoadRunFile reads and parses a run file. Engine settings missing from the
// file keep backtest.DefaultConfig values.
func LoadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run file: %w", err)
	}
	return ParseRunFile(data)
}

// ParseRunFile parses run file YAML.
func ParseRunFile(data []byte) (*RunFile, error) {
	rf := &RunFile{Backtest: backtest.DefaultConfig()}
	if err := yaml.Unmarshal(data, rf); err != nil {
		return nil, fmt.Errorf("parse run file: %w", err)
	}
	d := rf.Data
	if d.CSV == "" && d.SQLite == "" && d.Postgres == "" && d.Synthetic == nil {
		return nil, ErrNoDataSource
	}
	if rf.Strategy.Name == "" {
		rf.Strategy.Name = "ma_crossover"
	}
	return rf, nil
}

// Points expands the grid into parameter sets merged over base, in a
// deterministic order: keys sorted, last key varying fastest.
func (s SweepSpec) Points(base map[string]float64) []map[string]float64 {
	keys := make([]string, 0, len(s.Grid))
	for k, vs := range s.Grid {
		if len(vs) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	points := []map[string]float64{cloneParams(base)}
	for _, k := range keys {
		next := make([]map[string]float64, 0, len(points)*len(s.Grid[k]))
		for _, p := range points {
			for _, v := range s.Grid[k] {
				q := cloneParams(p)
				q[k] = v
				next = append(next, q)
			}
		}
		points = next
	}
	return points
}

func cloneParams(p map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(p)+2)
	for k, v := range p {
		out[k] = v
	}
	return out
}
