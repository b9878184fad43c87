package gateway

import (
	"synapse-analytics/internal/backtest"
	"synapse-analytics/internal/indicator"
	"synapse-analytics/internal/model"
	"synapse-analytics/internal/regression"
	"synapse-analytics/internal/series"
)

// IndicatorRequest is the body of POST /api/indicators. Only Close is
// required; the other columns must match its length when present.
type IndicatorRequest struct {
	Name   string           `json:"name"`
	Params indicator.Params `json:"params"`
	Close  []float64        `json:"close"`
	High   []float64        `json:"high"`
	Low    []float64        `json:"low"`
	Volume []float64        `json:"volume"`
}

// IndicatorResponse holds one series per output line ("value" for single
// line indicators).
type IndicatorResponse struct {
	Name   string                    `json:"name"`
	Series map[string]series.Numbers `json:"series"`
}

// RegressionRequest is the body of POST /api/regression. Fit selects the
// model used for the prediction; empty or "best" uses the best fit.
type RegressionRequest struct {
	Data  []float64 `json:"data"`
	Steps int       `json:"steps"`
	Fit   string    `json:"fit"`
}

// FitOut is one fitted model.
type FitOut struct {
	Equation     string                   `json:"equation"`
	RSquared     series.Number            `json:"r_squared"`
	Coefficients map[string]series.Number `json:"coefficients"`
	Fitted       series.Numbers           `json:"fitted"`
}

// RegressionResponse carries every candidate fit and the prediction.
type RegressionResponse struct {
	Best          regression.FitType `json:"best"`
	Linear        FitOut             `json:"linear"`
	Quadratic     FitOut             `json:"quadratic"`
	Exponential   FitOut             `json:"exponential"`
	TrendLine     series.Numbers     `json:"trend_line"`
	PredictedWith regression.FitType `json:"predicted_with"`
	Prediction    series.Numbers     `json:"prediction"`
}

// StatsRequest is the body of POST /api/stats. Data is a price series;
// Benchmark, when present, is a second price series of the same length.
type StatsRequest struct {
	Data           []float64 `json:"data"`
	Benchmark      []float64 `json:"benchmark"`
	RiskFree       float64   `json:"risk_free"`
	PeriodsPerYear float64   `json:"periods_per_year"`
}

// SummaryOut mirrors stats.Summary with JSON-safe numbers.
type SummaryOut struct {
	Mean     series.Number `json:"mean"`
	Std      series.Number `json:"std"`
	Min      series.Number `json:"min"`
	Max      series.Number `json:"max"`
	Median   series.Number `json:"median"`
	Skewness series.Number `json:"skewness"`
	Kurtosis series.Number `json:"kurtosis"`
}

// StatsResponse describes the series and its returns.
type StatsResponse struct {
	Summary     SummaryOut     `json:"summary"`
	Sharpe      series.Number  `json:"sharpe"`
	Sortino     series.Number  `json:"sortino"`
	MaxDrawdown series.Number  `json:"max_drawdown"`
	Calmar      series.Number  `json:"calmar"`
	Drawdown    series.Numbers `json:"drawdown"`
	Beta        *series.Number `json:"beta,omitempty"`
	Alpha       *series.Number `json:"alpha,omitempty"`
	Correlation *series.Number `json:"correlation,omitempty"`
}

// BacktestRequest is the body of POST /api/backtest. Bars win over Close.
// Explicit Signals skip the strategy. Config fields left out keep their
// defaults.
type BacktestRequest struct {
	Bars     []model.Bar        `json:"bars"`
	Close    []float64          `json:"close"`
	Signals  []int              `json:"signals"`
	Strategy string             `json:"strategy"`
	Params   map[string]float64 `json:"params"`
	Config   *backtest.Config   `json:"config"`
}

// BacktestResponse is the run result tagged with the strategy that drove it.
type BacktestResponse struct {
	Strategy string          `json:"strategy"`
	Result   backtest.Result `json:"result"`
}

// DemoFrame is one websocket message of the demo stream.
type DemoFrame struct {
	Type       string              `json:"type"` // "bar" or "done"
	Seq        int64               `json:"seq"`
	Bar        *model.Bar          `json:"bar,omitempty"`
	Indicators []indicator.Reading `json:"indicators,omitempty"`
}
