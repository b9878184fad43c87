package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"synapse-analytics/internal/backtest"
	"synapse-analytics/internal/indicator"
	"synapse-analytics/internal/regression"
	"synapse-analytics/internal/series"
	"synapse-analytics/internal/stats"
	"synapse-analytics/internal/strategy"
)

var errBadRequest = errors.New("bad request")

// maxPredictSteps bounds RegressionRequest.Steps; predictions are allocated
// up front.
const maxPredictSteps = 10_000

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"cache":      s.cache != nil,
		"ws_clients": s.hub.ClientCount(),
		"uptime_sec": int64(time.Since(s.start).Seconds()),
		"strategies": strategy.Names(),
		"ts":         time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleIndicatorNames(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	writeJSON(w, http.StatusOK, indicator.Names())
}

func (s *Server) computeIndicator(body []byte) (any, error) {
	var req IndicatorRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, badRequest("invalid JSON: %v", err)
	}
	if len(req.Close) == 0 {
		return nil, badRequest("close is required")
	}
	for name, col := range map[string][]float64{"high": req.High, "low": req.Low, "volume": req.Volume} {
		if len(col) != 0 && len(col) != len(req.Close) {
			return nil, badRequest("%s has %d values, close has %d", name, len(col), len(req.Close))
		}
	}

	start := time.Now()
	out, err := indicator.Compute(req.Name, indicator.Input{
		Close:  req.Close,
		High:   req.High,
		Low:    req.Low,
		Volume: req.Volume,
	}, req.Params)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IndicatorComputeDur.WithLabelValues(req.Name).Observe(time.Since(start).Seconds())
	}

	resp := IndicatorResponse{Name: req.Name, Series: make(map[string]series.Numbers, len(out))}
	for k, v := range out {
		resp.Series[k] = v
	}
	return resp, nil
}

func fitOut(f regression.Fit, coef map[string]float64) FitOut {
	out := FitOut{
		Equation:     f.Equation,
		RSquared:     series.Number(f.RSquared),
		Coefficients: make(map[string]series.Number, len(coef)),
		Fitted:       f.Fitted,
	}
	for k, v := range coef {
		out.Coefficients[k] = series.Number(v)
	}
	return out
}

func (s *Server) computeRegression(body []byte) (any, error) {
	var req RegressionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, badRequest("invalid JSON: %v", err)
	}
	if len(req.Data) == 0 {
		return nil, badRequest("data is required")
	}
	if req.Steps < 0 || req.Steps > maxPredictSteps {
		return nil, badRequest("steps must be between 0 and %d", maxPredictSteps)
	}

	best := regression.BestFit(req.Data)
	predictWith := best.Best
	if req.Fit != "" && req.Fit != "best" {
		ft, err := regression.ParseFitType(req.Fit)
		if err != nil {
			return nil, badRequest("%v", err)
		}
		predictWith = ft
	}

	return RegressionResponse{
		Best:          best.Best,
		Linear:        fitOut(best.Linear.Fit, map[string]float64{"slope": best.Linear.Slope, "intercept": best.Linear.Intercept}),
		Quadratic:     fitOut(best.Quadratic.Fit, map[string]float64{"a": best.Quadratic.A, "b": best.Quadratic.B, "c": best.Quadratic.C}),
		Exponential:   fitOut(best.Exponential.Fit, map[string]float64{"a": best.Exponential.A, "b": best.Exponential.B}),
		TrendLine:     best.Linear.Fitted,
		PredictedWith: predictWith,
		Prediction:    regression.PredictFuture(req.Data, req.Steps, predictWith),
	}, nil
}

func numberPtr(v float64) *series.Number {
	n := series.Number(v)
	return &n
}

func (s *Server) computeStats(body []byte) (any, error) {
	var req StatsRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, badRequest("invalid JSON: %v", err)
	}
	if len(req.Data) == 0 {
		return nil, badRequest("data is required")
	}
	if len(req.Benchmark) != 0 && len(req.Benchmark) != len(req.Data) {
		return nil, badRequest("benchmark has %d values, data has %d", len(req.Benchmark), len(req.Data))
	}
	ppy := req.PeriodsPerYear
	if ppy <= 0 {
		ppy = 252
	}

	sum := stats.Describe(req.Data)
	returns := stats.Returns(req.Data)
	resp := StatsResponse{
		Summary: SummaryOut{
			Mean:     series.Number(sum.Mean),
			Std:      series.Number(sum.Std),
			Min:      series.Number(sum.Min),
			Max:      series.Number(sum.Max),
			Median:   series.Number(sum.Median),
			Skewness: series.Number(sum.Skewness),
			Kurtosis: series.Number(sum.Kurtosis),
		},
		Sharpe:      series.Number(stats.SharpeRatio(returns, req.RiskFree, ppy)),
		Sortino:     series.Number(stats.SortinoRatio(returns, req.RiskFree, ppy)),
		MaxDrawdown: series.Number(stats.MaxDrawdown(req.Data)),
		Calmar:      series.Number(stats.CalmarRatio(req.Data, ppy)),
		Drawdown:    stats.DrawdownSeries(req.Data),
	}
	if len(req.Benchmark) != 0 {
		market := stats.Returns(req.Benchmark)
		resp.Beta = numberPtr(stats.Beta(returns, market))
		resp.Alpha = numberPtr(stats.Alpha(returns, market, req.RiskFree/ppy))
		resp.Correlation = numberPtr(stats.Correlation(returns, market))
	}
	return resp, nil
}

func (s *Server) computeBacktest(body []byte) (any, error) {
	cfg := backtest.DefaultConfig()
	req := BacktestRequest{Config: &cfg}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, badRequest("invalid JSON: %v", err)
	}
	if req.Config == nil {
		req.Config = &cfg
	}

	bars := req.Bars
	if len(bars) == 0 {
		bars = backtest.BarsFromCloses(req.Close)
	}
	if len(bars) == 0 {
		return nil, badRequest("bars or close is required")
	}

	name := "signals"
	signals := req.Signals
	if signals == nil {
		if req.Strategy == "" {
			req.Strategy = "ma_crossover"
		}
		strat, err := strategy.New(req.Strategy, req.Params)
		if err != nil {
			return nil, err
		}
		name = strat.Name()
		signals = strat.Signals(bars)
	}

	start := time.Now()
	res, err := backtest.RunBacktest(bars, signals, backtest.WithConfig(*req.Config), backtest.WithLogger(s.log))
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveBacktest(name, len(res.Trades), time.Since(start))
	}
	return BacktestResponse{Strategy: name, Result: res}, nil
}
