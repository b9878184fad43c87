package backtest

import (
	"math"

	"synapse-analytics/internal/series"
	"synapse-analytics/internal/stats"
)

// periodsPerYear annualizes the per-bar equity returns.
const periodsPerYear = 252

// Metrics summarizes a run. Ratios that can degenerate to NaN or ±Inf use
// series.Number so they survive JSON.
type Metrics struct {
	TotalReturn        float64       `json:"total_return"`
	TotalReturnPercent float64       `json:"total_return_percent"`
	WinRate            float64       `json:"win_rate"`
	ProfitFactor       series.Number `json:"profit_factor"`
	SharpeRatio        series.Number `json:"sharpe_ratio"`
	MaxDrawdown        float64       `json:"max_drawdown"`         // currency, peak to trough
	MaxDrawdownPercent float64       `json:"max_drawdown_percent"` // fraction of peak
	TotalTrades        int           `json:"total_trades"`
	WinningTrades      int           `json:"winning_trades"`
	LosingTrades       int           `json:"losing_trades"`
	AverageWin         float64       `json:"average_win"`
	AverageLoss        float64       `json:"average_loss"`
	AverageTrade       float64       `json:"average_trade"`
	CalmarRatio        series.Number `json:"calmar_ratio"`
}

// WinRate is the fraction of trades with positive P&L, 0 with no trades.
func WinRate(trades []Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.PnL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades))
}

// ProfitFactor is gross profit over gross loss, where a zero P&L counts as
// a loss. +Inf with profit and no losses, 0 with neither.
func ProfitFactor(trades []Trade) float64 {
	profit, loss := 0.0, 0.0
	for _, t := range trades {
		if t.PnL > 0 {
			profit += t.PnL
		} else {
			loss += t.PnL
		}
	}
	loss = math.Abs(loss)
	if loss == 0 {
		if profit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return profit / loss
}

// AverageTrade is the mean P&L, 0 with no trades.
func AverageTrade(trades []Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range trades {
		sum += t.PnL
	}
	return sum / float64(len(trades))
}

// maxDrawdownAbs is the largest peak-to-trough fall of the curve in currency.
func maxDrawdownAbs(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}
	mdd, peak := 0.0, curve[0]
	for _, v := range curve {
		peak = math.Max(peak, v)
		mdd = math.Max(mdd, peak-v)
	}
	return mdd
}

func computeMetrics(initial, final float64, trades []Trade, equity []float64) Metrics {
	m := Metrics{
		TotalReturn:  final - initial,
		WinRate:      WinRate(trades),
		ProfitFactor: series.Number(ProfitFactor(trades)),
		TotalTrades:  len(trades),
		AverageTrade: AverageTrade(trades),
	}
	if initial != 0 {
		m.TotalReturnPercent = m.TotalReturn / initial
	}

	winSum, lossSum := 0.0, 0.0
	for _, t := range trades {
		if t.PnL > 0 {
			m.WinningTrades++
			winSum += t.PnL
		} else {
			m.LosingTrades++
			lossSum += t.PnL
		}
	}
	if m.WinningTrades > 0 {
		m.AverageWin = winSum / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AverageLoss = lossSum / float64(m.LosingTrades)
	}

	m.SharpeRatio = series.Number(stats.SharpeRatio(stats.Returns(equity), 0, periodsPerYear))
	m.MaxDrawdown = maxDrawdownAbs(equity)
	m.MaxDrawdownPercent = stats.MaxDrawdown(equity)
	m.CalmarRatio = series.Number(stats.CalmarRatio(equity, periodsPerYear))
	return m
}
