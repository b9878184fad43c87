// Package report renders backtest results for the terminal.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"synapse-analytics/internal/backtest"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(16)

	gainStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	lossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(0, 1)
)

// Money rounds v to cents. NaN and ±Inf print as "n/a", "+Inf" and "-Inf".
func Money(v float64) string {
	if s, ok := special(v); ok {
		return s
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Percent formats a fraction as a percentage with two decimals.
func Percent(frac float64) string {
	if s, ok := special(frac); ok {
		return s
	}
	return decimal.NewFromFloat(frac).Shift(2).StringFixed(2) + "%"
}

// Ratio formats a dimensionless ratio with three decimals.
func Ratio(v float64) string {
	if s, ok := special(v); ok {
		return s
	}
	return decimal.NewFromFloat(v).StringFixed(3)
}

func special(v float64) (string, bool) {
	switch {
	case math.IsNaN(v):
		return "n/a", true
	case math.IsInf(v, 1):
		return "+Inf", true
	case math.IsInf(v, -1):
		return "-Inf", true
	}
	return "", false
}

func signed(s string, v float64) string {
	if v < 0 {
		return lossStyle.Render(s)
	}
	return gainStyle.Render(s)
}

// Render writes a boxed summary of res headed by title (usually the run ID
// and strategy).
func Render(w io.Writer, title string, res backtest.Result) error {
	m := res.Metrics
	initial := 0.0
	if len(res.EquityCurve) > 0 {
		initial = res.EquityCurve[0]
	}

	rows := []struct {
		label, value string
	}{
		{"Initial capital", Money(initial)},
		{"Final capital", Money(initial + m.TotalReturn)},
		{"Total return", signed(Money(m.TotalReturn), m.TotalReturn) + " (" + Percent(m.TotalReturnPercent) + ")"},
		{"Trades", fmt.Sprintf("%d (%d won, %d lost)", m.TotalTrades, m.WinningTrades, m.LosingTrades)},
		{"Win rate", Percent(m.WinRate)},
		{"Profit factor", Ratio(float64(m.ProfitFactor))},
		{"Average trade", signed(Money(m.AverageTrade), m.AverageTrade)},
		{"Average win", Money(m.AverageWin)},
		{"Average loss", Money(m.AverageLoss)},
		{"Max drawdown", Money(m.MaxDrawdown) + " (" + Percent(m.MaxDrawdownPercent) + ")"},
		{"Sharpe", Ratio(float64(m.SharpeRatio))},
		{"Calmar", Ratio(float64(m.CalmarRatio))},
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, titleStyle.Render(title))
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(r.label), r.value))
	}

	_, err := fmt.Fprintln(w, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	return err
}

// TradesTable writes one aligned row per trade.
func TradesTable(w io.Writer, trades []backtest.Trade) error {
	if len(trades) == 0 {
		_, err := fmt.Fprintln(w, "no trades")
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-4s %-6s %-20s %-20s %12s %12s %12s %9s\n",
		"#", "side", "entry", "exit", "entry_px", "exit_px", "pnl", "pnl%")
	for i, t := range trades {
		fmt.Fprintf(&b, "%-4d %-6s %-20s %-20s %12s %12s %12s %9s\n",
			i+1, t.Side,
			timeOrDash(t.EntryTime.IsZero(), t.EntryTime.Format("2006-01-02 15:04")),
			timeOrDash(t.ExitTime.IsZero(), t.ExitTime.Format("2006-01-02 15:04")),
			decimal.NewFromFloat(t.EntryPrice).StringFixed(4),
			decimal.NewFromFloat(t.ExitPrice).StringFixed(4),
			Money(t.PnL),
			Percent(t.PnLPercent),
		)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func timeOrDash(zero bool, s string) string {
	if zero {
		return "-"
	}
	return s
}
