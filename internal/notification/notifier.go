// Package notification announces finished backtests and sweeps on external
// channels (a generic webhook, Telegram) or the log.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"synapse-analytics/internal/backtest"
)

// Notice summarises one finished run.
type Notice struct {
	RunID    string           `json:"run_id"`
	Kind     string           `json:"kind"` // "backtest" or "sweep"
	Strategy string           `json:"strategy"`
	Symbol   string           `json:"symbol"`
	Params   string           `json:"params,omitempty"`
	Points   int              `json:"points,omitempty"` // sweeps only
	Metrics  backtest.Metrics `json:"metrics"`
}

// Headline is a one-line human summary.
func (n Notice) Headline() string {
	s := fmt.Sprintf("%s %s on %s: %+.2f%% over %d trades",
		n.Kind, n.Strategy, n.Symbol, n.Metrics.TotalReturnPercent*100, n.Metrics.TotalTrades)
	if n.Points > 0 {
		s += fmt.Sprintf(" (best of %d)", n.Points)
	}
	return s
}

// Notifier delivers notices.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// LogNotifier writes notices to slog. Used when no channel is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, notice Notice) error {
	n.log.InfoContext(ctx, notice.Headline(), slog.String("run_id", notice.RunID))
	return nil
}

// Multi fans a notice out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notice) error {
	var errs []error
	for _, x := range m {
		if err := x.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Channels configures the remote channels. Empty fields disable a channel.
type Channels struct {
	WebhookURL     string
	TelegramToken  string
	TelegramChatID string
}

// New builds a notifier for the configured channels, or a LogNotifier when
// none is set.
func New(c Channels) Notifier {
	var m Multi
	if c.WebhookURL != "" {
		m = append(m, NewWebhookNotifier(c.WebhookURL))
	}
	if c.TelegramToken != "" && c.TelegramChatID != "" {
		m = append(m, NewTelegramNotifier(c.TelegramToken, c.TelegramChatID))
	}
	if len(m) == 0 {
		return NewLogNotifier(nil)
	}
	return m
}
