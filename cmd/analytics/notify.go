package main

import (
	"context"
	"log/slog"

	"synapse-analytics/internal/notification"
)

// announce sends n on the configured channels. Delivery failures are
// logged, never fatal.
func announce(ctx context.Context, n notification.Notice) {
	notifier := notification.New(notification.Channels{
		WebhookURL:     cfg.NotifyWebhookURL,
		TelegramToken:  cfg.TelegramToken,
		TelegramChatID: cfg.TelegramChatID,
	})
	if err := notifier.Notify(ctx, n); err != nil {
		slog.Warn("run notice not delivered", slog.String("run_id", n.RunID), slog.Any("err", err))
	}
}
