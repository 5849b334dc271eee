package main

import (
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/md-rashed-zaman/techsched/libs/config"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/notify"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/storage"
)

// buildNotifier enables every configured channel and records each attempt.
// With no channel configured messages only go to the log.
func buildNotifier(store *storage.Store, clock clockwork.Clock, logger *slog.Logger) notify.Notifier {
	recorder := storage.NewNotifications(store)
	record := func(n notify.Notifier, channel string) notify.Notifier {
		return notify.Recording{Next: n, Channel: channel, Recorder: recorder, Logger: logger, Now: clock.Now}
	}

	var channels notify.Multi
	if host := config.String("SMTP_HOST", ""); host != "" {
		email := notify.NewSMTPNotifier(host, config.String("SMTP_PORT", "1025"), config.String("SMTP_FROM", ""))
		channels = append(channels, record(email, "email"))
	}
	if url := config.String("NOTIFY_WEBHOOK_URL", ""); url != "" {
		hook := notify.NewWebhookNotifier(url, config.String("NOTIFY_WEBHOOK_TOKEN", ""))
		channels = append(channels, record(hook, "webhook"))
	}
	if len(channels) == 0 {
		logger.Warn("no notification channel configured; reminders are only logged")
		return record(notify.LogNotifier{Logger: logger}, "log")
	}
	return channels
}
