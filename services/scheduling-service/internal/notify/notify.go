// Package notify delivers reminder and status messages to customers.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

// Message is channel-agnostic; each Notifier renders it for its transport.
type Message struct {
	ReservationID string `json:"reservation_id"`
	Recipient     string `json:"recipient"`
	Kind          string `json:"kind"`
	Subject       string `json:"subject"`
	Text          string `json:"text"`
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Notify(ctx context.Context, msg Message) error { return f(ctx, msg) }

// Multi fans a message out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogNotifier only writes the message to the log. Used when no transport is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(_ context.Context, msg Message) error {
	n.Logger.Info("notification", "reservation_id", msg.ReservationID, "recipient", msg.Recipient, "kind", msg.Kind, "text", msg.Text)
	return nil
}
