package notify

import (
	"context"
	"log/slog"
	"time"
)

// Delivery is the outcome of one Notify call on a channel.
type Delivery struct {
	Message Message
	Channel string
	Err     error
	At      time.Time
}

type Recorder interface {
	Record(ctx context.Context, d Delivery) error
}

// Recording wraps a channel notifier and records every attempt. A recording
// failure is logged and does not change the delivery result.
type Recording struct {
	Next     Notifier
	Channel  string
	Recorder Recorder
	Logger   *slog.Logger
	Now      func() time.Time
}

func (r Recording) Notify(ctx context.Context, msg Message) error {
	err := r.Next.Notify(ctx, msg)
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	d := Delivery{Message: msg, Channel: r.Channel, Err: err, At: now()}
	if recErr := r.Recorder.Record(ctx, d); recErr != nil && r.Logger != nil {
		r.Logger.Error("failed to persist notification", "err", recErr, "reservation_id", msg.ReservationID, "channel", r.Channel)
	}
	return err
}
