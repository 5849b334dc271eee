package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/notify"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/outbox"
)

// Notifications logs every delivery attempt and emits notification.sent.v1 or
// notification.failed.v1 through the outbox in the same transaction.
type Notifications struct {
	store *Store
}

func NewNotifications(store *Store) *Notifications {
	return &Notifications{store: store}
}

var _ notify.Recorder = (*Notifications)(nil)

func (n *Notifications) Record(ctx context.Context, d notify.Delivery) error {
	payload, err := json.Marshal(map[string]any{"subject": d.Message.Subject, "text": d.Message.Text})
	if err != nil {
		return err
	}
	status, eventType := "sent", outbox.EventNotificationSent
	evtPayload := map[string]any{
		"reservation_id": d.Message.ReservationID,
		"kind":           d.Message.Kind,
		"channel":        d.Channel,
	}
	if d.Err != nil {
		status, eventType = "failed", outbox.EventNotificationFailed
		evtPayload["error_reason"] = d.Err.Error()
		evtPayload["failed_at"] = d.At.UTC().Format(time.RFC3339)
	} else {
		evtPayload["sent_at"] = d.At.UTC().Format(time.RFC3339)
	}
	evt, err := outbox.NewEvent("notification", d.Message.ReservationID, eventType, evtPayload)
	if err != nil {
		return err
	}
	reason := ""
	if d.Err != nil {
		reason = d.Err.Error()
	}

	return n.store.InTx(ctx, func(ctx context.Context) error {
		_, err := n.store.q(ctx).Exec(ctx, `
			INSERT INTO notifications (reservation_id, kind, channel, recipient, status, error_reason, payload)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, d.Message.ReservationID, d.Message.Kind, d.Channel, d.Message.Recipient, status, reason, payload)
		if err != nil {
			return err
		}
		return n.store.Enqueue(ctx, evt)
	})
}
