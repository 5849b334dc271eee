package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/service"
)

const (
	TopicBookingCreated   = "booking.reservation.created.v1"
	TopicBookingCancelled = "booking.reservation.cancelled.v1"
)

// Importer is the part of the scheduling service fed by booking events.
type Importer interface {
	ImportReservation(ctx context.Context, in service.CreateReservation) (model.Reservation, error)
	ForgetReservation(ctx context.Context, id string) error
}

type bookingEvent struct {
	ReservationID string `json:"reservation_id"`
	StartTime     string `json:"start_time"`
	Duration      string `json:"duration"`
	CustomerEmail string `json:"customer_email"`
	ServiceTitle  string `json:"service_title"`
	CreatedAt     string `json:"created_at"`
}

// BookingHandlers maps booking topics onto the importer. Malformed payloads
// are logged and dropped; only storage failures are returned for redelivery.
func BookingHandlers(imp Importer, logger *slog.Logger) map[string]Handler {
	return map[string]Handler{
		TopicBookingCreated: func(ctx context.Context, msg kafka.Message) error {
			var evt bookingEvent
			if err := json.Unmarshal(msg.Value, &evt); err != nil {
				logger.Error("invalid booking event", "err", err, "topic", msg.Topic)
				return nil
			}
			in, ok := evt.reservation()
			if !ok {
				logger.Error("missing booking fields", "reservation_id", evt.ReservationID)
				return nil
			}
			_, err := imp.ImportReservation(ctx, in)
			if service.IsRejected(err) {
				logger.Warn("booking event rejected", "err", err, "reservation_id", in.ID)
				return nil
			}
			return err
		},
		TopicBookingCancelled: func(ctx context.Context, msg kafka.Message) error {
			var evt bookingEvent
			if err := json.Unmarshal(msg.Value, &evt); err != nil || strings.TrimSpace(evt.ReservationID) == "" {
				logger.Error("invalid cancellation event", "err", err, "topic", msg.Topic)
				return nil
			}
			return imp.ForgetReservation(ctx, strings.TrimSpace(evt.ReservationID))
		},
	}
}

func (e bookingEvent) reservation() (service.CreateReservation, bool) {
	id := strings.TrimSpace(e.ReservationID)
	if id == "" || e.StartTime == "" || e.Duration == "" {
		return service.CreateReservation{}, false
	}
	start, err := time.Parse(time.RFC3339, e.StartTime)
	if err != nil {
		return service.CreateReservation{}, false
	}
	in := service.CreateReservation{
		ID:            id,
		Start:         start,
		Duration:      e.Duration,
		CustomerEmail: e.CustomerEmail,
		ServiceTitle:  e.ServiceTitle,
	}
	if e.CreatedAt != "" {
		if created, err := time.Parse(time.RFC3339, e.CreatedAt); err == nil {
			in.CreatedAt = created
		}
	}
	return in, true
}
