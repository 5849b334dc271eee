package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/duration"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/outbox"
)

type CreateReservation struct {
	ID            string
	Start         time.Time
	Duration      string
	CustomerEmail string
	ServiceTitle  string
	// CreatedAt defaults to now; imported reservations keep their own.
	CreatedAt time.Time
}

type reservationEvent struct {
	ReservationID string    `json:"reservation_id"`
	TechnicianID  string    `json:"technician_id,omitempty"`
	Start         time.Time `json:"start"`
	Duration      string    `json:"duration,omitempty"`
	Status        string    `json:"status"`
}

func eventFor(r model.Reservation, eventType string) (outbox.Event, error) {
	return outbox.NewEvent("reservation", r.ID, eventType, reservationEvent{
		ReservationID: r.ID,
		TechnicianID:  r.TechnicianID,
		Start:         r.Start.UTC(),
		Duration:      r.Duration,
		Status:        string(r.Status),
	})
}

// CreateReservation stores a new PENDING reservation, emits
// reservation.created.v1 and arms its reminders.
func (s *Service) CreateReservation(ctx context.Context, in CreateReservation) (model.Reservation, error) {
	r, created, err := s.insert(ctx, in, true)
	if err != nil {
		return model.Reservation{}, err
	}
	if !created {
		return model.Reservation{}, invalid("reservation %s already exists", r.ID)
	}
	s.arm(ctx, r)
	return r, nil
}

// ImportReservation records a reservation booked elsewhere. Replays of an
// already known id are a no-op.
func (s *Service) ImportReservation(ctx context.Context, in CreateReservation) (model.Reservation, error) {
	if trimmed(in.ID) == "" {
		return model.Reservation{}, invalid("reservation id required")
	}
	r, created, err := s.insert(ctx, in, false)
	if err != nil {
		return model.Reservation{}, err
	}
	if created {
		s.arm(ctx, r)
	}
	return r, nil
}

func (s *Service) insert(ctx context.Context, in CreateReservation, emit bool) (model.Reservation, bool, error) {
	if in.Start.IsZero() {
		return model.Reservation{}, false, invalid("start required")
	}
	minutes, err := duration.Parse(in.Duration)
	if err != nil {
		return model.Reservation{}, false, err
	}
	r := model.Reservation{
		ID:            trimmed(in.ID),
		Start:         in.Start,
		Duration:      trimmed(in.Duration),
		Status:        model.StatusPending,
		CreatedAt:     in.CreatedAt,
		CustomerEmail: trimmed(in.CustomerEmail),
		ServiceTitle:  trimmed(in.ServiceTitle),
	}
	if r.ID == "" {
		r.ID = s.newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.clock.Now()
	}

	var created bool
	err = s.store.InTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.store.InsertReservation(ctx, r, minutes)
		if err != nil || !created || !emit {
			return err
		}
		evt, err := eventFor(r, outbox.EventReservationCreated)
		if err != nil {
			return err
		}
		return s.store.Enqueue(ctx, evt)
	})
	if err != nil {
		return model.Reservation{}, false, fmt.Errorf("create reservation: %w", err)
	}
	return r, created, nil
}

func (s *Service) arm(ctx context.Context, r model.Reservation) {
	if s.reminders == nil {
		return
	}
	res, err := s.reminders.Arm(ctx, r)
	if err != nil {
		s.logger.Error("reminder arm failed", "err", err, "reservation_id", r.ID)
		return
	}
	s.logger.Info("reminders armed", "reservation_id", r.ID,
		"scheduled", len(res.Scheduled), "immediate", len(res.Immediate), "skipped", len(res.Skipped))
}

// CancelReservation deletes the reservation (its assignment cascades), emits
// reservation.cancelled.v1 and voids its reminders.
func (s *Service) CancelReservation(ctx context.Context, id string) error {
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		r, err := s.store.LockReservation(ctx, id)
		if err != nil {
			return err
		}
		if err := s.store.DeleteReservation(ctx, id); err != nil {
			return err
		}
		evt, err := eventFor(r, outbox.EventReservationCancelled)
		if err != nil {
			return err
		}
		return s.store.Enqueue(ctx, evt)
	})
	if err != nil {
		return err
	}
	return s.cancelReminders(ctx, id)
}

// ForgetReservation handles a cancellation published by another service.
// A reservation that is already gone is not an error.
func (s *Service) ForgetReservation(ctx context.Context, id string) error {
	if err := s.store.DeleteReservation(ctx, id); err != nil && !errors.Is(err, errNotFound) {
		return err
	}
	return s.cancelReminders(ctx, id)
}

func (s *Service) cancelReminders(ctx context.Context, id string) error {
	if s.reminders == nil {
		return nil
	}
	return s.reminders.Cancel(ctx, id)
}

func (s *Service) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

func (s *Service) ListReservations(ctx context.Context, limit int) ([]model.Reservation, error) {
	return s.store.ListReservations(ctx, limit)
}
