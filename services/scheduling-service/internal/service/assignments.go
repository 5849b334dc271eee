package service

import (
	"context"
	"fmt"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/duration"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/notify"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/outbox"
)

// Assign gives the reservation to the technician, or moves it from its current
// technician. The reservation moves to IN_PROGRESS. A rejection is returned as
// a *conflict.RejectionError.
func (s *Service) Assign(ctx context.Context, reservationID, technicianID string) (model.Assignment, error) {
	if trimmed(reservationID) == "" || trimmed(technicianID) == "" {
		return model.Assignment{}, invalid("reservation_id and technician_id required")
	}

	var out model.Assignment
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		r, err := s.store.LockReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		tech, err := s.store.LockTechnician(ctx, technicianID)
		if err != nil {
			return err
		}
		d, err := duration.ParseDuration(r.Duration)
		if err != nil {
			return err
		}
		existing, err := s.store.TechnicianAssignments(ctx, tech.ID, r.Start, r.Start.Add(d))
		if err != nil {
			return err
		}
		dec, err := s.detector.Check(tech, r, existing)
		if err != nil {
			return err
		}
		if !dec.OK() {
			return dec.Err()
		}

		if err := r.Advance(model.StatusInProgress); err != nil {
			return err
		}
		r.TechnicianID = tech.ID
		out, err = s.store.UpsertAssignment(ctx, model.Assignment{
			ID:            s.newID(),
			TechnicianID:  tech.ID,
			ReservationID: r.ID,
			Window:        dec.Window,
		})
		if err != nil {
			return err
		}
		if err := s.store.UpdateReservationState(ctx, r); err != nil {
			return err
		}
		evt, err := eventFor(r, outbox.EventReservationAssigned)
		if err != nil {
			return err
		}
		return s.store.Enqueue(ctx, evt)
	})
	if err != nil {
		return model.Assignment{}, err
	}
	s.logger.Info("technician assigned", "reservation_id", reservationID, "technician_id", technicianID)
	return out, nil
}

// Complete marks an IN_PROGRESS reservation DONE. Only its assigned technician
// may do so. The customer is told once the change is committed.
func (s *Service) Complete(ctx context.Context, reservationID, technicianID string) (model.Reservation, error) {
	var r model.Reservation
	err := s.store.InTx(ctx, func(ctx context.Context) error {
		var err error
		r, err = s.store.LockReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if r.TechnicianID == "" || r.TechnicianID != technicianID {
			return ErrNotAssignedTechnician
		}
		if r.Status != model.StatusInProgress {
			return fmt.Errorf("%w: reservation %s is %s", model.ErrInvalidTransition, r.ID, r.Status)
		}
		if err := r.Advance(model.StatusDone); err != nil {
			return err
		}
		if err := s.store.UpdateReservationState(ctx, r); err != nil {
			return err
		}
		evt, err := eventFor(r, outbox.EventReservationCompleted)
		if err != nil {
			return err
		}
		return s.store.Enqueue(ctx, evt)
	})
	if err != nil {
		return model.Reservation{}, err
	}

	if err := s.cancelReminders(ctx, r.ID); err != nil {
		s.logger.Error("reminder cancel failed", "err", err, "reservation_id", r.ID)
	}
	if r.CustomerEmail != "" {
		msg := notify.Message{
			ReservationID: r.ID,
			Recipient:     r.CustomerEmail,
			Kind:          "completed",
			Subject:       "Appointment completed",
			Text:          fmt.Sprintf("Your appointment '%s' of %s is complete.", r.ServiceTitle, r.Start.In(s.location()).Format("02/01 at 15:04")),
		}
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.logger.Error("completion notice failed", "err", err, "reservation_id", r.ID)
		}
	}
	return r, nil
}
