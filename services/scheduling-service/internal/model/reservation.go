package model

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTransition = errors.New("invalid status transition")

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 1
	case StatusInProgress:
		return 2
	case StatusDone:
		return 3
	default:
		return 0
	}
}

func (s Status) Valid() bool { return s.rank() > 0 }

// CanAdvanceTo allows staying put or moving forward; never backwards.
func (s Status) CanAdvanceTo(next Status) bool {
	return s.Valid() && next.Valid() && next.rank() >= s.rank()
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown reservation status %q", raw)
	}
	return s, nil
}

type Reservation struct {
	ID            string    `json:"id" yaml:"id"`
	Start         time.Time `json:"start" yaml:"start"`
	Duration      string    `json:"duration" yaml:"duration"`
	TechnicianID  string    `json:"technician_id,omitempty" yaml:"technician_id"`
	Status        Status    `json:"status" yaml:"status"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	CustomerEmail string    `json:"customer_email,omitempty" yaml:"customer_email"`
	ServiceTitle  string    `json:"service_title,omitempty" yaml:"service_title"`
}

// Advance moves the reservation to next, refusing any reverse transition.
func (r *Reservation) Advance(next Status) error {
	if !r.Status.CanAdvanceTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, next)
	}
	r.Status = next
	return nil
}

// Assignment binds one technician to one reservation. There is at most one per reservation.
type Assignment struct {
	ID            string     `json:"id"`
	TechnicianID  string     `json:"technician_id"`
	ReservationID string     `json:"reservation_id"`
	Window        TimeWindow `json:"window"`
}
