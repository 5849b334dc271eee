// Package service wires the availability engine, conflict detector and
// reminder scheduler to persistence and the outbox.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/conflict"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/duration"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/notify"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/outbox"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/reminders"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/storage"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotAssignedTechnician = errors.New("reservation is not assigned to this technician")

	errNotFound = storage.ErrNotFound
)

// Store is the persistence the service needs; *storage.Store implements it.
// Methods called with the ctx handed to InTx's fn join its transaction.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	Enqueue(ctx context.Context, evt outbox.Event) error

	InsertReservation(ctx context.Context, r model.Reservation, durationMinutes int) (bool, error)
	GetReservation(ctx context.Context, id string) (model.Reservation, error)
	LockReservation(ctx context.Context, id string) (model.Reservation, error)
	UpdateReservationState(ctx context.Context, r model.Reservation) error
	DeleteReservation(ctx context.Context, id string) error
	ListReservations(ctx context.Context, limit int) ([]model.Reservation, error)

	UpsertTechnician(ctx context.Context, t model.Technician) error
	GetTechnician(ctx context.Context, id string) (model.Technician, error)
	LockTechnician(ctx context.Context, id string) (model.Technician, error)
	ListTechnicians(ctx context.Context) ([]model.Technician, error)

	UpsertAssignment(ctx context.Context, a model.Assignment) (model.Assignment, error)
	TechnicianAssignments(ctx context.Context, technicianID string, from, to time.Time) ([]model.Assignment, error)

	Snapshot(ctx context.Context, from, to time.Time) (storage.Snapshot, error)
}

type Reminders interface {
	Arm(ctx context.Context, r model.Reservation) (reminders.ArmResult, error)
	Cancel(ctx context.Context, reservationID string) error
}

type Config struct {
	Store     Store
	Reminders Reminders
	Notifier  notify.Notifier
	Engine    *availability.Engine
	Detector  conflict.Detector
	Clock     clockwork.Clock
	Logger    *slog.Logger
	NewID     func() string
}

type Service struct {
	store     Store
	reminders Reminders
	notifier  notify.Notifier
	engine    *availability.Engine
	detector  conflict.Detector
	clock     clockwork.Clock
	logger    *slog.Logger
	newID     func() string
}

func New(cfg Config) *Service {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Engine == nil {
		cfg.Engine = availability.NewEngine(cfg.Detector.Location, 0)
	}
	if cfg.Notifier == nil {
		cfg.Notifier = notify.LogNotifier{Logger: cfg.Logger}
	}
	if cfg.NewID == nil {
		cfg.NewID = func() string { return uuid.NewString() }
	}
	return &Service{
		store:     cfg.Store,
		reminders: cfg.Reminders,
		notifier:  cfg.Notifier,
		engine:    cfg.Engine,
		detector:  cfg.Detector,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		newID:     cfg.NewID,
	}
}

func (s *Service) location() *time.Location {
	if s.engine != nil && s.engine.Location != nil {
		return s.engine.Location
	}
	return time.UTC
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsRejected reports whether err is a validation failure that retrying the
// same input cannot fix.
func IsRejected(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, duration.ErrInvalidFormat)
}

func trimmed(s string) string { return strings.TrimSpace(s) }
