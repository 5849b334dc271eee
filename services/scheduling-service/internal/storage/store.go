// Package storage is the Postgres persistence layer for reservations,
// technicians, assignments and reminder jobs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/md-rashed-zaman/techsched/libs/db"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/conflict"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/outbox"
)

var (
	ErrNotFound = errors.New("not found")
	ErrNoTx     = errors.New("operation requires a transaction")
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type txKey struct{}

type Store struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewStore(pool *db.Pool, outboxRepo *outbox.Repository) *Store {
	return &Store{pool: pool, outbox: outboxRepo}
}

// InTx runs fn in one transaction; store methods called with the ctx passed
// to fn join it. fn's error rolls everything back.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

// Enqueue writes an outbox event in the caller's transaction.
func (s *Store) Enqueue(ctx context.Context, evt outbox.Event) error {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return fmt.Errorf("outbox %s: %w", evt.EventType, ErrNoTx)
	}
	_, err := s.outbox.Insert(ctx, tx, evt)
	return err
}

// Snapshot reads reservations overlapping [from, to) and the full roster in
// one REPEATABLE READ transaction. Zero bounds are open.
func (s *Store) Snapshot(ctx context.Context, from, to time.Time) (Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return Snapshot{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	txCtx := context.WithValue(ctx, txKey{}, tx)
	res, err := s.ReservationsBetween(txCtx, from, to)
	if err != nil {
		return Snapshot{}, err
	}
	techs, err := s.ListTechnicians(txCtx)
	if err != nil {
		return Snapshot{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Reservations: res, Technicians: techs}, nil
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// mapAssignmentErr turns the no-overlap exclusion constraint into the same
// rejection the detector produces.
func mapAssignmentErr(err error, technicianID string) error {
	if isPgCode(err, pgExclusionViolation) {
		return &conflict.RejectionError{Reason: conflict.ReasonConflict, TechnicianID: technicianID}
	}
	return err
}

func notFound(err error, what, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return err
}
