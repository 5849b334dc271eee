package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
)

type Snapshot struct {
	Reservations []model.Reservation
	Technicians  []model.Technician
}

const reservationColumns = `id, start_at, duration, COALESCE(technician_id, ''), status, customer_email, service_title, created_at`

func scanReservation(row pgx.Row) (model.Reservation, error) {
	var r model.Reservation
	var status string
	if err := row.Scan(&r.ID, &r.Start, &r.Duration, &r.TechnicianID, &status, &r.CustomerEmail, &r.ServiceTitle, &r.CreatedAt); err != nil {
		return model.Reservation{}, err
	}
	r.Status = model.Status(status)
	return r, nil
}

func collectReservations(rows pgx.Rows) ([]model.Reservation, error) {
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// InsertReservation stores r; durationMinutes is the parsed form of r.Duration.
// It reports false when a reservation with the same id already exists.
func (s *Store) InsertReservation(ctx context.Context, r model.Reservation, durationMinutes int) (bool, error) {
	tag, err := s.q(ctx).Exec(ctx, `
		INSERT INTO reservations (id, start_at, duration, duration_minutes, technician_id, status, customer_email, service_title, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, r.ID, r.Start, r.Duration, durationMinutes, r.TechnicianID, string(r.Status), r.CustomerEmail, r.ServiceTitle, r.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	r, err := scanReservation(s.q(ctx).QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id))
	return r, notFound(err, "reservation", id)
}

// LockReservation is GetReservation with FOR UPDATE; use inside InTx.
func (s *Store) LockReservation(ctx context.Context, id string) (model.Reservation, error) {
	r, err := scanReservation(s.q(ctx).QueryRow(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id))
	return r, notFound(err, "reservation", id)
}

func (s *Store) UpdateReservationState(ctx context.Context, r model.Reservation) error {
	tag, err := s.q(ctx).Exec(ctx, `
		UPDATE reservations
		SET technician_id = NULLIF($2, ''), status = $3
		WHERE id = $1
	`, r.ID, r.TechnicianID, string(r.Status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "reservation", r.ID)
	}
	return nil
}

// DeleteReservation removes the reservation; its assignment cascades.
func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	tag, err := s.q(ctx).Exec(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notFound(pgx.ErrNoRows, "reservation", id)
	}
	return nil
}

func (s *Store) ListReservations(ctx context.Context, limit int) ([]model.Reservation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.q(ctx).Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		ORDER BY start_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// ReservationsBetween returns reservations overlapping [from, to), including
// ones that started before from and are still running. Zero bounds are open.
func (s *Store) ReservationsBetween(ctx context.Context, from, to time.Time) ([]model.Reservation, error) {
	var lo, hi *time.Time
	if !from.IsZero() {
		lo = &from
	}
	if !to.IsZero() {
		hi = &to
	}
	rows, err := s.q(ctx).Query(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE ($1::timestamptz IS NULL OR start_at + duration_minutes * interval '1 minute' > $1)
			AND ($2::timestamptz IS NULL OR start_at < $2)
		ORDER BY start_at ASC
	`, lo, hi)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}
