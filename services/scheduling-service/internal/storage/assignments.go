package storage

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
)

// UpsertAssignment keeps one row per reservation: a second assignment for the
// same reservation replaces the technician and window of the first.
func (s *Store) UpsertAssignment(ctx context.Context, a model.Assignment) (model.Assignment, error) {
	err := s.q(ctx).QueryRow(ctx, `
		INSERT INTO assignments (id, reservation_id, technician_id, window_start, window_end)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (reservation_id) DO UPDATE
		SET technician_id = EXCLUDED.technician_id,
			window_start = EXCLUDED.window_start,
			window_end = EXCLUDED.window_end,
			assigned_at = now()
		RETURNING id
	`, a.ID, a.ReservationID, a.TechnicianID, a.Window.Start, a.Window.End).Scan(&a.ID)
	if err != nil {
		return model.Assignment{}, mapAssignmentErr(err, a.TechnicianID)
	}
	return a, nil
}

// TechnicianAssignments lists the technician's assignments overlapping
// [from, to); zero bounds are open.
func (s *Store) TechnicianAssignments(ctx context.Context, technicianID string, from, to time.Time) ([]model.Assignment, error) {
	var lo, hi *time.Time
	if !from.IsZero() {
		lo = &from
	}
	if !to.IsZero() {
		hi = &to
	}
	rows, err := s.q(ctx).Query(ctx, `
		SELECT id, technician_id, reservation_id, window_start, window_end
		FROM assignments
		WHERE technician_id = $1
			AND ($2::timestamptz IS NULL OR window_end > $2)
			AND ($3::timestamptz IS NULL OR window_start < $3)
		ORDER BY window_start ASC
	`, technicianID, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Assignment
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.TechnicianID, &a.ReservationID, &a.Window.Start, &a.Window.End); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
