package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
)

const technicianColumns = `id, name, COALESCE(day_off, ''), start_minute, end_minute`

func scanTechnician(row pgx.Row) (model.Technician, error) {
	var t model.Technician
	var dayOff string
	var startMin, endMin *int
	if err := row.Scan(&t.ID, &t.Name, &dayOff, &startMin, &endMin); err != nil {
		return model.Technician{}, err
	}
	if err := t.DayOff.UnmarshalText([]byte(dayOff)); err != nil {
		return model.Technician{}, err
	}
	if startMin != nil && endMin != nil {
		t.Hours = &model.WorkingHours{StartMinute: *startMin, EndMinute: *endMin}
	}
	return t, nil
}

func (s *Store) UpsertTechnician(ctx context.Context, t model.Technician) error {
	var dayOff *string
	if t.DayOff.Valid() {
		v := t.DayOff.String()
		dayOff = &v
	}
	var startMin, endMin *int
	if t.Hours != nil {
		startMin, endMin = &t.Hours.StartMinute, &t.Hours.EndMinute
	}
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO technicians (id, name, day_off, start_minute, end_minute)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			day_off = EXCLUDED.day_off,
			start_minute = EXCLUDED.start_minute,
			end_minute = EXCLUDED.end_minute,
			updated_at = now()
	`, t.ID, t.Name, dayOff, startMin, endMin)
	return err
}

func (s *Store) GetTechnician(ctx context.Context, id string) (model.Technician, error) {
	t, err := scanTechnician(s.q(ctx).QueryRow(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE id = $1`, id))
	return t, notFound(err, "technician", id)
}

// LockTechnician serialises concurrent assignments to the same technician.
func (s *Store) LockTechnician(ctx context.Context, id string) (model.Technician, error) {
	t, err := scanTechnician(s.q(ctx).QueryRow(ctx, `SELECT `+technicianColumns+` FROM technicians WHERE id = $1 FOR UPDATE`, id))
	return t, notFound(err, "technician", id)
}

func (s *Store) ListTechnicians(ctx context.Context) ([]model.Technician, error) {
	rows, err := s.q(ctx).Query(ctx, `SELECT `+technicianColumns+` FROM technicians ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Technician
	for rows.Next() {
		t, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
