package storage

import (
	"context"

	otelx "github.com/md-rashed-zaman/techsched/libs/otel"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/reminders"
)

// ReminderJobs is the durable reminders.Store.
type ReminderJobs struct {
	store *Store
}

func NewReminderJobs(store *Store) *ReminderJobs {
	return &ReminderJobs{store: store}
}

var _ reminders.Store = (*ReminderJobs)(nil)

func (r *ReminderJobs) SaveJobs(ctx context.Context, jobs []reminders.Job) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	return r.store.InTx(ctx, func(ctx context.Context) error {
		for _, j := range jobs {
			_, err := r.store.q(ctx).Exec(ctx, `
				INSERT INTO reminder_jobs (reservation_id, kind, recipient, service_title, start_at, fire_at, traceparent, tracestate)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT (reservation_id, kind) DO UPDATE
				SET recipient = EXCLUDED.recipient,
					service_title = EXCLUDED.service_title,
					start_at = EXCLUDED.start_at,
					fire_at = EXCLUDED.fire_at
			`, j.ReservationID, string(j.Kind), j.Recipient, j.ServiceTitle, j.Start, j.FireAt, traceparent, tracestate)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ReminderJobs) DeleteJob(ctx context.Context, reservationID string, kind reminders.Kind) error {
	_, err := r.store.q(ctx).Exec(ctx, `DELETE FROM reminder_jobs WHERE reservation_id = $1 AND kind = $2`, reservationID, string(kind))
	return err
}

func (r *ReminderJobs) DeleteJobs(ctx context.Context, reservationID string) error {
	_, err := r.store.q(ctx).Exec(ctx, `DELETE FROM reminder_jobs WHERE reservation_id = $1`, reservationID)
	return err
}

func (r *ReminderJobs) PendingJobs(ctx context.Context) ([]reminders.Job, error) {
	rows, err := r.store.q(ctx).Query(ctx, `
		SELECT reservation_id, kind, recipient, service_title, start_at, fire_at
		FROM reminder_jobs
		ORDER BY fire_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []reminders.Job
	for rows.Next() {
		var j reminders.Job
		var kind string
		if err := rows.Scan(&j.ReservationID, &kind, &j.Recipient, &j.ServiceTitle, &j.Start, &j.FireAt); err != nil {
			return nil, err
		}
		if j.Kind, err = reminders.ParseKind(kind); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return jobs, nil
}
