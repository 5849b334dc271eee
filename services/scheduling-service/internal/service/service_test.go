package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/conflict"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/duration"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/outbox"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/storage"
)

// 2025-03-03 is a Monday.
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	store *memStore
	rem   *fakeReminders
	out   *inbox
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := newMemStore()
	rem := &fakeReminders{}
	out := &inbox{}
	n := 0
	svc := New(Config{
		Store:     store,
		Reminders: rem,
		Notifier:  out,
		Engine:    availability.NewEngine(time.UTC, 0),
		Detector:  conflict.NewDetector(time.UTC),
		Clock:     clockwork.NewFakeClockAt(monday.Add(-7 * 24 * time.Hour)),
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	ctx := context.Background()
	_, err := svc.SaveTechnician(ctx, model.Technician{ID: "alice", Name: "Alice", DayOff: model.Monday})
	require.NoError(t, err)
	_, err = svc.SaveTechnician(ctx, model.Technician{ID: "bob", Name: "Bob", Hours: &model.WorkingHours{StartMinute: 9 * 60, EndMinute: 17 * 60}})
	require.NoError(t, err)
	return fixture{svc: svc, store: store, rem: rem, out: out}
}

func (f fixture) book(t *testing.T, start time.Time, d string) model.Reservation {
	t.Helper()
	r, err := f.svc.CreateReservation(context.Background(), CreateReservation{
		Start: start, Duration: d, CustomerEmail: "c@example.com", ServiceTitle: "AC repair",
	})
	require.NoError(t, err)
	return r
}

func TestCreateReservation(t *testing.T) {
	f := newFixture(t)
	r := f.book(t, monday.Add(10*time.Hour), "1h30min")

	assert.Equal(t, model.StatusPending, r.Status)
	assert.False(t, r.CreatedAt.IsZero())
	assert.Equal(t, []string{r.ID}, f.rem.armed)
	assert.Equal(t, []string{outbox.EventReservationCreated}, f.store.eventTypes())

	_, err := f.svc.CreateReservation(context.Background(), CreateReservation{Start: monday, Duration: "whenever"})
	assert.ErrorIs(t, err, duration.ErrInvalidFormat)

	_, err = f.svc.CreateReservation(context.Background(), CreateReservation{Duration: "1h"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestImportReservationIsIdempotent(t *testing.T) {
	f := newFixture(t)
	in := CreateReservation{ID: "ext-1", Start: monday.Add(9 * time.Hour), Duration: "1h", CreatedAt: monday.Add(-time.Hour)}

	r, err := f.svc.ImportReservation(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, r.CreatedAt.Equal(monday.Add(-time.Hour)))
	_, err = f.svc.ImportReservation(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []string{"ext-1"}, f.rem.armed)
	assert.Empty(t, f.store.eventTypes())
}

func TestAssign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, monday.Add(10*time.Hour), "1h")

	a, err := f.svc.Assign(ctx, r.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", a.TechnicianID)
	assert.True(t, a.Window.End.Equal(monday.Add(11*time.Hour)))

	got, err := f.svc.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInProgress, got.Status)
	assert.Equal(t, "bob", got.TechnicianID)
	assert.Contains(t, f.store.eventTypes(), outbox.EventReservationAssigned)
}

func TestAssignRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r1 := f.book(t, monday.Add(10*time.Hour), "1h")
	_, err := f.svc.Assign(ctx, r1.ID, "alice")
	var rej *conflict.RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, conflict.ReasonOffDuty, rej.Reason)

	got, _ := f.svc.GetReservation(ctx, r1.ID)
	assert.Equal(t, model.StatusPending, got.Status, "rejected assignment must not change state")

	_, err = f.svc.Assign(ctx, f.book(t, monday.Add(16*time.Hour), "2h").ID, "bob")
	assert.ErrorIs(t, err, &conflict.RejectionError{Reason: conflict.ReasonOutsideHours})

	_, err = f.svc.Assign(ctx, r1.ID, "bob")
	require.NoError(t, err)
	r3 := f.book(t, monday.Add(10*time.Hour+30*time.Minute), "1h")
	_, err = f.svc.Assign(ctx, r3.ID, "bob")
	assert.ErrorIs(t, err, &conflict.RejectionError{Reason: conflict.ReasonConflict})

	r4 := f.book(t, monday.Add(11*time.Hour), "1h")
	_, err = f.svc.Assign(ctx, r4.ID, "bob")
	assert.NoError(t, err, "touching windows do not conflict")

	_, err = f.svc.Assign(ctx, "nope", "bob")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReassignSupersedes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tuesday := monday.AddDate(0, 0, 1)
	r := f.book(t, tuesday.Add(10*time.Hour), "1h")

	_, err := f.svc.Assign(ctx, r.ID, "bob")
	require.NoError(t, err)
	_, err = f.svc.Assign(ctx, r.ID, "bob")
	require.NoError(t, err, "reassigning to the same technician is not a self-conflict")
	_, err = f.svc.Assign(ctx, r.ID, "alice")
	require.NoError(t, err)

	bobs, _ := f.store.TechnicianAssignments(ctx, "bob", time.Time{}, time.Time{})
	alices, _ := f.store.TechnicianAssignments(ctx, "alice", time.Time{}, time.Time{})
	assert.Empty(t, bobs)
	require.Len(t, alices, 1)
	assert.Len(t, f.store.assignments, 1)
}

func TestComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, monday.Add(10*time.Hour), "1h")

	_, err := f.svc.Complete(ctx, r.ID, "bob")
	assert.ErrorIs(t, err, ErrNotAssignedTechnician)

	_, err = f.svc.Assign(ctx, r.ID, "bob")
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, r.ID, "alice")
	assert.ErrorIs(t, err, ErrNotAssignedTechnician)

	done, err := f.svc.Complete(ctx, r.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDone, done.Status)
	assert.Contains(t, f.rem.cancelled, r.ID)
	require.Len(t, f.out.msgs, 1)
	assert.Equal(t, "c@example.com", f.out.msgs[0].Recipient)
	assert.Equal(t, "Your appointment 'AC repair' of 03/03 at 10:00 is complete.", f.out.msgs[0].Text)

	_, err = f.svc.Complete(ctx, r.ID, "bob")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = f.svc.Assign(ctx, r.ID, "bob")
	assert.ErrorIs(t, err, model.ErrInvalidTransition, "a finished reservation cannot be reassigned")
}

func TestCancelReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, monday.Add(10*time.Hour), "1h")
	_, err := f.svc.Assign(ctx, r.ID, "bob")
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelReservation(ctx, r.ID))
	assert.Empty(t, f.store.assignments)
	assert.Equal(t, []string{r.ID}, f.rem.cancelled)
	assert.Contains(t, f.store.eventTypes(), outbox.EventReservationCancelled)

	assert.ErrorIs(t, f.svc.CancelReservation(ctx, r.ID), storage.ErrNotFound)
	assert.NoError(t, f.svc.ForgetReservation(ctx, r.ID))
}

func TestSaturatedWindows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tuesday := monday.AddDate(0, 0, 1)
	// alice works Tuesdays, bob only 09:00-17:00: an 08:00 booking saturates until 09:00.
	f.book(t, tuesday.Add(8*time.Hour), "2h")

	got, err := f.svc.SaturatedWindows(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(tuesday.Add(8*time.Hour)))
	assert.True(t, got[0].End.Equal(tuesday.Add(9*time.Hour)))

	slots, err := f.svc.SaturatedSlots(ctx, time.Time{}, time.Time{}, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.True(t, slots[0].End.Equal(tuesday.Add(9*time.Hour)))
}

func TestSaturatedWindowsKeepsRunningReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tuesday := monday.AddDate(0, 0, 1)
	f.book(t, tuesday.Add(8*time.Hour), "2h")
	f.book(t, tuesday.AddDate(0, 0, 1).Add(8*time.Hour), "2h")

	// from falls inside the Tuesday booking; the result is clipped to it.
	from, to := tuesday.Add(8*time.Hour+30*time.Minute), tuesday.Add(12*time.Hour)
	got, err := f.svc.SaturatedWindows(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Start.Equal(from))
	assert.True(t, got[0].End.Equal(tuesday.Add(9*time.Hour)))

	got, err = f.svc.SaturatedWindows(ctx, tuesday.Add(10*time.Hour), to)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenSlots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.book(t, monday.Add(10*time.Hour), "1h")
	_, err := f.svc.Assign(ctx, r.ID, "bob")
	require.NoError(t, err)

	slots, err := f.svc.OpenSlots(ctx, "bob", monday, 2*time.Hour, time.Hour)
	require.NoError(t, err)
	var hours []int
	for _, s := range slots {
		hours = append(hours, s.Hour())
	}
	assert.Equal(t, []int{11, 12, 13, 14, 15}, hours)

	slots, err = f.svc.OpenSlots(ctx, "alice", monday, time.Hour, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, slots)

	_, err = f.svc.OpenSlots(ctx, "ghost", monday, time.Hour, time.Hour)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestSaveTechnician(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saved, err := f.svc.SaveTechnician(ctx, model.Technician{Name: "  Carol "})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "Carol", saved.Name)

	_, err = f.svc.SaveTechnician(ctx, model.Technician{ID: "dave", Hours: &model.WorkingHours{StartMinute: 600, EndMinute: 540}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	list, err := f.svc.ListTechnicians(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestIsRejected(t *testing.T) {
	assert.True(t, IsRejected(fmt.Errorf("create reservation: %w", duration.ErrInvalidFormat)))
	assert.True(t, IsRejected(invalid("start required")))
	assert.False(t, IsRejected(errors.New("connection reset")))
	assert.False(t, IsRejected(nil))
}
