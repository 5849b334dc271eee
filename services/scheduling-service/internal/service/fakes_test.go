package service

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/conflict"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/duration"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/notify"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/outbox"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/reminders"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/storage"
)

type memState struct {
	reservations map[string]model.Reservation
	technicians  map[string]model.Technician
	assignments  map[string]model.Assignment // by reservation id
	events       []outbox.Event
}

func (s memState) clone() memState {
	return memState{
		reservations: maps.Clone(s.reservations),
		technicians:  maps.Clone(s.technicians),
		assignments:  maps.Clone(s.assignments),
		events:       append([]outbox.Event(nil), s.events...),
	}
}

// memStore rolls back to the state before InTx when fn fails.
type memStore struct {
	mu sync.Mutex
	memState
}

func newMemStore() *memStore {
	return &memStore{memState: memState{
		reservations: map[string]model.Reservation{},
		technicians:  map[string]model.Technician{},
		assignments:  map[string]model.Assignment{},
	}}
}

func (m *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	saved := m.memState.clone()
	m.mu.Unlock()
	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.memState = saved
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) Enqueue(_ context.Context, evt outbox.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *memStore) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.events {
		out = append(out, e.EventType)
	}
	return out
}

func missing(what, id string) error {
	return fmt.Errorf("%s %s: %w", what, id, storage.ErrNotFound)
}

func (m *memStore) InsertReservation(_ context.Context, r model.Reservation, _ int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[r.ID]; ok {
		return false, nil
	}
	m.reservations[r.ID] = r
	return true, nil
}

func (m *memStore) GetReservation(_ context.Context, id string) (model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return model.Reservation{}, missing("reservation", id)
	}
	return r, nil
}

func (m *memStore) LockReservation(ctx context.Context, id string) (model.Reservation, error) {
	return m.GetReservation(ctx, id)
}

func (m *memStore) UpdateReservationState(_ context.Context, r model.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.reservations[r.ID]
	if !ok {
		return missing("reservation", r.ID)
	}
	cur.TechnicianID, cur.Status = r.TechnicianID, r.Status
	m.reservations[r.ID] = cur
	return nil
}

func (m *memStore) DeleteReservation(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[id]; !ok {
		return missing("reservation", id)
	}
	delete(m.reservations, id)
	delete(m.assignments, id)
	return nil
}

func (m *memStore) ListReservations(_ context.Context, limit int) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.reservations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.After(out[j].Start) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) UpsertTechnician(_ context.Context, t model.Technician) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.technicians[t.ID] = t
	return nil
}

func (m *memStore) GetTechnician(_ context.Context, id string) (model.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.technicians[id]
	if !ok {
		return model.Technician{}, missing("technician", id)
	}
	return t, nil
}

func (m *memStore) LockTechnician(ctx context.Context, id string) (model.Technician, error) {
	return m.GetTechnician(ctx, id)
}

func (m *memStore) ListTechnicians(_ context.Context) ([]model.Technician, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Technician
	for _, t := range m.technicians {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpsertAssignment enforces the same no-overlap rule as the database constraint.
func (m *memStore) UpsertAssignment(_ context.Context, a model.Assignment) (model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.assignments {
		if other.ReservationID != a.ReservationID && other.TechnicianID == a.TechnicianID && other.Window.Overlaps(a.Window) {
			return model.Assignment{}, &conflict.RejectionError{Reason: conflict.ReasonConflict, TechnicianID: a.TechnicianID}
		}
	}
	if prev, ok := m.assignments[a.ReservationID]; ok {
		a.ID = prev.ID
	}
	m.assignments[a.ReservationID] = a
	return a, nil
}

func (m *memStore) TechnicianAssignments(_ context.Context, technicianID string, from, to time.Time) ([]model.Assignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Assignment
	for _, a := range m.assignments {
		if a.TechnicianID != technicianID {
			continue
		}
		if (from.IsZero() || a.Window.End.After(from)) && (to.IsZero() || a.Window.Start.Before(to)) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Window.Start.Before(out[j].Window.Start) })
	return out, nil
}

// Snapshot keeps reservations overlapping [from, to), like the SQL query.
func (m *memStore) Snapshot(ctx context.Context, from, to time.Time) (storage.Snapshot, error) {
	all, _ := m.ListReservations(ctx, 0)
	var res []model.Reservation
	for _, r := range all {
		d, err := duration.ParseDuration(r.Duration)
		if err != nil {
			return storage.Snapshot{}, err
		}
		if (from.IsZero() || r.Start.Add(d).After(from)) && (to.IsZero() || r.Start.Before(to)) {
			res = append(res, r)
		}
	}
	techs, _ := m.ListTechnicians(ctx)
	return storage.Snapshot{Reservations: res, Technicians: techs}, nil
}

type fakeReminders struct {
	mu        sync.Mutex
	armed     []string
	cancelled []string
}

func (f *fakeReminders) Arm(_ context.Context, r model.Reservation) (reminders.ArmResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.armed = append(f.armed, r.ID)
	return reminders.ArmResult{}, nil
}

func (f *fakeReminders) Cancel(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return nil
}

type inbox struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (i *inbox) Notify(_ context.Context, m notify.Message) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, m)
	return nil
}
