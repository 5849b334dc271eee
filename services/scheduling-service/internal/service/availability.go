package service

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/availability"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
)

// SaturatedWindows runs the sweep over every reservation overlapping
// [from, to) and clips the result to that range. Zero bounds are open.
func (s *Service) SaturatedWindows(ctx context.Context, from, to time.Time) ([]model.TimeWindow, error) {
	snap, err := s.store.Snapshot(ctx, from, to)
	if err != nil {
		return nil, err
	}
	ws, err := s.engine.SaturatedWindows(snap.Reservations, snap.Technicians)
	if err != nil {
		return nil, err
	}
	return clip(ws, from, to), nil
}

func (s *Service) SaturatedSlots(ctx context.Context, from, to time.Time, step time.Duration) ([]model.TimeWindow, error) {
	snap, err := s.store.Snapshot(ctx, from, to)
	if err != nil {
		return nil, err
	}
	ws, err := s.engine.SaturatedSlots(snap.Reservations, snap.Technicians, step)
	if err != nil {
		return nil, err
	}
	return clip(ws, from, to), nil
}

// clip trims windows to [from, to) and drops those left empty.
func clip(ws []model.TimeWindow, from, to time.Time) []model.TimeWindow {
	out := ws[:0]
	for _, w := range ws {
		if !from.IsZero() && w.Start.Before(from) {
			w.Start = from.In(w.Start.Location())
		}
		if !to.IsZero() && w.End.After(to) {
			w.End = to.In(w.End.Location())
		}
		if w.End.After(w.Start) {
			out = append(out, w)
		}
	}
	return out
}

// OpenSlots lists the start times on day at which the technician could take a
// job of length d without leaving working hours or overlapping an assignment.
func (s *Service) OpenSlots(ctx context.Context, technicianID string, day time.Time, d, step time.Duration) ([]time.Time, error) {
	if d <= 0 || step <= 0 {
		return nil, invalid("duration and step must be positive")
	}
	tech, err := s.store.GetTechnician(ctx, technicianID)
	if err != nil {
		return nil, err
	}
	window, ok := availability.WorkingWindow(tech, day, s.location())
	if !ok {
		return []time.Time{}, nil
	}
	assigned, err := s.store.TechnicianAssignments(ctx, tech.ID, window.Start, window.End)
	if err != nil {
		return nil, err
	}
	busy := make([]model.TimeWindow, 0, len(assigned))
	for _, a := range assigned {
		busy = append(busy, a.Window)
	}
	slots := availability.OpenSlots(window, d, step, busy, s.clock.Now())
	if slots == nil {
		slots = []time.Time{}
	}
	return slots, nil
}
