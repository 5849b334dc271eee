// Package availability derives the windows in which every working technician
// is already booked, and the open start times left for a single technician.
package availability

import (
	"fmt"
	"sort"
	"time"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/duration"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
)

// Engine is stateless apart from its configuration and safe for concurrent use.
type Engine struct {
	// Location is the zone used for weekdays, midnights and working-hours clocks.
	// Nil means UTC.
	Location *time.Location
	// FallbackDuration, when > 0, replaces durations that do not parse.
	// Zero makes an unparseable duration an error.
	FallbackDuration time.Duration
}

func NewEngine(loc *time.Location, fallback time.Duration) *Engine {
	return &Engine{Location: loc, FallbackDuration: fallback}
}

func (e *Engine) loc() *time.Location {
	if e == nil || e.Location == nil {
		return time.UTC
	}
	return e.Location
}

// WeekdayCapacity is the number of technicians not off on day, ignoring hours.
func WeekdayCapacity(technicians []model.Technician, day model.Weekday) int {
	n := 0
	for _, t := range technicians {
		if !t.OffOn(day) {
			n++
		}
	}
	return n
}

// CapacityAt is the number of technicians working at instant at.
func (e *Engine) CapacityAt(technicians []model.Technician, at time.Time) int {
	local := at.In(e.loc())
	n := 0
	for _, t := range technicians {
		if t.AvailableAt(local) {
			n++
		}
	}
	return n
}

// Window resolves the occupied interval of a reservation.
func (e *Engine) Window(r model.Reservation) (model.TimeWindow, error) {
	d, err := duration.ParseDuration(r.Duration)
	if err != nil {
		if e == nil || e.FallbackDuration <= 0 {
			return model.TimeWindow{}, fmt.Errorf("reservation %s: %w", r.ID, err)
		}
		d = e.FallbackDuration
	}
	return model.TimeWindow{Start: r.Start, End: r.Start.Add(d)}, nil
}

type event struct {
	at    time.Time
	delta int
}

// SaturatedWindows sweeps reservation start/end events in time order and
// reports the regions where occupied >= capacity. The result is chronological,
// non-overlapping, and touching regions are merged.
func (e *Engine) SaturatedWindows(reservations []model.Reservation, technicians []model.Technician) ([]model.TimeWindow, error) {
	if len(reservations) == 0 {
		return nil, nil
	}

	events := make([]event, 0, 2*len(reservations))
	windows := make([]model.TimeWindow, 0, len(reservations))
	for _, r := range reservations {
		w, err := e.Window(r)
		if err != nil {
			return nil, err
		}
		windows = append(windows, w)
		events = append(events, event{at: w.Start, delta: +1}, event{at: w.End, delta: -1})
	}
	for _, w := range windows {
		for _, b := range e.capacityBoundaries(w, technicians) {
			events = append(events, event{at: b})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].at.Equal(events[j].at) {
			return events[i].at.Before(events[j].at)
		}
		return events[i].delta < events[j].delta
	})

	var (
		out      []model.TimeWindow
		occupied int
		open     bool
		start    time.Time
	)
	for i := 0; i < len(events); {
		at := events[i].at
		for i < len(events) && events[i].at.Equal(at) {
			occupied += events[i].delta
			i++
		}
		saturated := occupied > 0 && occupied >= e.CapacityAt(technicians, at)
		switch {
		case saturated && !open:
			open, start = true, at
		case !saturated && open:
			out = appendMerged(out, model.TimeWindow{Start: start, End: at}, e.loc())
			open = false
		}
	}
	// occupied returns to zero at the last end event, so no region stays open.
	return out, nil
}

func appendMerged(out []model.TimeWindow, w model.TimeWindow, loc *time.Location) []model.TimeWindow {
	w.Start, w.End = w.Start.In(loc), w.End.In(loc)
	if n := len(out); n > 0 && !out[n-1].End.Before(w.Start) {
		if w.End.After(out[n-1].End) {
			out[n-1].End = w.End
		}
		return out
	}
	return append(out, w)
}

// capacityBoundaries lists instants strictly inside w where capacity can change:
// local midnights and the working-hours edges of restricted technicians.
func (e *Engine) capacityBoundaries(w model.TimeWindow, technicians []model.Technician) []time.Time {
	loc := e.loc()
	edges := map[int]struct{}{}
	for _, t := range technicians {
		if t.Hours != nil {
			edges[t.Hours.StartMinute] = struct{}{}
			edges[t.Hours.EndMinute] = struct{}{}
		}
	}

	var out []time.Time
	s := w.Start.In(loc)
	for day := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, loc); day.Before(w.End); day = day.AddDate(0, 0, 1) {
		if day.After(w.Start) {
			out = append(out, day)
		}
		for m := range edges {
			at := time.Date(day.Year(), day.Month(), day.Day(), m/60, m%60, 0, 0, loc)
			if at.After(w.Start) && at.Before(w.End) {
				out = append(out, at)
			}
		}
	}
	return out
}
