package availability

import (
	"time"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
)

// OpenSlots returns slot start times within window where a booking of length
// d would not overlap any busy interval. Slots starting before now are dropped.
//
// All times are expected to be in the same location.
func OpenSlots(window model.TimeWindow, d, step time.Duration, busy []model.TimeWindow, now time.Time) []time.Time {
	if d <= 0 || step <= 0 {
		return nil
	}
	if !window.End.After(window.Start) || window.Start.Add(d).After(window.End) {
		return nil
	}

	var slots []time.Time
	for t := window.Start; !t.Add(d).After(window.End); t = t.Add(step) {
		if t.Before(now) {
			continue
		}
		cand := model.TimeWindow{Start: t, End: t.Add(d)}
		if !overlapsAny(cand, busy) {
			slots = append(slots, t)
		}
	}
	return slots
}

// WorkingWindow is the technician's window on the local day containing day.
// ok is false on the technician's day off. Unrestricted technicians get the
// whole day.
func WorkingWindow(t model.Technician, day time.Time, loc *time.Location) (model.TimeWindow, bool) {
	if loc == nil {
		loc = time.UTC
	}
	l := day.In(loc)
	midnight := time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
	if t.OffOn(model.WeekdayAt(midnight)) {
		return model.TimeWindow{}, false
	}
	if t.Hours == nil {
		return model.TimeWindow{Start: midnight, End: midnight.AddDate(0, 0, 1)}, true
	}
	return t.Hours.On(l), true
}

func overlapsAny(w model.TimeWindow, busy []model.TimeWindow) bool {
	for _, b := range busy {
		if w.Overlaps(b) {
			return true
		}
	}
	return false
}
