package availability

import (
	"errors"
	"slices"
	"time"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
)

var ErrInvalidStep = errors.New("slot step must be positive")

// SaturatedSlots is the grid form of SaturatedWindows: time is cut into
// step-aligned slots (aligned to local midnight), each slot counts the
// reservations overlapping it, and a slot is saturated when the capacity at its
// start is positive and the count reaches it. Adjacent saturated slots merge.
func (e *Engine) SaturatedSlots(reservations []model.Reservation, technicians []model.Technician, step time.Duration) ([]model.TimeWindow, error) {
	if step <= 0 {
		return nil, ErrInvalidStep
	}
	loc := e.loc()

	counts := map[int64]int{}
	for _, r := range reservations {
		w, err := e.Window(r)
		if err != nil {
			return nil, err
		}
		for slot := alignDown(w.Start, step, loc); slot.Before(w.End); slot = slot.Add(step) {
			counts[slot.Unix()]++
		}
	}

	var out []model.TimeWindow
	for _, key := range sortedKeys(counts) {
		slot := time.Unix(key, 0).In(loc)
		capacity := e.CapacityAt(technicians, slot)
		if capacity > 0 && counts[key] >= capacity {
			out = appendMerged(out, model.TimeWindow{Start: slot, End: slot.Add(step)}, loc)
		}
	}
	return out, nil
}

func alignDown(t time.Time, step time.Duration, loc *time.Location) time.Time {
	l := t.In(loc)
	midnight := time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, loc)
	return midnight.Add(l.Sub(midnight) / step * step)
}

func sortedKeys(m map[int64]int) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
