package model

import (
	"errors"
	"time"
)

var ErrEmptyWindow = errors.New("time window end must be after start")

// TimeWindow is the half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
}

func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if !end.After(start) {
		return TimeWindow{}, ErrEmptyWindow
	}
	return TimeWindow{Start: start, End: end}, nil
}

// Overlaps reports whether the windows share any instant. Windows that merely
// touch ([10:00,11:00) and [11:00,12:00)) do not overlap.
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

func (w TimeWindow) Contains(o TimeWindow) bool {
	return !o.Start.Before(w.Start) && !o.End.After(w.End)
}

func (w TimeWindow) Duration() time.Duration {
	return w.End.Sub(w.Start)
}
