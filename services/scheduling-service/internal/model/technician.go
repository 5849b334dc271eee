package model

import (
	"errors"
	"fmt"
	"time"
)

const MinutesPerDay = 24 * 60

var ErrInvalidWorkingHours = errors.New("invalid working hours")

// WorkingHours is a local clock window [StartMinute, EndMinute) in minutes after midnight.
type WorkingHours struct {
	StartMinute int `json:"start_minute" yaml:"start_minute"`
	EndMinute   int `json:"end_minute" yaml:"end_minute"`
}

func (h WorkingHours) Validate() error {
	if h.StartMinute < 0 || h.EndMinute > MinutesPerDay || h.StartMinute >= h.EndMinute {
		return fmt.Errorf("%w: [%d,%d)", ErrInvalidWorkingHours, h.StartMinute, h.EndMinute)
	}
	return nil
}

// ContainsMinute reports whether a clock minute falls inside [StartMinute, EndMinute).
func (h WorkingHours) ContainsMinute(m int) bool {
	return m >= h.StartMinute && m < h.EndMinute
}

// On is the window on the local date of day, read in day's location. Wall
// clock times are used, so a DST change shortens or lengthens it.
func (h WorkingHours) On(day time.Time) TimeWindow {
	y, m, d := day.Date()
	loc := day.Location()
	return TimeWindow{
		Start: time.Date(y, m, d, 0, h.StartMinute, 0, 0, loc),
		End:   time.Date(y, m, d, 0, h.EndMinute, 0, 0, loc),
	}
}

func (h WorkingHours) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", h.StartMinute/60, h.StartMinute%60, h.EndMinute/60, h.EndMinute%60)
}

// ClockMinute is the minute of the day of t in t's own location.
func ClockMinute(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

type Technician struct {
	ID     string        `json:"id" yaml:"id"`
	Name   string        `json:"name" yaml:"name"`
	DayOff Weekday       `json:"day_off,omitempty" yaml:"day_off"`
	Hours  *WorkingHours `json:"hours,omitempty" yaml:"hours"`
}

func (t Technician) Validate() error {
	if t.ID == "" {
		return errors.New("technician id required")
	}
	if t.Hours != nil {
		return t.Hours.Validate()
	}
	return nil
}

func (t Technician) OffOn(d Weekday) bool {
	return t.DayOff.Valid() && t.DayOff == d
}

// AvailableAt reports whether the technician works at instant at, read in at's location.
func (t Technician) AvailableAt(at time.Time) bool {
	if t.OffOn(WeekdayAt(at)) {
		return false
	}
	return t.Hours == nil || t.Hours.ContainsMinute(ClockMinute(at))
}
