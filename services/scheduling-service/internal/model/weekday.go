package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnknownWeekday = errors.New("unknown weekday")

// Weekday numbers days ISO style (Monday = 1). The zero value NoDay means
// "no day" and is only meaningful as an absent day-off.
type Weekday uint8

const (
	NoDay Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]struct{ canonical, locale string }{
	Monday:    {"MONDAY", "LUNDI"},
	Tuesday:   {"TUESDAY", "MARDI"},
	Wednesday: {"WEDNESDAY", "MERCREDI"},
	Thursday:  {"THURSDAY", "JEUDI"},
	Friday:    {"FRIDAY", "VENDREDI"},
	Saturday:  {"SATURDAY", "SAMEDI"},
	Sunday:    {"SUNDAY", "DIMANCHE"},
}

var weekdayByName = func() map[string]Weekday {
	m := make(map[string]Weekday, 14)
	for d := Monday; d <= Sunday; d++ {
		m[weekdayNames[d].canonical] = d
		m[weekdayNames[d].locale] = d
	}
	return m
}()

// ParseWeekday accepts canonical (MONDAY) and locale (LUNDI) names, any case.
// Unmapped input is an error; there is no silent fallback.
func ParseWeekday(s string) (Weekday, error) {
	d, ok := weekdayByName[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return NoDay, fmt.Errorf("%w: %q", ErrUnknownWeekday, s)
	}
	return d, nil
}

// WeekdayOf converts a time.Weekday; the mapping is total.
func WeekdayOf(d time.Weekday) Weekday {
	if d == time.Sunday {
		return Sunday
	}
	return Weekday(d)
}

func WeekdayAt(t time.Time) Weekday {
	return WeekdayOf(t.Weekday())
}

func (d Weekday) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Weekday) TimeWeekday() time.Weekday {
	if d == Sunday {
		return time.Sunday
	}
	return time.Weekday(d)
}

func (d Weekday) String() string {
	if !d.Valid() {
		return ""
	}
	return weekdayNames[d].canonical
}

// LocaleName is the name stored by the legacy roster data.
func (d Weekday) LocaleName() string {
	if !d.Valid() {
		return ""
	}
	return weekdayNames[d].locale
}

func (d Weekday) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText maps an empty string to NoDay; anything else must parse.
func (d *Weekday) UnmarshalText(b []byte) error {
	if strings.TrimSpace(string(b)) == "" {
		*d = NoDay
		return nil
	}
	v, err := ParseWeekday(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
