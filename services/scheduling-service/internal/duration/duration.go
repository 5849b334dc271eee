// Package duration parses the free-text durations attached to reservations
// ("2h30min", "90min", "3h") into whole minutes.
package duration

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidFormat = errors.New("invalid duration format")

// MaxMinutes caps a single reservation at one (leap) year.
const MaxMinutes = 366 * 24 * 60

// Tried in order; first match wins.
var (
	hoursMinutes = regexp.MustCompile(`(\d+)h(\d+)min`)
	hoursOnly    = regexp.MustCompile(`(\d+)h`)
	minutesOnly  = regexp.MustCompile(`(\d+)min`)
)

// Parse returns the number of minutes described by text. Whitespace and case
// are ignored. The result is always > 0 when err is nil.
func Parse(text string) (int, error) {
	s := normalize(text)

	var hours, minutes int
	switch {
	case hoursMinutes.MatchString(s):
		m := hoursMinutes.FindStringSubmatch(s)
		hours, minutes = atoi(m[1]), atoi(m[2])
	case hoursOnly.MatchString(s):
		hours = atoi(hoursOnly.FindStringSubmatch(s)[1])
	case minutesOnly.MatchString(s):
		minutes = atoi(minutesOnly.FindStringSubmatch(s)[1])
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, text)
	}
	// Bound each part before combining so the sum cannot overflow.
	if hours < 0 || minutes < 0 || hours > MaxMinutes/60 || minutes > MaxMinutes {
		return 0, fmt.Errorf("%w: %q exceeds %d minutes", ErrInvalidFormat, text, MaxMinutes)
	}
	minutes += hours * 60
	if minutes > MaxMinutes {
		return 0, fmt.Errorf("%w: %q exceeds %d minutes", ErrInvalidFormat, text, MaxMinutes)
	}
	if minutes <= 0 {
		return 0, fmt.Errorf("%w: %q is not positive", ErrInvalidFormat, text)
	}
	return minutes, nil
}

func ParseDuration(text string) (time.Duration, error) {
	m, err := Parse(text)
	if err != nil {
		return 0, err
	}
	return time.Duration(m) * time.Minute, nil
}

// MustMinutesOr returns fallback when text does not parse.
func MustMinutesOr(text string, fallback time.Duration) time.Duration {
	d, err := ParseDuration(text)
	if err != nil {
		return fallback
	}
	return d
}

// Format renders minutes back into the canonical text form.
func Format(minutes int) string {
	h, m := minutes/60, minutes%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dmin", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%dmin", h, m)
	}
}

func normalize(text string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, strings.ToLower(text))
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		// digits only, so this is overflow
		return -1
	}
	return n
}
