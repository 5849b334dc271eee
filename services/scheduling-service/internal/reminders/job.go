// Package reminders arms and fires the customer reminders sent ahead of a
// reservation's start.
package reminders

import (
	"fmt"
	"time"
)

type Kind string

const (
	Kind7Days   Kind = "7d"
	Kind48Hours Kind = "48h"
	Kind2Hours  Kind = "2h"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Kind7Days, Kind48Hours, Kind2Hours:
		return k, nil
	}
	return "", fmt.Errorf("unknown reminder kind %q", s)
}

// Offset is one reminder position relative to the reservation start.
type Offset struct {
	Kind  Kind
	Lead  time.Duration
	Label string
	// LastCall fires immediately when the reservation was booked inside Lead.
	LastCall bool
}

var Offsets = []Offset{
	{Kind: Kind7Days, Lead: 7 * 24 * time.Hour, Label: "7 days before"},
	{Kind: Kind48Hours, Lead: 48 * time.Hour, Label: "48 hours before"},
	{Kind: Kind2Hours, Lead: 2 * time.Hour, Label: "2 hours before", LastCall: true},
}

func offsetFor(k Kind) (Offset, bool) {
	for _, o := range Offsets {
		if o.Kind == k {
			return o, true
		}
	}
	return Offset{}, false
}

type Job struct {
	ReservationID string    `json:"reservation_id"`
	Kind          Kind      `json:"kind"`
	Recipient     string    `json:"recipient"`
	ServiceTitle  string    `json:"service_title"`
	Start         time.Time `json:"start"`
	FireAt        time.Time `json:"fire_at"`
}

type jobKey struct {
	reservationID string
	kind          Kind
}

func (j Job) key() jobKey { return jobKey{j.ReservationID, j.Kind} }

// Text renders the reminder body with the start read in loc.
func (j Job) Text(loc *time.Location) string {
	label := string(j.Kind)
	if o, ok := offsetFor(j.Kind); ok {
		label = o.Label
	}
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("Reminder (%s): '%s' scheduled for %s", label, j.ServiceTitle, j.Start.In(loc).Format("02/01 at 15:04"))
}
