// Package conflict decides whether a technician can take a reservation.
package conflict

import (
	"fmt"
	"time"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/duration"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
)

type Reason string

const (
	ReasonNone         Reason = ""
	ReasonOffDuty      Reason = "TechnicianOffDuty"
	ReasonOutsideHours Reason = "OutsideWorkingHours"
	ReasonConflict     Reason = "SchedulingConflict"
)

// RejectionError carries a rejection across layers that speak in errors.
type RejectionError struct {
	Reason       Reason
	TechnicianID string
	Window       model.TimeWindow
	// ConflictingReservationID is set for ReasonConflict when known.
	ConflictingReservationID string
}

func (e *RejectionError) Error() string {
	msg := fmt.Sprintf("technician %s rejected for %s - %s: %s",
		e.TechnicianID, e.Window.Start.Format(time.RFC3339), e.Window.End.Format(time.RFC3339), e.Reason)
	if e.ConflictingReservationID != "" {
		msg += " (reservation " + e.ConflictingReservationID + ")"
	}
	return msg
}

// Is lets errors.Is match on reason alone: errors.Is(err, &RejectionError{Reason: ReasonConflict}).
func (e *RejectionError) Is(target error) bool {
	t, ok := target.(*RejectionError)
	if !ok {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

type Decision struct {
	TechnicianID string
	Window       model.TimeWindow
	Reason       Reason
	Conflict     *model.Assignment
}

func (d Decision) OK() bool { return d.Reason == ReasonNone }

// Err is nil for an accepted decision.
func (d Decision) Err() error {
	if d.OK() {
		return nil
	}
	e := &RejectionError{Reason: d.Reason, TechnicianID: d.TechnicianID, Window: d.Window}
	if d.Conflict != nil {
		e.ConflictingReservationID = d.Conflict.ReservationID
	}
	return e
}

type Detector struct {
	// Location is the zone in which day-off and working hours are read. Nil means UTC.
	Location *time.Location
}

func NewDetector(loc *time.Location) Detector {
	return Detector{Location: loc}
}

// Check runs, in order, the day-off, working-hours and overlap checks for
// assigning tech to r. existing are the technician's current assignments; the
// one for r itself (if any) is ignored so a reassignment replaces it.
//
// The only error is an unparseable reservation duration.
func (d Detector) Check(tech model.Technician, r model.Reservation, existing []model.Assignment) (Decision, error) {
	minutes, err := duration.Parse(r.Duration)
	if err != nil {
		return Decision{}, fmt.Errorf("reservation %s: %w", r.ID, err)
	}
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	start := r.Start.In(loc)
	w := model.TimeWindow{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)}
	dec := Decision{TechnicianID: tech.ID, Window: w}

	if tech.OffOn(model.WeekdayAt(start)) {
		dec.Reason = ReasonOffDuty
		return dec, nil
	}
	if h := tech.Hours; h != nil {
		// Compared as instants so seconds count. A window crossing midnight
		// ends after the day's hours and is outside.
		hours := h.On(start)
		if w.Start.Before(hours.Start) || w.End.After(hours.End) {
			dec.Reason = ReasonOutsideHours
			return dec, nil
		}
	}
	for i := range existing {
		a := existing[i]
		if a.ReservationID == r.ID {
			continue
		}
		if a.Window.Overlaps(w) {
			dec.Reason = ReasonConflict
			dec.Conflict = &a
			return dec, nil
		}
	}
	return dec, nil
}
