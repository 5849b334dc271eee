package conflict

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/duration"
	"github.com/md-rashed-zaman/techsched/services/scheduling-service/internal/model"
)

// 2025-03-03 is a Monday.
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func clock(day time.Time, h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func assignment(resID string, start, end time.Time) model.Assignment {
	return model.Assignment{ID: "as-" + resID, TechnicianID: "t1", ReservationID: resID, Window: model.TimeWindow{Start: start, End: end}}
}

func TestCheck_DayOffRejectsAnyHour(t *testing.T) {
	d := NewDetector(time.UTC)
	tech := model.Technician{ID: "t1", DayOff: model.Monday}
	for _, h := range []int{0, 9, 23} {
		dec, err := d.Check(tech, model.Reservation{ID: "r", Start: clock(monday, h, 0), Duration: "30min"}, nil)
		require.NoError(t, err)
		assert.Equal(t, ReasonOffDuty, dec.Reason)
	}
	dec, err := d.Check(tech, model.Reservation{ID: "r", Start: clock(monday.AddDate(0, 0, 1), 9, 0), Duration: "30min"}, nil)
	require.NoError(t, err)
	assert.True(t, dec.OK())
}

func TestCheck_WorkingHours(t *testing.T) {
	d := NewDetector(time.UTC)
	tech := model.Technician{ID: "t1", Hours: &model.WorkingHours{StartMinute: 9 * 60, EndMinute: 17 * 60}}

	cases := []struct {
		start time.Time
		dur   string
		want  Reason
	}{
		{clock(monday, 9, 0), "8h", ReasonNone},
		{clock(monday, 8, 30), "1h", ReasonOutsideHours},
		{clock(monday, 16, 30), "1h", ReasonOutsideHours},
		{clock(monday, 17, 0), "15min", ReasonOutsideHours},
	}
	for _, tc := range cases {
		dec, err := d.Check(tech, model.Reservation{ID: "r", Start: tc.start, Duration: tc.dur}, nil)
		require.NoError(t, err)
		assert.Equal(t, tc.want, dec.Reason, tc.start.String())
	}

	night := model.Technician{ID: "t2", Hours: &model.WorkingHours{StartMinute: 20 * 60, EndMinute: 24 * 60}}
	dec, err := d.Check(night, model.Reservation{ID: "r", Start: clock(monday, 23, 30), Duration: "1h"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ReasonOutsideHours, dec.Reason)
}

func TestCheck_WorkingHoursCountSeconds(t *testing.T) {
	d := NewDetector(time.UTC)
	tech := model.Technician{ID: "t1", Hours: &model.WorkingHours{StartMinute: 9 * 60, EndMinute: 17 * 60}}

	late := clock(monday, 16, 59).Add(30 * time.Second)
	dec, err := d.Check(tech, model.Reservation{ID: "r", Start: late, Duration: "1min"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ReasonOutsideHours, dec.Reason)

	early := clock(monday, 8, 59).Add(30 * time.Second)
	dec, err = d.Check(tech, model.Reservation{ID: "r", Start: early, Duration: "1h"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ReasonOutsideHours, dec.Reason)

	dec, err = d.Check(tech, model.Reservation{ID: "r", Start: clock(monday, 16, 59), Duration: "1min"}, nil)
	require.NoError(t, err)
	assert.True(t, dec.OK())
}

func TestCheck_WorkingHoursOnDSTDay(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	require.NoError(t, err)
	d := NewDetector(paris)
	tech := model.Technician{ID: "t1", Hours: &model.WorkingHours{StartMinute: 9 * 60, EndMinute: 17 * 60}}

	// 2025-03-30 is the spring-forward Sunday in Paris.
	start := time.Date(2025, 3, 30, 16, 0, 0, 0, paris)
	dec, err := d.Check(tech, model.Reservation{ID: "r", Start: start, Duration: "1h"}, nil)
	require.NoError(t, err)
	assert.True(t, dec.OK())

	dec, err = d.Check(tech, model.Reservation{ID: "r", Start: start, Duration: "1h1min"}, nil)
	require.NoError(t, err)
	assert.Equal(t, ReasonOutsideHours, dec.Reason)
}

func TestCheck_OverlapIsHalfOpen(t *testing.T) {
	d := NewDetector(time.UTC)
	tech := model.Technician{ID: "t1"}
	existing := []model.Assignment{assignment("a", clock(monday, 10, 0), clock(monday, 11, 0))}

	dec, err := d.Check(tech, model.Reservation{ID: "b", Start: clock(monday, 11, 0), Duration: "1h"}, existing)
	require.NoError(t, err)
	assert.True(t, dec.OK())

	existing = []model.Assignment{assignment("a", clock(monday, 10, 0), clock(monday, 11, 30))}
	dec, err = d.Check(tech, model.Reservation{ID: "b", Start: clock(monday, 11, 0), Duration: "1h"}, existing)
	require.NoError(t, err)
	assert.Equal(t, ReasonConflict, dec.Reason)
	require.NotNil(t, dec.Conflict)
	assert.Equal(t, "a", dec.Conflict.ReservationID)

	err = dec.Err()
	assert.True(t, errors.Is(err, &RejectionError{Reason: ReasonConflict}))
	assert.False(t, errors.Is(err, &RejectionError{Reason: ReasonOffDuty}))
	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "a", rej.ConflictingReservationID)
}

func TestCheck_ReassignmentIgnoresOwnAssignment(t *testing.T) {
	d := NewDetector(time.UTC)
	existing := []model.Assignment{assignment("r1", clock(monday, 10, 0), clock(monday, 11, 0))}
	dec, err := d.Check(model.Technician{ID: "t1"}, model.Reservation{ID: "r1", Start: clock(monday, 10, 0), Duration: "1h"}, existing)
	require.NoError(t, err)
	assert.True(t, dec.OK())
	assert.NoError(t, dec.Err())
}

func TestCheck_ChecksRunInOrder(t *testing.T) {
	d := NewDetector(time.UTC)
	tech := model.Technician{ID: "t1", DayOff: model.Monday, Hours: &model.WorkingHours{StartMinute: 9 * 60, EndMinute: 10 * 60}}
	existing := []model.Assignment{assignment("x", clock(monday, 6, 0), clock(monday, 8, 0))}
	dec, err := d.Check(tech, model.Reservation{ID: "r", Start: clock(monday, 7, 0), Duration: "1h"}, existing)
	require.NoError(t, err)
	assert.Equal(t, ReasonOffDuty, dec.Reason)
}

func TestCheck_InvalidDuration(t *testing.T) {
	_, err := NewDetector(nil).Check(model.Technician{ID: "t1"}, model.Reservation{ID: "r", Start: monday, Duration: "later"}, nil)
	assert.ErrorIs(t, err, duration.ErrInvalidFormat)
}
