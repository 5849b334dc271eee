package duration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"2h30min", 150},
		{"90min", 90},
		{"3h", 180},
		{"1h 30 min", 90},
		{"2H", 120},
		{"45 MIN", 45},
		{"0h15min", 15},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"garbage", "", "0min", "0h", "h30"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidFormat, in)
	}
}

func TestParseRejectsOversized(t *testing.T) {
	for _, in := range []string{"200000000h", "99999999999999999999h", "1h99999999999999999999min", "527041min", "8785h"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidFormat, in)
	}
	got, err := Parse("8784h")
	require.NoError(t, err)
	assert.Equal(t, MaxMinutes, got)

	_, err = ParseDuration("200000000h")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestMustMinutesOr(t *testing.T) {
	assert.Equal(t, time.Hour, MustMinutesOr("soon", time.Hour))
	assert.Equal(t, 150*time.Minute, MustMinutesOr("2h30min", time.Hour))
}

func TestFormatRoundTrips(t *testing.T) {
	for _, m := range []int{15, 60, 150} {
		got, err := Parse(Format(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}
