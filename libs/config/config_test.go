package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositiveInt(t *testing.T) {
	t.Setenv("TECHSCHED_TEST_INT", "")
	n, err := PositiveInt("TECHSCHED_TEST_INT", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	t.Setenv("TECHSCHED_TEST_INT", " 42 ")
	n, err = PositiveInt("TECHSCHED_TEST_INT", 7)
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	t.Setenv("TECHSCHED_TEST_INT", "-1")
	_, err = PositiveInt("TECHSCHED_TEST_INT", 7)
	assert.Error(t, err)
}

func TestMinutesAndLocation(t *testing.T) {
	t.Setenv("TECHSCHED_TEST_MIN", "60")
	d, err := Minutes("TECHSCHED_TEST_MIN", 0)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	t.Setenv("TECHSCHED_TEST_TZ", "Not/AZone")
	_, err = Location("TECHSCHED_TEST_TZ", "UTC")
	assert.Error(t, err)

	t.Setenv("TECHSCHED_TEST_TZ", "")
	loc, err := Location("TECHSCHED_TEST_TZ", "UTC")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestPort(t *testing.T) {
	t.Setenv("TECHSCHED_TEST_PORT", "70000")
	_, err := Port("TECHSCHED_TEST_PORT", "8080")
	assert.Error(t, err)

	t.Setenv("TECHSCHED_TEST_PORT", "")
	p, err := Port("TECHSCHED_TEST_PORT", "8080")
	require.NoError(t, err)
	assert.Equal(t, "8080", p)
}
