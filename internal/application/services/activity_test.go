package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentHourKey(t *testing.T) {
	key := CurrentHourKey()

	parsed, err := ParseHourKeyToDate(key)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().UTC(), parsed, time.Hour)
	assert.Zero(t, parsed.Minute())
	assert.Zero(t, parsed.Second())
}

func TestParseHourKeyToDate(t *testing.T) {
	parsed, err := ParseHourKeyToDate("2026-08-30-14")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.August, 30, 14, 0, 0, 0, time.UTC), parsed)
}

func TestParseHourKeyToDate_Invalid(t *testing.T) {
	for _, key := range []string{"", "2026-08-30", "2026-08-30-14-30", "yyyy-08-30-14", "2026-xx-30-14"} {
		_, err := ParseHourKeyToDate(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestNewHourlyActivityBin(t *testing.T) {
	bin := NewHourlyActivityBin()

	require.NotNil(t, bin.Data)
	assert.Empty(t, bin.Data.Sessions)
	assert.Empty(t, bin.Data.EventCounts)
	assert.Empty(t, bin.Data.Transitions)
	assert.Equal(t, 28*time.Hour, bin.TTL)
	assert.WithinDuration(t, time.Now().UTC(), bin.ComputedAt, time.Minute)
}
