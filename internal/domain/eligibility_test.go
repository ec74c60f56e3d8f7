package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func TestIsCancellationAllowed(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  bool
	}{
		{"exactly 24h before", testNow.Add(24 * time.Hour), true},
		{"one millisecond short", testNow.Add(24*time.Hour - time.Millisecond), false},
		{"23h59m before", testNow.Add(23*time.Hour + 59*time.Minute), false},
		{"a week before", testNow.Add(7 * 24 * time.Hour), true},
		{"starts now", testNow, false},
		{"already started", testNow.Add(-time.Hour), false},
		{"long past", testNow.Add(-30 * 24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCancellationAllowed(tt.start, testNow))
		})
	}
}

func TestIsRescheduleAllowed(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  bool
	}{
		{"exactly 48h before", testNow.Add(48 * time.Hour), true},
		{"47h before", testNow.Add(47 * time.Hour), false},
		{"one second short", testNow.Add(48*time.Hour - time.Second), false},
		{"24h before", testNow.Add(24 * time.Hour), false},
		{"three days before", testNow.Add(72 * time.Hour), true},
		{"already started", testNow.Add(-time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRescheduleAllowed(tt.start, testNow))
		})
	}
}

func TestEligibility_MatchesHourArithmetic(t *testing.T) {
	// step through offsets around both thresholds and compare with (start-now)/1h
	for offset := -2 * time.Hour; offset <= 50*time.Hour; offset += 17 * time.Minute {
		start := testNow.Add(offset)
		hours := HoursUntil(start, testNow)

		assert.Equal(t, hours >= 24, IsCancellationAllowed(start, testNow), "offset %s", offset)
		assert.Equal(t, hours >= 48, IsRescheduleAllowed(start, testNow), "offset %s", offset)
	}
}

func TestHoursUntil(t *testing.T) {
	assert.InDelta(t, 24.0, HoursUntil(testNow.Add(24*time.Hour), testNow), 1e-9)
	assert.InDelta(t, -1.5, HoursUntil(testNow.Add(-90*time.Minute), testNow), 1e-9)
}

func TestPolicy_Custom(t *testing.T) {
	p := Policy{CancellationNotice: 12 * time.Hour, RescheduleNotice: 36 * time.Hour}
	require.NoError(t, p.Validate())

	assert.True(t, p.CanCancel(testNow.Add(12*time.Hour), testNow))
	assert.False(t, p.CanCancel(testNow.Add(11*time.Hour), testNow))
	assert.True(t, p.CanReschedule(testNow.Add(36*time.Hour), testNow))
	assert.False(t, p.CanReschedule(testNow.Add(35*time.Hour), testNow))
	assert.Equal(t, 36*time.Hour, p.RequiredNotice(ActionReschedule))
	assert.Zero(t, p.RequiredNotice(ActionClaim))
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, DefaultPolicy().Validate())
	assert.Error(t, Policy{CancellationNotice: 0, RescheduleNotice: time.Hour}.Validate())
	assert.Error(t, Policy{CancellationNotice: time.Hour, RescheduleNotice: -time.Hour}.Validate())
}
