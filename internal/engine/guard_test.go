package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsEligible_NoConstraints(t *testing.T) {
	eligible, reason := IsEligible(Rule{IsActive: true}, time.Now())
	assert.True(t, eligible)
	assert.Empty(t, reason)
}

func TestIsEligible_Cooldown(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	fired := now.Add(-10 * time.Minute)
	rule := Rule{CooldownHours: 24, LastExecutedAt: &fired}
	eligible, reason := IsEligible(rule, now)
	assert.False(t, eligible)
	assert.Equal(t, IneligibleCooldown, reason)

	// Exactly at the cooldown boundary the rule fires again.
	fired = now.Add(-24 * time.Hour)
	rule.LastExecutedAt = &fired
	eligible, _ = IsEligible(rule, now)
	assert.True(t, eligible)

	rule.LastExecutedAt = nil
	eligible, _ = IsEligible(rule, now)
	assert.True(t, eligible)
}

func TestIsEligible_ExecutionCap(t *testing.T) {
	limit := 3
	rule := Rule{MaxExecutions: &limit, ExecutionCount: 2}
	eligible, _ := IsEligible(rule, time.Now())
	assert.True(t, eligible)

	rule.ExecutionCount = 3
	eligible, reason := IsEligible(rule, time.Now())
	assert.False(t, eligible)
	assert.Equal(t, IneligibleCap, reason)
}

func TestIsEligible_ExecutionWindow(t *testing.T) {
	window, err := ParseExecutionWindow("09:00", "17:00")
	require.NoError(t, err)
	rule := Rule{Window: window}

	at := func(hour, min int) time.Time {
		return time.Date(2026, 8, 30, hour, min, 0, 0, time.UTC)
	}

	eligible, _ := IsEligible(rule, at(12, 0))
	assert.True(t, eligible)
	eligible, _ = IsEligible(rule, at(9, 0))
	assert.True(t, eligible)
	eligible, _ = IsEligible(rule, at(17, 0))
	assert.True(t, eligible)

	eligible, reason := IsEligible(rule, at(22, 0))
	assert.False(t, eligible)
	assert.Equal(t, IneligibleWindow, reason)
}

func TestIsEligible_WindowWrappingMidnight(t *testing.T) {
	window, err := ParseExecutionWindow("22:00", "06:00")
	require.NoError(t, err)
	rule := Rule{Window: window}

	at := func(hour, min int) time.Time {
		return time.Date(2026, 8, 30, hour, min, 0, 0, time.UTC)
	}

	for _, tc := range []struct {
		hour, min int
		expected  bool
	}{
		{23, 0, true},
		{2, 30, true},
		{6, 0, true},
		{22, 0, true},
		{12, 0, false},
		{21, 59, false},
	} {
		eligible, _ := IsEligible(rule, at(tc.hour, tc.min))
		assert.Equal(t, tc.expected, eligible, "%02d:%02d", tc.hour, tc.min)
	}
}

func TestParseExecutionWindow(t *testing.T) {
	window, err := ParseExecutionWindow("09:30", "17:45")
	require.NoError(t, err)
	assert.Equal(t, 9*60+30, window.StartMinute)
	assert.Equal(t, 17*60+45, window.EndMinute)

	window, err = ParseExecutionWindow("", "")
	require.NoError(t, err)
	assert.Nil(t, window)

	_, err = ParseExecutionWindow("09:00", "")
	require.Error(t, err)

	_, err = ParseExecutionWindow("25:00", "09:00")
	require.Error(t, err)
}
