package engine

import (
	"fmt"
	"time"
)

// Eligibility reasons reported by the guard, also used as metric labels.
const (
	IneligibleCooldown = "cooldown"
	IneligibleCap      = "execution_cap"
	IneligibleWindow   = "execution_window"
)

// IsEligible checks the firing constraints that depend on rule state and
// the clock: cooldown spacing, the lifetime execution cap and the
// time-of-day window. It runs after condition evaluation so a rule whose
// conditions never matched does not consume a cooldown slot. The empty
// reason string means eligible.
func IsEligible(rule Rule, now time.Time) (bool, string) {
	if rule.LastExecutedAt != nil && rule.CooldownHours > 0 {
		cooldown := time.Duration(rule.CooldownHours) * time.Hour
		if now.Sub(*rule.LastExecutedAt) < cooldown {
			return false, IneligibleCooldown
		}
	}

	if rule.MaxExecutions != nil && rule.ExecutionCount >= *rule.MaxExecutions {
		return false, IneligibleCap
	}

	if rule.Window != nil && !rule.Window.Contains(now) {
		return false, IneligibleWindow
	}

	return true, ""
}

// ParseExecutionWindow converts "HH:MM" start and end strings into a
// window. Both must be set or both empty.
func ParseExecutionWindow(start, end string) (*ExecutionWindow, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("execution window requires both start and end")
	}

	startMin, err := parseMinutes(start)
	if err != nil {
		return nil, fmt.Errorf("invalid window start %q: %w", start, err)
	}
	endMin, err := parseMinutes(end)
	if err != nil {
		return nil, fmt.Errorf("invalid window end %q: %w", end, err)
	}

	return &ExecutionWindow{StartMinute: startMin, EndMinute: endMin}, nil
}

func parseMinutes(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
