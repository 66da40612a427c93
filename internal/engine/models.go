package engine

import (
	"time"
)

const (
	OriginCustom       = "custom"
	OriginFromTemplate = "from_template"
)

// Rule is the engine-side view of a notification rule. Conditions and
// actions are parsed and validated at load time; evaluation never sees
// raw JSON. A Rule value is an immutable snapshot: editing a rule in the
// store replaces the whole row, the engine picks it up on the next reload.
type Rule struct {
	ID          string
	Name        string
	Description string
	Origin      string
	IsActive    bool
	Priority    int

	Conditions  *Condition
	Actions     []Action
	ElseActions []Action

	// Structural pre-filters. Empty slices mean "all".
	CourierIDs    []string
	OrderStatuses []string
	MinOrderValue *float64

	CooldownHours int
	MaxExecutions *int
	Window        *ExecutionWindow

	ExecutionCount int
	SuccessCount   int
	FailureCount   int
	LastExecutedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExecutionWindow is a time-of-day range, minutes since midnight,
// inclusive on both ends. StartMinute > EndMinute means the window
// wraps midnight.
type ExecutionWindow struct {
	StartMinute int
	EndMinute   int
}

// Contains reports whether the time-of-day of t falls inside the window.
func (w ExecutionWindow) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	if w.StartMinute <= w.EndMinute {
		return m >= w.StartMinute && m <= w.EndMinute
	}
	return m >= w.StartMinute || m <= w.EndMinute
}

// Action is one delivery step of a rule. Type selects the channel
// adapter; the remaining fields are channel-specific and templated
// against the event attributes at dispatch time.
type Action struct {
	Type      string                 `json:"type"`
	Recipient string                 `json:"recipient,omitempty"`
	Subject   string                 `json:"subject,omitempty"`
	Message   string                 `json:"message,omitempty"`
	URL       string                 `json:"url,omitempty"`
	Method    string                 `json:"method,omitempty"`
	Headers   map[string]string      `json:"headers,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

type MatchKind string

const (
	MatchConditions MatchKind = "matched"
	MatchElse       MatchKind = "else_matched"
)

// Candidate is a rule that survived filtering, evaluation and the
// eligibility guard for one event, together with the action list it
// will fire.
type Candidate struct {
	Rule    Rule
	Actions []Action
	Match   MatchKind
}

// ActionResult is the per-action outcome of one dispatch.
type ActionResult struct {
	Index      int           `json:"index"`
	ActionType string        `json:"action_type"`
	Success    bool          `json:"success"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
}

// Outcome is what the recorder persists after a rule fired.
type Outcome struct {
	RuleID     string
	EventID    string
	Match      MatchKind
	Results    []ActionResult
	Success    bool
	ExecutedAt time.Time
}

// ExecutionRecord is one row of the append-only execution history.
type ExecutionRecord struct {
	ID         string
	RuleID     string
	EventID    string
	Match      string
	Success    bool
	Results    []ActionResult
	ExecutedAt time.Time
}
