package management

import (
	"encoding/json"
	"time"
)

// NotificationRule is the storage-facing shape of a rule. Conditions and
// action lists stay raw JSON here; the engine parses them into typed
// trees on load, the validator parses them at save time to reject bad
// input early.
type NotificationRule struct {
	ID             string          `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Description    string          `json:"description,omitempty" db:"description"`
	Origin         string          `json:"origin" db:"origin"`
	IsActive       bool            `json:"is_active" db:"is_active"`
	Priority       int             `json:"priority" db:"priority"`
	Conditions     json.RawMessage `json:"conditions" db:"conditions"`
	Actions        json.RawMessage `json:"actions" db:"actions"`
	ElseActions    json.RawMessage `json:"else_actions,omitempty" db:"else_actions"`
	CourierIDs     []string        `json:"courier_ids,omitempty" db:"courier_ids"`
	OrderStatuses  []string        `json:"order_statuses,omitempty" db:"order_statuses"`
	MinOrderValue  *float64        `json:"min_order_value,omitempty" db:"min_order_value"`
	CooldownHours  int             `json:"cooldown_hours" db:"cooldown_hours"`
	MaxExecutions  *int            `json:"max_executions,omitempty" db:"max_executions"`
	WindowStart    string          `json:"window_start,omitempty" db:"window_start"`
	WindowEnd      string          `json:"window_end,omitempty" db:"window_end"`
	ExecutionCount int             `json:"execution_count" db:"execution_count"`
	SuccessCount   int             `json:"success_count" db:"success_count"`
	FailureCount   int             `json:"failure_count" db:"failure_count"`
	LastExecutedAt *time.Time      `json:"last_executed_at,omitempty" db:"last_executed_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

type CreateRuleRequest struct {
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description"`
	Priority      int             `json:"priority"`
	Conditions    json.RawMessage `json:"conditions" binding:"required"`
	Actions       json.RawMessage `json:"actions" binding:"required"`
	ElseActions   json.RawMessage `json:"else_actions"`
	CourierIDs    []string        `json:"courier_ids"`
	OrderStatuses []string        `json:"order_statuses"`
	MinOrderValue *float64        `json:"min_order_value"`
	CooldownHours int             `json:"cooldown_hours"`
	MaxExecutions *int            `json:"max_executions"`
	WindowStart   string          `json:"window_start"`
	WindowEnd     string          `json:"window_end"`
	IsActive      *bool           `json:"is_active"`
}

type UpdateRuleRequest struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Priority      *int             `json:"priority"`
	Conditions    *json.RawMessage `json:"conditions"`
	Actions       *json.RawMessage `json:"actions"`
	ElseActions   *json.RawMessage `json:"else_actions"`
	CourierIDs    *[]string        `json:"courier_ids"`
	OrderStatuses *[]string        `json:"order_statuses"`
	MinOrderValue *float64         `json:"min_order_value"`
	CooldownHours *int             `json:"cooldown_hours"`
	MaxExecutions *int             `json:"max_executions"`
	WindowStart   *string          `json:"window_start"`
	WindowEnd     *string          `json:"window_end"`
	IsActive      *bool            `json:"is_active"`
}

type ToggleRuleRequest struct {
	IsActive bool `json:"is_active"`
}

// Template is a read-only preset copied into a new rule. Templates are
// never evaluated directly.
type Template struct {
	ID          string          `json:"id" bson:"_id"`
	Name        string          `json:"name" bson:"name"`
	Description string          `json:"description,omitempty" bson:"description"`
	Priority    int             `json:"priority" bson:"priority"`
	Conditions  json.RawMessage `json:"conditions" bson:"conditions"`
	Actions     json.RawMessage `json:"actions" bson:"actions"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
}

type InstantiateTemplateRequest struct {
	Name          string   `json:"name"`
	CourierIDs    []string `json:"courier_ids"`
	OrderStatuses []string `json:"order_statuses"`
	CooldownHours int      `json:"cooldown_hours"`
	IsActive      *bool    `json:"is_active"`
}

// RuleExecution is one row of the execution history as served over the
// API.
type RuleExecution struct {
	ID         string          `json:"id" db:"id"`
	RuleID     string          `json:"rule_id" db:"rule_id"`
	EventID    string          `json:"event_id" db:"event_id"`
	Match      string          `json:"match" db:"match"`
	Success    bool            `json:"success" db:"success"`
	Results    json.RawMessage `json:"results" db:"results"`
	ExecutedAt time.Time       `json:"executed_at" db:"executed_at"`
}
