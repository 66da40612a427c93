package models

import "time"

type ConfigUpdateEvent struct {
	EventType string                 `json:"event_type"`
	RuleID    string                 `json:"rule_id,omitempty"`
	Action    string                 `json:"action"`
	Timestamp time.Time              `json:"timestamp"`
	ChangedBy string                 `json:"changed_by,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

const (
	EventTypeRuleUpdated = "notification_rule_updated"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionToggle = "toggle"
)
