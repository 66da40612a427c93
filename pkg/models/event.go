package models

import "time"

// EventEnvelope is one order/courier change as delivered by the event source.
// Attributes is the flat map the condition evaluator reads; it is never
// mutated or persisted by the engine.
type EventEnvelope struct {
	ID         string                 `json:"id"`
	Source     string                 `json:"source"`
	Type       string                 `json:"type"`
	Timestamp  time.Time              `json:"timestamp"`
	Attributes map[string]interface{} `json:"attributes"`
	Metadata   Metadata               `json:"metadata"`
}

type Metadata struct {
	TraceID       string             `json:"trace_id,omitempty"`
	DedupKey      string             `json:"dedup_key,omitempty"`
	Deduplication *DeduplicationInfo `json:"deduplication,omitempty"`
	Engine        *EngineInfo        `json:"engine,omitempty"`
	DLQ           *DLQInfo           `json:"dlq,omitempty"`
}

// DLQInfo explains why an event landed on the dead letter topic.
type DLQInfo struct {
	Reason      string    `json:"reason"`
	SourceTopic string    `json:"source_topic"`
	FailedAt    time.Time `json:"failed_at"`
}

type DeduplicationInfo struct {
	IsUnique  bool      `json:"is_unique"`
	CheckedAt time.Time `json:"checked_at"`
}

// EngineInfo records what the rule engine did with the event.
type EngineInfo struct {
	ProcessedAt  time.Time `json:"processed_at"`
	FiredRuleIDs []string  `json:"fired_rule_ids,omitempty"`
}
