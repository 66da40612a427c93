package integration

import (
	"encoding/json"
	"testing"
	"time"

	"courierpulse/internal/engine"
	"courierpulse/internal/logger"
	"courierpulse/internal/management"
	"courierpulse/pkg/cel"
	"courierpulse/pkg/models"
)

const (
	containerStartupTimeout = 60
	timestampDelay          = 10 * time.Millisecond
)

func createTestLogger() logger.Logger {
	return logger.NopLogger()
}

func newTestParser(t *testing.T) *engine.ConditionParser {
	t.Helper()
	evaluator, err := cel.NewEvaluator()
	if err != nil {
		t.Fatalf("failed to create CEL evaluator: %v", err)
	}
	return engine.NewConditionParser(evaluator)
}

func createTestRule(name string, priority int, active bool) *management.NotificationRule {
	return &management.NotificationRule{
		Name:       name,
		Origin:     "custom",
		IsActive:   active,
		Priority:   priority,
		Conditions: json.RawMessage(`{"type": "atomic", "field": "order_status", "operator": "equals", "value": "delayed"}`),
		Actions:    json.RawMessage(`[{"type": "email", "recipient": "ops@example.com", "message": "Order delayed"}]`),
	}
}

func createTestEvent(id string, attributes map[string]interface{}) models.EventEnvelope {
	return models.EventEnvelope{
		ID:         id,
		Source:     "order-service",
		Type:       "order_status_changed",
		Timestamp:  time.Now(),
		Attributes: attributes,
	}
}
