package management

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"courierpulse/internal/broker"
	"courierpulse/pkg/models"
)

// ConfigEventProducer tells running engine instances that the rule set
// changed so they reload ahead of the periodic refresh.
type ConfigEventProducer struct {
	producer broker.Producer
	topic    string
}

func NewConfigEventProducer(producer broker.Producer, topic string) *ConfigEventProducer {
	return &ConfigEventProducer{
		producer: producer,
		topic:    topic,
	}
}

func (p *ConfigEventProducer) PublishRuleEvent(ctx context.Context, action, ruleID, changedBy string) error {
	if p.producer == nil || p.topic == "" {
		return nil
	}

	event := models.ConfigUpdateEvent{
		EventType: models.EventTypeRuleUpdated,
		RuleID:    ruleID,
		Action:    action,
		Timestamp: time.Now(),
		ChangedBy: changedBy,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal config event: %w", err)
	}

	var attributes map[string]interface{}
	if err := json.Unmarshal(eventJSON, &attributes); err != nil {
		return fmt.Errorf("failed to unmarshal config event data: %w", err)
	}

	envelope := models.EventEnvelope{
		ID:         uuid.New().String(),
		Source:     "management-service",
		Type:       models.EventTypeRuleUpdated,
		Timestamp:  time.Now(),
		Attributes: attributes,
	}

	return p.producer.Publish(ctx, p.topic, envelope)
}
