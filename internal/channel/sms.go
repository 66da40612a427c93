package channel

import (
	"context"
	"time"

	"github.com/google/uuid"

	"courierpulse/internal/broker"
	"courierpulse/internal/engine"
	"courierpulse/internal/logger"
	"courierpulse/pkg/models"
)

// SmsAdapter publishes rendered SMS actions on the sms topic for the
// downstream gateway.
type SmsAdapter struct {
	producer broker.Producer
	topic    string
	logger   logger.Logger
}

func NewSmsAdapter(producer broker.Producer, topic string, log logger.Logger) *SmsAdapter {
	return &SmsAdapter{producer: producer, topic: topic, logger: log}
}

func (a *SmsAdapter) Send(ctx context.Context, action engine.Action, event models.EventEnvelope) error {
	recipient, err := Render(action.Recipient, event)
	if err != nil {
		return err
	}
	message, err := Render(action.Message, event)
	if err != nil {
		return err
	}

	delivery := models.EventEnvelope{
		ID:        uuid.New().String(),
		Source:    "rule-engine",
		Type:      "notification_sms",
		Timestamp: time.Now().UTC(),
		Attributes: map[string]interface{}{
			"recipient": recipient,
			"message":   message,
			"event_id":  event.ID,
		},
		Metadata: models.Metadata{TraceID: event.Metadata.TraceID},
	}

	return a.producer.Publish(ctx, a.topic, delivery)
}
