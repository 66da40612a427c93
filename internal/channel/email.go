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

// EmailAdapter hands rendered email actions to the delivery pipeline by
// publishing them on the email topic. The mail sender downstream owns
// SMTP concerns; this adapter only guarantees the message reached the
// broker.
type EmailAdapter struct {
	producer broker.Producer
	topic    string
	logger   logger.Logger
}

func NewEmailAdapter(producer broker.Producer, topic string, log logger.Logger) *EmailAdapter {
	return &EmailAdapter{producer: producer, topic: topic, logger: log}
}

func (a *EmailAdapter) Send(ctx context.Context, action engine.Action, event models.EventEnvelope) error {
	recipient, err := Render(action.Recipient, event)
	if err != nil {
		return err
	}
	subject, err := Render(action.Subject, event)
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
		Type:      "notification_email",
		Timestamp: time.Now().UTC(),
		Attributes: map[string]interface{}{
			"recipient": recipient,
			"subject":   subject,
			"message":   message,
			"event_id":  event.ID,
		},
		Metadata: models.Metadata{TraceID: event.Metadata.TraceID},
	}

	return a.producer.Publish(ctx, a.topic, delivery)
}
