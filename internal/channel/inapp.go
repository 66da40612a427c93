package channel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	"courierpulse/internal/engine"
	"courierpulse/internal/logger"
	"courierpulse/pkg/models"
)

// InAppNotification is the document stored for dashboard inboxes.
type InAppNotification struct {
	ID        string    `bson:"_id"`
	Recipient string    `bson:"recipient"`
	Subject   string    `bson:"subject,omitempty"`
	Message   string    `bson:"message"`
	EventID   string    `bson:"event_id"`
	Read      bool      `bson:"read"`
	CreatedAt time.Time `bson:"created_at"`
}

// InAppAdapter writes in-app notifications straight to MongoDB where the
// dashboard API reads them.
type InAppAdapter struct {
	collection *mongo.Collection
	logger     logger.Logger
}

func NewInAppAdapter(collection *mongo.Collection, log logger.Logger) *InAppAdapter {
	return &InAppAdapter{collection: collection, logger: log}
}

func (a *InAppAdapter) Send(ctx context.Context, action engine.Action, event models.EventEnvelope) error {
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

	doc := InAppNotification{
		ID:        uuid.New().String(),
		Recipient: recipient,
		Subject:   subject,
		Message:   message,
		EventID:   event.ID,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := a.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to store in-app notification: %w", err)
	}

	return nil
}
