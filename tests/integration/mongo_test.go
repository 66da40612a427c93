package integration

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"courierpulse/internal/channel"
	"courierpulse/internal/constants"
	"courierpulse/internal/engine"
	"courierpulse/internal/management"
	"courierpulse/pkg/migrations"
)

func TestTemplateRepository(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, true, false, false)
	ctx := context.Background()

	require.NoError(t, migrations.EnsureMongoCollections(ctx, infra.MongoDB))

	collection := infra.MongoDB.Collection(constants.TemplateCollection)
	seeded := []interface{}{
		management.Template{
			ID:          "tmpl-delayed",
			Name:        "Delayed order alert",
			Description: "Notify operations about delayed orders",
			Priority:    50,
			Conditions:  json.RawMessage(`{"type": "atomic", "field": "order_status", "operator": "equals", "value": "delayed"}`),
			Actions:     json.RawMessage(`[{"type": "email", "recipient": "ops@example.com", "message": "Order delayed"}]`),
			CreatedAt:   time.Now().UTC(),
		},
		management.Template{
			ID:        "tmpl-vip",
			Name:      "VIP order created",
			Priority:  80,
			CreatedAt: time.Now().UTC(),
		},
	}
	_, err := collection.InsertMany(ctx, seeded)
	require.NoError(t, err)

	repo := management.NewTemplateRepository(infra.MongoDB)

	templates, err := repo.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	// Sorted by name.
	assert.Equal(t, "tmpl-delayed", templates[0].ID)
	assert.Equal(t, "tmpl-vip", templates[1].ID)

	tmpl, err := repo.GetTemplate(ctx, "tmpl-delayed")
	require.NoError(t, err)
	require.NotNil(t, tmpl)
	assert.Equal(t, "Delayed order alert", tmpl.Name)
	assert.Equal(t, 50, tmpl.Priority)

	missing, err := repo.GetTemplate(ctx, "tmpl-missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestInAppAdapter_StoresNotification(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, false, true, false, false)
	ctx := context.Background()

	require.NoError(t, migrations.EnsureMongoCollections(ctx, infra.MongoDB))

	collection := infra.MongoDB.Collection(constants.InAppCollection)
	adapter := channel.NewInAppAdapter(collection, createTestLogger())

	event := createTestEvent("evt-inapp", map[string]interface{}{
		"order_id":   "ORD-42",
		"courier_id": "dhl",
	})
	action := engine.Action{
		Type:      "inapp",
		Recipient: "dispatcher-7",
		Subject:   "Order {{order_id}} delayed",
		Message:   "Courier {{courier_id}} reported a delay on {{order_id}}",
	}

	require.NoError(t, adapter.Send(ctx, action, event))

	var stored channel.InAppNotification
	err := collection.FindOne(ctx, bson.M{"event_id": "evt-inapp"}).Decode(&stored)
	require.NoError(t, err)
	assert.Equal(t, "dispatcher-7", stored.Recipient)
	assert.Equal(t, "Order ORD-42 delayed", stored.Subject)
	assert.Equal(t, "Courier dhl reported a delay on ORD-42", stored.Message)
	assert.False(t, stored.Read)
}
