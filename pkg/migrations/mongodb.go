package migrations

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"courierpulse/internal/constants"
)

// EnsureMongoCollections creates the indexes the template catalog and
// in-app inbox rely on. Collections themselves appear on first insert.
func EnsureMongoCollections(ctx context.Context, db *mongo.Database) error {
	templateIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("idx_rule_templates_name").SetUnique(true),
		},
	}
	if err := createIndexes(ctx, db.Collection(constants.TemplateCollection), templateIndexes); err != nil {
		return err
	}

	inappIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "recipient", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_inapp_recipient_created_at"),
		},
		{
			Keys:    bson.D{{Key: "recipient", Value: 1}, {Key: "read", Value: 1}},
			Options: options.Index().SetName("idx_inapp_recipient_read"),
		},
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetName("idx_inapp_event_id"),
		},
	}
	return createIndexes(ctx, db.Collection(constants.InAppCollection), inappIndexes)
}

func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) error {
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("failed to create indexes on %s: %w", collection.Name(), err)
	}
	return nil
}
