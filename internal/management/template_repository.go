package management

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"courierpulse/internal/constants"
)

// TemplateRepository serves the read-only template catalog. Templates
// are seeded at deploy time; the API only reads them.
type TemplateRepository interface {
	ListTemplates(ctx context.Context) ([]Template, error)
	GetTemplate(ctx context.Context, id string) (*Template, error)
}

type mongoTemplateRepository struct {
	collection *mongo.Collection
}

func NewTemplateRepository(db *mongo.Database) TemplateRepository {
	return &mongoTemplateRepository{
		collection: db.Collection(constants.TemplateCollection),
	}
}

func (r *mongoTemplateRepository) ListTemplates(ctx context.Context) ([]Template, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []Template
	if err := cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode templates: %w", err)
	}

	return templates, nil
}

func (r *mongoTemplateRepository) GetTemplate(ctx context.Context, id string) (*Template, error) {
	var template Template
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&template)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return &template, nil
}
