package repository

import (
	"context"
	"time"

	"adaptive-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type TemplateRepository struct {
	Col *mongo.Collection
}

func NewTemplateRepository(db *mongo.Database) *TemplateRepository {
	return &TemplateRepository{Col: db.Collection("templates")}
}

// CandidateTemplates lists every template attached to a topic.
func (r *TemplateRepository) CandidateTemplates(ctx context.Context, topicID string) ([]models.Template, error) {
	cur, err := r.Col.Find(ctx, bson.M{"topic_id": topicID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var templates []models.Template
	for cur.Next(ctx) {
		var t models.Template
		if err := cur.Decode(&t); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, cur.Err()
}

func (r *TemplateRepository) Create(ctx context.Context, template *models.Template) error {
	if template.ID == "" {
		template.ID = primitive.NewObjectID().Hex()
	}
	if template.CreatedAt.IsZero() {
		template.CreatedAt = time.Now().UTC()
	}
	_, err := r.Col.InsertOne(ctx, template)
	return err
}
