package repository

import (
	"context"
	"errors"

	"adaptive-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ConceptRepository struct {
	Col *mongo.Collection
}

func NewConceptRepository(db *mongo.Database) *ConceptRepository {
	return &ConceptRepository{Col: db.Collection("concepts")}
}

// Concept returns (nil, nil) when the id is unknown.
func (r *ConceptRepository) Concept(ctx context.Context, conceptID string) (*models.Concept, error) {
	var concept models.Concept
	err := r.Col.FindOne(ctx, bson.M{"_id": conceptID}).Decode(&concept)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &concept, nil
}

func (r *ConceptRepository) Prerequisites(ctx context.Context, conceptID string) ([]string, error) {
	concept, err := r.Concept(ctx, conceptID)
	if err != nil || concept == nil {
		return nil, err
	}
	return concept.Prerequisites, nil
}

func (r *ConceptRepository) Create(ctx context.Context, concept *models.Concept) error {
	if concept.ID == "" {
		concept.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.Col.InsertOne(ctx, concept)
	return err
}
