package repository

import (
	"context"
	"errors"

	"adaptive-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type QuestionRepository struct {
	Col *mongo.Collection
}

func NewQuestionRepository(db *mongo.Database) *QuestionRepository {
	return &QuestionRepository{Col: db.Collection("questions")}
}

// CachedQuestion returns the first question generated for a template, or
// (nil, nil) when the template has no cache entry yet.
func (r *QuestionRepository) CachedQuestion(ctx context.Context, templateID string) (*models.Question, error) {
	var question models.Question
	err := r.Col.FindOne(ctx, bson.M{"template_id": templateID}).Decode(&question)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// QuestionByID returns (nil, nil) when the id is unknown.
func (r *QuestionRepository) QuestionByID(ctx context.Context, questionID string) (*models.Question, error) {
	var question models.Question
	err := r.Col.FindOne(ctx, bson.M{"_id": questionID}).Decode(&question)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &question, nil
}

// SaveQuestion persists a newly generated question. Questions are immutable
// once stored.
func (r *QuestionRepository) SaveQuestion(ctx context.Context, question *models.Question) error {
	if question.ID == "" {
		question.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.Col.InsertOne(ctx, question)
	return err
}
