package repository

import (
	"context"
	"errors"
	"time"

	"adaptive-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SessionRepository struct {
	Col *mongo.Collection
}

func NewSessionRepository(db *mongo.Database) *SessionRepository {
	return &SessionRepository{Col: db.Collection("learning_sessions")}
}

func (r *SessionRepository) CreateSession(ctx context.Context, userID, subjectID, topicID string) (*models.LearningSession, error) {
	session := &models.LearningSession{
		ID:        primitive.NewObjectID().Hex(),
		UserID:    userID,
		SubjectID: subjectID,
		TopicID:   topicID,
		StartTime: time.Now().UTC(),
	}
	if _, err := r.Col.InsertOne(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ActiveSession returns the learner's most recently started open session for
// a topic, or (nil, nil) when none is open.
func (r *SessionRepository) ActiveSession(ctx context.Context, userID, topicID string) (*models.LearningSession, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "start_time", Value: -1}})

	var session models.LearningSession
	err := r.Col.FindOne(ctx, bson.M{
		"user_id":  userID,
		"topic_id": topicID,
		"end_time": nil,
	}, opts).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SessionByID returns (nil, nil) when the id is unknown.
func (r *SessionRepository) SessionByID(ctx context.Context, sessionID string) (*models.LearningSession, error) {
	var session models.LearningSession
	err := r.Col.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// RecordAttempt bumps the session counters with a server-side increment so
// concurrent submissions never lose updates. An unknown session id is a
// no-op, matching the engine's optional-session contract.
func (r *SessionRepository) RecordAttempt(ctx context.Context, sessionID string, correct bool) error {
	inc := bson.M{"questions_attempted": 1}
	if correct {
		inc["questions_correct"] = 1
	}
	_, err := r.Col.UpdateOne(ctx, bson.M{"_id": sessionID}, bson.M{"$inc": inc})
	return err
}

// EndSession stamps end_time and returns the closed session, or (nil, nil)
// when the id is unknown.
func (r *SessionRepository) EndSession(ctx context.Context, sessionID string) (*models.LearningSession, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var session models.LearningSession
	err := r.Col.FindOneAndUpdate(ctx,
		bson.M{"_id": sessionID},
		bson.M{"$set": bson.M{"end_time": time.Now().UTC()}},
		opts,
	).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}
