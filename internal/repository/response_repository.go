package repository

import (
	"context"
	"time"

	"adaptive-service/internal/engine"
	"adaptive-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ResponseRepository persists answer events and per-(user,template) bandit
// statistics.
type ResponseRepository struct {
	Responses *mongo.Collection
	Bandit    *mongo.Collection
}

func NewResponseRepository(db *mongo.Database) *ResponseRepository {
	return &ResponseRepository{
		Responses: db.Collection("user_responses"),
		Bandit:    db.Collection("bandit_stats"),
	}
}

func (r *ResponseRepository) StoreResponse(ctx context.Context, response *models.UserResponse) error {
	if response.ID == "" {
		response.ID = primitive.NewObjectID().Hex()
	}
	_, err := r.Responses.InsertOne(ctx, response)
	return err
}

// RecentResponses returns the learner's last answers, most recent first.
func (r *ResponseRepository) RecentResponses(ctx context.Context, userID string, limit int) ([]models.UserResponse, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.Responses.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var responses []models.UserResponse
	for cur.Next(ctx) {
		var resp models.UserResponse
		if err := cur.Decode(&resp); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, cur.Err()
}

// IRTHistory returns the learner's full response history annotated with each
// question's item parameters, defaulting them when the question reference
// dangles.
func (r *ResponseRepository) IRTHistory(ctx context.Context, userID string) ([]engine.IRTItem, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "questions",
			"localField":   "question_id",
			"foreignField": "_id",
			"as":           "question",
		}}},
		{{Key: "$unwind", Value: bson.M{
			"path":                       "$question",
			"preserveNullAndEmptyArrays": true,
		}}},
		{{Key: "$project", Value: bson.M{
			"correct":        1,
			"difficulty":     bson.M{"$ifNull": bson.A{"$question.difficulty", models.DefaultDifficulty}},
			"discrimination": bson.M{"$ifNull": bson.A{"$question.discrimination", models.DefaultDiscrimination}},
			"guessing":       bson.M{"$ifNull": bson.A{"$question.guessing", models.DefaultGuessing}},
		}}},
	}

	cur, err := r.Responses.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var items []engine.IRTItem
	for cur.Next(ctx) {
		var item engine.IRTItem
		if err := cur.Decode(&item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, cur.Err()
}

// BanditStats returns the learner's alpha/beta pairs keyed by template.
func (r *ResponseRepository) BanditStats(ctx context.Context, userID string) (map[string]engine.BetaParams, error) {
	cur, err := r.Bandit.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	stats := make(map[string]engine.BetaParams)
	for cur.Next(ctx) {
		var s models.BanditStats
		if err := cur.Decode(&s); err != nil {
			return nil, err
		}
		stats[s.TemplateID] = engine.BetaParams{Alpha: s.Alpha, Beta: s.Beta}
	}
	return stats, cur.Err()
}

// UpdateBanditStats upserts one (user,template) row. A single upsert keeps
// the write atomic per arm.
func (r *ResponseRepository) UpdateBanditStats(ctx context.Context, userID, templateID string, alpha, beta float64) error {
	_, err := r.Bandit.UpdateOne(ctx,
		bson.M{"user_id": userID, "template_id": templateID},
		bson.M{"$set": bson.M{"alpha": alpha, "beta": beta, "last_updated": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}
