package repository

import (
	"context"
	"errors"
	"time"

	"adaptive-service/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LearnerRepository persists per-user ability and per-(user,concept) mastery.
type LearnerRepository struct {
	Abilities *mongo.Collection
	Masteries *mongo.Collection
}

func NewLearnerRepository(db *mongo.Database) *LearnerRepository {
	return &LearnerRepository{
		Abilities: db.Collection("user_abilities"),
		Masteries: db.Collection("user_masteries"),
	}
}

// GlobalAbility returns the stored theta, or the neutral default when the
// learner has no ability row yet.
func (r *LearnerRepository) GlobalAbility(ctx context.Context, userID string) (float64, error) {
	var ability models.UserAbility
	err := r.Abilities.FindOne(ctx, bson.M{"user_id": userID}).Decode(&ability)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NeutralAbility, nil
	}
	if err != nil {
		return 0, err
	}
	return ability.GlobalAbility, nil
}

func (r *LearnerRepository) UpdateGlobalAbility(ctx context.Context, userID string, theta float64) error {
	_, err := r.Abilities.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{"global_ability": theta, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}

// ConceptMastery returns the learner's full mastery map, empty when nothing
// has been recorded.
func (r *LearnerRepository) ConceptMastery(ctx context.Context, userID string) (map[string]float64, error) {
	cur, err := r.Masteries.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	masteries := make(map[string]float64)
	for cur.Next(ctx) {
		var m models.UserMastery
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		masteries[m.ConceptID] = m.Mastery
	}
	return masteries, cur.Err()
}

func (r *LearnerRepository) UpdateConceptMastery(ctx context.Context, userID, conceptID string, mastery float64) error {
	_, err := r.Masteries.UpdateOne(ctx,
		bson.M{"user_id": userID, "concept_id": conceptID},
		bson.M{"$set": bson.M{"mastery": mastery, "updated_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return err
}
