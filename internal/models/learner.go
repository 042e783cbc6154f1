package models

import "time"

// NeutralAbility is the stored-layer default returned when a learner has no
// ability row yet. The estimator's own zero-history default is 0.0 theta; the
// two values are intentionally distinct.
const NeutralAbility = 0.5

// DefaultMasteryPrior seeds mastery for a concept the learner has never
// answered on.
const DefaultMasteryPrior = 0.3

type UserAbility struct {
	ID            string    `bson:"_id,omitempty" json:"id"`
	UserID        string    `bson:"user_id" json:"user_id"`
	GlobalAbility float64   `bson:"global_ability" json:"global_ability"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

type UserMastery struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	ConceptID string    `bson:"concept_id" json:"concept_id"`
	Mastery   float64   `bson:"mastery" json:"mastery"` // 0-1
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

type BanditStats struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	UserID      string    `bson:"user_id" json:"user_id"`
	TemplateID  string    `bson:"template_id" json:"template_id"`
	Alpha       float64   `bson:"alpha" json:"alpha"`
	Beta        float64   `bson:"beta" json:"beta"`
	LastUpdated time.Time `bson:"last_updated" json:"last_updated"`
}
