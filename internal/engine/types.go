package engine

import (
	"context"
	"time"

	"adaptive-service/internal/models"
)

// UserState is the per-decision snapshot the bandit scores against. It is
// rebuilt from storage on every call and never retained.
type UserState struct {
	GlobalAbility   float64            `json:"global_ability"`
	RecentAccuracy  float64            `json:"recent_accuracy"`
	ResponseTimeAvg float64            `json:"response_time_avg"`
	ConceptMastery  map[string]float64 `json:"concept_mastery"`
	TopicID         string             `json:"topic_id"`
}

// IRTItem is one scored response annotated with the question's item
// parameters, the unit of ability estimation.
type IRTItem struct {
	Correct        bool    `bson:"correct" json:"correct"`
	Difficulty     float64 `bson:"difficulty" json:"difficulty"`
	Discrimination float64 `bson:"discrimination" json:"discrimination"`
	Guessing       float64 `bson:"guessing" json:"guessing"`
}

// BetaParams are the Beta-distribution shape parameters of one bandit arm.
type BetaParams struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// LearnerStore persists per-user ability and per-(user,concept) mastery.
// Missing rows answer the storage-layer defaults (0.5 ability, empty map).
type LearnerStore interface {
	GlobalAbility(ctx context.Context, userID string) (float64, error)
	UpdateGlobalAbility(ctx context.Context, userID string, theta float64) error
	ConceptMastery(ctx context.Context, userID string) (map[string]float64, error)
	UpdateConceptMastery(ctx context.Context, userID, conceptID string, mastery float64) error
}

// TemplateStore serves candidate templates.
type TemplateStore interface {
	CandidateTemplates(ctx context.Context, topicID string) ([]models.Template, error)
}

// ConceptStore serves concepts and their prerequisite edges. Concept returns
// (nil, nil) for an unknown id.
type ConceptStore interface {
	Concept(ctx context.Context, conceptID string) (*models.Concept, error)
	Prerequisites(ctx context.Context, conceptID string) ([]string, error)
}

// QuestionStore serves and persists concrete questions. Lookups return
// (nil, nil) when nothing matches.
type QuestionStore interface {
	CachedQuestion(ctx context.Context, templateID string) (*models.Question, error)
	QuestionByID(ctx context.Context, questionID string) (*models.Question, error)
	SaveQuestion(ctx context.Context, q *models.Question) error
}

// ResponseStore persists answer events and per-(user,template) bandit
// statistics.
type ResponseStore interface {
	StoreResponse(ctx context.Context, r *models.UserResponse) error
	RecentResponses(ctx context.Context, userID string, limit int) ([]models.UserResponse, error)
	IRTHistory(ctx context.Context, userID string) ([]IRTItem, error)
	BanditStats(ctx context.Context, userID string) (map[string]BetaParams, error)
	UpdateBanditStats(ctx context.Context, userID, templateID string, alpha, beta float64) error
}

// SessionStore owns learning-session lifecycle and counters. RecordAttempt
// must be atomic per session row.
type SessionStore interface {
	CreateSession(ctx context.Context, userID, subjectID, topicID string) (*models.LearningSession, error)
	ActiveSession(ctx context.Context, userID, topicID string) (*models.LearningSession, error)
	SessionByID(ctx context.Context, sessionID string) (*models.LearningSession, error)
	RecordAttempt(ctx context.Context, sessionID string, correct bool) error
	EndSession(ctx context.Context, sessionID string) (*models.LearningSession, error)
}

// NextQuestion is the payload served to a learner. The correct option is
// deliberately absent.
type NextQuestion struct {
	QuestionID        string    `json:"question_id"`
	TemplateID        string    `json:"template_id"`
	ConceptID         string    `json:"concept_id"`
	QuestionText      string    `json:"question_text"`
	Options           []string  `json:"options"`
	Difficulty        float64   `json:"difficulty"`
	LearningObjective string    `json:"learning_objective"`
	SessionID         string    `json:"session_id,omitempty"`
	Generated         bool      `json:"generated"`
	Timestamp         time.Time `json:"timestamp"`
}

// ResponseInput is one submitted answer.
type ResponseInput struct {
	UserID              string
	QuestionID          string
	TemplateID          string
	ConceptID           string
	SelectedOptionIndex int
	ResponseTime        float64
	SessionID           string
}

// Feedback is what the learner sees after answering, plus the updated model
// state.
type Feedback struct {
	Correct            bool    `json:"correct"`
	CorrectOptionIndex int     `json:"correct_option_index"`
	Explanation        string  `json:"explanation"`
	UpdatedMastery     float64 `json:"updated_mastery"`
	GlobalAbility      float64 `json:"global_ability"`
	Misconception      string  `json:"misconception,omitempty"`
	SuggestedReview    bool    `json:"suggested_review"`
}
