package models

import "time"

type Template struct {
	ID                string            `bson:"_id,omitempty" json:"id"`
	ConceptID         string            `bson:"concept_id" json:"concept_id"`
	TopicID           string            `bson:"topic_id" json:"topic_id"`
	LearningObjective string            `bson:"learning_objective" json:"learning_objective"`
	TargetDifficulty  float64           `bson:"target_difficulty" json:"target_difficulty"` // 0-1
	QuestionStyle     string            `bson:"question_style" json:"question_style"`       // "conceptual", "numerical", ...
	AnswerFormat      string            `bson:"answer_format" json:"answer_format"`
	ConfigMetadata    map[string]string `bson:"config_metadata,omitempty" json:"config_metadata,omitempty"`
	CreatedAt         time.Time         `bson:"created_at" json:"created_at"`
}
