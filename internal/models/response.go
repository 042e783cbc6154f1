package models

import "time"

type UserResponse struct {
	ID                    string    `bson:"_id,omitempty" json:"id"`
	UserID                string    `bson:"user_id" json:"user_id"`
	SessionID             string    `bson:"session_id,omitempty" json:"session_id,omitempty"`
	QuestionID            string    `bson:"question_id" json:"question_id"`
	TemplateID            string    `bson:"template_id" json:"template_id"`
	ConceptID             string    `bson:"concept_id" json:"concept_id"`
	SelectedOption        int       `bson:"selected_option" json:"selected_option"`
	Correct               bool      `bson:"correct" json:"correct"`
	MisconceptionDetected string    `bson:"misconception_detected,omitempty" json:"misconception_detected,omitempty"`
	ResponseTime          float64   `bson:"response_time" json:"response_time"` // seconds
	Timestamp             time.Time `bson:"timestamp" json:"timestamp"`
}
