package models

import "time"

type LearningSession struct {
	ID                 string     `bson:"_id,omitempty" json:"id"`
	UserID             string     `bson:"user_id" json:"user_id"`
	SubjectID          string     `bson:"subject_id" json:"subject_id"`
	TopicID            string     `bson:"topic_id" json:"topic_id"`
	StartTime          time.Time  `bson:"start_time" json:"start_time"`
	EndTime            *time.Time `bson:"end_time,omitempty" json:"end_time,omitempty"`
	QuestionsAttempted int        `bson:"questions_attempted" json:"questions_attempted"`
	QuestionsCorrect   int        `bson:"questions_correct" json:"questions_correct"`
}
