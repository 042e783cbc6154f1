package models

// IRT parameter defaults applied to questions that never went through
// calibration.
const (
	DefaultDifficulty     = 0.5
	DefaultDiscrimination = 1.0
	DefaultGuessing       = 0.25
)

type Question struct {
	ID             string   `bson:"_id,omitempty" json:"id"`
	TemplateID     string   `bson:"template_id" json:"template_id"`
	QuestionText   string   `bson:"question_text" json:"question_text"`
	Options        []string `bson:"options" json:"options"` // exactly 4
	CorrectOption  int      `bson:"correct_option" json:"correct_option"`
	Explanation    string   `bson:"explanation" json:"explanation"`
	Difficulty     float64  `bson:"difficulty" json:"difficulty"`         // IRT b
	Discrimination float64  `bson:"discrimination" json:"discrimination"` // IRT a
	Guessing       float64  `bson:"guessing" json:"guessing"`             // IRT c
}
