package models

type Concept struct {
	ID                   string   `bson:"_id,omitempty" json:"id"`
	TopicID              string   `bson:"topic_id" json:"topic_id"`
	Name                 string   `bson:"name" json:"name"`
	Description          string   `bson:"description" json:"description"`
	Prerequisites        []string `bson:"prerequisites" json:"prerequisites"`
	CommonMisconceptions []string `bson:"common_misconceptions" json:"common_misconceptions"`
	DifficultyLevel      int      `bson:"difficulty_level" json:"difficulty_level"`
}

// MisconceptionFor maps a selected distractor to the concept's known
// misconception at the same ordinal. The two lists are index-aligned by
// convention; an index past the list means no known misconception.
func (c *Concept) MisconceptionFor(selectedIndex int) string {
	if c == nil || selectedIndex < 0 || selectedIndex >= len(c.CommonMisconceptions) {
		return ""
	}
	return c.CommonMisconceptions[selectedIndex]
}
