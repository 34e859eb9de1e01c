package models

const (
	QuestionTypeChoice = "choice"
	QuestionTypeText   = "text"
)

type ScreeningQuestion struct {
	ID    uint     `gorm:"primaryKey" json:"id"`
	QText string   `gorm:"type:text;not null" json:"q_text"`
	QType string   `gorm:"size:10;not null;default:'choice'" json:"q_type"`
	// Option labels for choice questions, stored as a json column.
	Options []string `gorm:"serializer:json" json:"options,omitempty"`
	// Carried in the schema but not consulted by scoring, which weights
	// answers by option position.
	CorrectIndex *int `json:"correct_index,omitempty"`
}
