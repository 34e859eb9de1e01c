package models

type ScreeningAnswer struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	SessionID   uint   `gorm:"not null;uniqueIndex:idx_session_question" json:"session_id"`
	QuestionID  uint   `gorm:"not null;uniqueIndex:idx_session_question" json:"question_id"`
	AnswerText  string `gorm:"type:text" json:"answer_text,omitempty"`
	ChosenIndex *int   `json:"chosen_index,omitempty"`
	// Present in the schema, never populated by the positional scoring path.
	IsCorrect bool `gorm:"not null;default:false" json:"is_correct"`
}
