package models

import "time"

type ScreeningSession struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	TelegramID int64      `gorm:"not null;uniqueIndex;column:tg_id" json:"tg_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Score      int        `gorm:"not null;default:0" json:"score"`
	Result     string     `gorm:"size:10" json:"result,omitempty"`
}
