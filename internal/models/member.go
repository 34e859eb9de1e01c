package models

import "time"

const ScreeningStatusPending = "pending"

type Member struct {
	TelegramID      int64     `gorm:"primaryKey;autoIncrement:false;column:tg_id" json:"tg_id"`
	Username        string    `gorm:"size:100" json:"username,omitempty"`
	FirstName       string    `gorm:"size:100" json:"first_name,omitempty"`
	LastName        string    `gorm:"size:100" json:"last_name,omitempty"`
	JoinedAt        time.Time `json:"joined_at"`
	MyCode          string    `gorm:"size:7;uniqueIndex" json:"my_code"`
	ScreeningStatus string    `gorm:"size:10;not null;default:'pending'" json:"screening_status"`
}
