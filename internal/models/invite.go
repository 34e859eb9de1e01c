package models

import "time"

type InviteCode struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Code        string     `gorm:"size:32;uniqueIndex;not null" json:"code"`
	AllowedUses int        `gorm:"not null;default:1" json:"allowed_uses"`
	UsedCount   int        `gorm:"not null;default:0" json:"used_count"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Note        string     `gorm:"size:255" json:"note,omitempty"`
	CreatedBy   int64      `gorm:"not null" json:"created_by"`
	Active      bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (InviteCode) TableName() string { return "membership_codes" }
