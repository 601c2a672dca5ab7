package models

import "time"

const (
	DeviceOnline  = "online"
	DeviceOffline = "offline"
)

type Device struct {
	ID         uint   `gorm:"primaryKey"`
	PublicID   string `gorm:"uniqueIndex;size:64;not null"`
	Name       string `gorm:"size:255"`
	TokenHash  string `gorm:"size:64;not null"`
	Status     string `gorm:"size:16;not null;default:offline"`
	LastSeenAt *time.Time
	LastState  string `gorm:"type:text"` // JSON
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
