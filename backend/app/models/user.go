package models

import "time"

const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// User is a dashboard account; only admins may queue commands.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;size:191;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:32;not null;default:viewer"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
