package db

import "time"

// ResultReport is one status update the agent tried to deliver.
type ResultReport struct {
	ID        uint   `gorm:"primaryKey"`
	BatchID   string `gorm:"size:36;index"`
	CommandID string `gorm:"size:64;index"`
	Status    string `gorm:"size:16"`
	Message   string `gorm:"size:1000"`
	Delivered bool
	Error     string `gorm:"size:512"`
	CreatedAt time.Time
}
