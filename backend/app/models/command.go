package models

import "time"

const (
	CommandPending   = "pending"
	CommandExecuting = "executing"
	CommandCompleted = "completed"
	CommandFailed    = "failed"
)

// Command is one queued instruction for a device.
type Command struct {
	ID            uint    `gorm:"primaryKey"`
	DeviceID      uint    `gorm:"index;not null"`
	Type          string  `gorm:"size:50;not null"`
	Params        string  `gorm:"type:text"`              // JSON object
	Status        string  `gorm:"size:16;index;not null"` // pending,executing,completed,failed
	ResultMessage *string `gorm:"size:1000"`
	ResultData    string  `gorm:"type:text"` // JSON, output/error from the agent
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}
