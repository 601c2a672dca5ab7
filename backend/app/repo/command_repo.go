package repo

import (
	"growdash-agent/backend/app/models"

	"gorm.io/gorm"
)

type CommandRepository struct {
	db *gorm.DB
}

func NewCommandRepository(db *gorm.DB) *CommandRepository {
	return &CommandRepository{db: db}
}

func (r *CommandRepository) Create(cmd *models.Command) error {
	return r.db.Create(cmd).Error
}

// Pending returns the device's queued commands, oldest first.
func (r *CommandRepository) Pending(deviceID uint) ([]models.Command, error) {
	var cmds []models.Command
	err := r.db.Where("device_id = ? AND status = ?", deviceID, models.CommandPending).
		Order("created_at ASC").Order("id ASC").
		Find(&cmds).Error
	return cmds, err
}

// FindForDevice only matches commands owned by deviceID.
func (r *CommandRepository) FindForDevice(id, deviceID uint) (*models.Command, error) {
	var cmd models.Command
	if err := r.db.Where("id = ? AND device_id = ?", id, deviceID).First(&cmd).Error; err != nil {
		return nil, err
	}
	return &cmd, nil
}

func (r *CommandRepository) UpdateResult(cmd *models.Command) error {
	return r.db.Model(cmd).Select("status", "result_message", "result_data", "completed_at").Updates(cmd).Error
}

// History returns the newest commands first.
func (r *CommandRepository) History(deviceID uint, limit int) ([]models.Command, error) {
	var cmds []models.Command
	err := r.db.Where("device_id = ?", deviceID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&cmds).Error
	return cmds, err
}
