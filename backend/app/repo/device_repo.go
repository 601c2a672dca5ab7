package repo

import (
	"time"

	"growdash-agent/backend/app/models"

	"gorm.io/gorm"
)

type DeviceRepository struct{ db *gorm.DB }

func NewDeviceRepository(db *gorm.DB) *DeviceRepository { return &DeviceRepository{db: db} }

func (r *DeviceRepository) FindByPublicID(publicID string) (*models.Device, error) {
	var d models.Device
	if err := r.db.Where("public_id = ?", publicID).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DeviceRepository) Create(d *models.Device) error { return r.db.Create(d).Error }

// Upsert keeps the row id of an existing device with the same public id.
func (r *DeviceRepository) Upsert(d *models.Device) error {
	var existing models.Device
	if err := r.db.Where("public_id = ?", d.PublicID).First(&existing).Error; err == nil {
		d.ID = existing.ID
		d.CreatedAt = existing.CreatedAt
		return r.db.Save(d).Error
	}
	return r.db.Create(d).Error
}

func (r *DeviceRepository) MarkSeen(id uint, at time.Time, lastState *string) error {
	updates := map[string]any{
		"status":       models.DeviceOnline,
		"last_seen_at": at,
	}
	if lastState != nil {
		updates["last_state"] = *lastState
	}
	return r.db.Model(&models.Device{}).Where("id = ?", id).Updates(updates).Error
}

func (r *DeviceRepository) ListAll() ([]models.Device, error) {
	var out []models.Device
	return out, r.db.Order("id ASC").Find(&out).Error
}
