package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"growdash-agent/backend/app/models"
	"growdash-agent/backend/app/repo"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrDeviceNotFound = errors.New("device not found")
	ErrInvalidToken   = errors.New("device token verification failed")
)

type DeviceService struct {
	devices *repo.DeviceRepository
	now     func() time.Time
}

func NewDeviceService(devices *repo.DeviceRepository) *DeviceService {
	return &DeviceService{devices: devices, now: time.Now}
}

// HashToken is the stored form of an agent token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Register creates a device and returns it with its plaintext token, which
// is not stored and cannot be recovered later.
func (s *DeviceService) Register(name string) (*models.Device, string, error) {
	token, err := newToken()
	if err != nil {
		return nil, "", err
	}
	d := &models.Device{
		PublicID:  uuid.NewString(),
		Name:      name,
		TokenHash: HashToken(token),
		Status:    models.DeviceOffline,
	}
	if err := s.devices.Create(d); err != nil {
		return nil, "", err
	}
	return d, token, nil
}

// Provision creates or replaces a device with a known id and token.
func (s *DeviceService) Provision(publicID, name, token string) (*models.Device, error) {
	if publicID == "" || token == "" {
		return nil, errors.New("device id and token are required")
	}
	d := &models.Device{PublicID: publicID, Name: name, TokenHash: HashToken(token), Status: models.DeviceOffline}
	if err := s.devices.Upsert(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Authenticate resolves the device behind an X-Device-ID / X-Device-Token pair.
func (s *DeviceService) Authenticate(publicID, token string) (*models.Device, error) {
	d, err := s.FindByPublicID(publicID)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(d.TokenHash), []byte(HashToken(token))) != 1 {
		return nil, ErrInvalidToken
	}
	return d, nil
}

func (s *DeviceService) FindByPublicID(publicID string) (*models.Device, error) {
	d, err := s.devices.FindByPublicID(publicID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDeviceNotFound
	}
	return d, err
}

// Heartbeat marks the device online. A nil lastState keeps the previous one.
func (s *DeviceService) Heartbeat(d *models.Device, lastState json.RawMessage) (time.Time, error) {
	at := s.now().UTC()
	var state *string
	if len(lastState) > 0 && string(lastState) != "null" {
		v := string(lastState)
		state = &v
	}
	if err := s.devices.MarkSeen(d.ID, at, state); err != nil {
		return time.Time{}, err
	}
	return at, nil
}

func (s *DeviceService) ListAll() ([]models.Device, error) {
	return s.devices.ListAll()
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
