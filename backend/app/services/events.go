package services

import (
	"context"
	"encoding/json"
	"time"

	"growdash-agent/backend/app/models"

	"github.com/redis/go-redis/v9"
)

const EventCommandStatusUpdated = "command.status.updated"

// CommandStatusEvent is broadcast after every accepted status update.
type CommandStatusEvent struct {
	Event         string     `json:"event"`
	CommandID     uint       `json:"command_id"`
	DeviceID      string     `json:"device_id"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	ResultMessage *string    `json:"result_message"`
	CompletedAt   *time.Time `json:"completed_at"`
	Timestamp     time.Time  `json:"timestamp"`
}

func NewCommandStatusEvent(d *models.Device, cmd *models.Command, now time.Time) CommandStatusEvent {
	return CommandStatusEvent{
		Event:         EventCommandStatusUpdated,
		CommandID:     cmd.ID,
		DeviceID:      d.PublicID,
		Type:          cmd.Type,
		Status:        cmd.Status,
		ResultMessage: cmd.ResultMessage,
		CompletedAt:   cmd.CompletedAt,
		Timestamp:     now.UTC(),
	}
}

// Channel is the pub/sub channel a device's events go to.
func (e CommandStatusEvent) Channel() string { return "growdash:device." + e.DeviceID }

type Publisher interface {
	PublishCommandStatus(ctx context.Context, ev CommandStatusEvent) error
}

type NopPublisher struct{}

func (NopPublisher) PublishCommandStatus(context.Context, CommandStatusEvent) error { return nil }

// RedisPublisher sends events over redis PUBLISH.
type RedisPublisher struct{ rdb *redis.Client }

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher { return &RedisPublisher{rdb: rdb} }

func (p *RedisPublisher) PublishCommandStatus(ctx context.Context, ev CommandStatusEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, ev.Channel(), payload).Err()
}
