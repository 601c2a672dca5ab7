package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"growdash-agent/actuator"
	"growdash-agent/backend/app/models"
	"growdash-agent/backend/app/repo"
	"growdash-agent/backend/global"

	"gorm.io/gorm"
)

const (
	MaxResultMessage = 1000
	maxSerialCommand = 256
	maxTypeLength    = 50
	DefaultHistory   = 50
	maxHistory       = 100
)

var ErrCommandNotFound = errors.New("command not found")

// ValidationError maps field names to messages; it renders as a 422.
type ValidationError map[string][]string

func (v ValidationError) Error() string {
	parts := make([]string, 0, len(v))
	for field, msgs := range v {
		parts = append(parts, field+": "+strings.Join(msgs, ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationError) add(field, msg string) { v[field] = append(v[field], msg) }

// ResultInput is what an agent posts for one status update.
type ResultInput struct {
	Status        string
	ResultMessage *string
	Output        *string
	Error         *string
}

type CommandService struct {
	commands *repo.CommandRepository
	events   Publisher
	now      func() time.Time
}

func NewCommandService(commands *repo.CommandRepository, events Publisher) *CommandService {
	if events == nil {
		events = NopPublisher{}
	}
	return &CommandService{commands: commands, events: events, now: time.Now}
}

// Enqueue validates and stores a new pending command for d. Known actuator
// types are stored as the serial_command they map to.
func (s *CommandService) Enqueue(d *models.Device, typ string, params json.RawMessage) (*models.Command, error) {
	verr := ValidationError{}
	typ = strings.TrimSpace(typ)
	switch {
	case typ == "":
		verr.add("type", "required")
	case len(typ) > maxTypeLength:
		verr.add("type", fmt.Sprintf("max %d characters", maxTypeLength))
	}

	fields := map[string]any{}
	if len(params) > 0 && string(params) != "null" {
		dec := json.NewDecoder(bytes.NewReader(params))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			verr.add("params", "must be an object")
		}
	}
	if line, ok := actuator.ToSerial(typ, fields); ok && len(verr) == 0 {
		global.Logger.Info().Str("device", d.PublicID).Str("type", typ).Str("serial", line).Msg("actuator command mapped to serial")
		typ = "serial_command"
		fields = map[string]any{"command": line}
	}
	if typ == "serial_command" {
		line, _ := fields["command"].(string)
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			verr.add("params.command", "Required string")
		case strings.ContainsAny(line, "\r\n"):
			verr.add("params.command", "Must be a single line")
		case utf8.RuneCountInString(line) > maxSerialCommand:
			verr.add("params.command", "Too long")
		}
		fields = map[string]any{"command": line}
	}
	if len(verr) > 0 {
		return nil, verr
	}

	raw, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	cmd := &models.Command{DeviceID: d.ID, Type: typ, Params: string(raw), Status: models.CommandPending}
	if err := s.commands.Create(cmd); err != nil {
		return nil, err
	}
	global.Logger.Info().Uint("command_id", cmd.ID).Str("device", d.PublicID).Str("type", typ).Msg("command created")
	return cmd, nil
}

func (s *CommandService) Pending(d *models.Device) ([]models.Command, error) {
	return s.commands.Pending(d.ID)
}

// ApplyResult records an agent status update and broadcasts it.
func (s *CommandService) ApplyResult(ctx context.Context, d *models.Device, id uint, in ResultInput) (*models.Command, error) {
	cmd, err := s.commands.FindForDevice(id, d.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCommandNotFound
	}
	if err != nil {
		return nil, err
	}

	verr := ValidationError{}
	switch in.Status {
	case "":
		verr.add("status", "required")
	case models.CommandExecuting, models.CommandCompleted, models.CommandFailed:
	default:
		verr.add("status", "must be one of executing, completed, failed")
	}
	if in.ResultMessage != nil && utf8.RuneCountInString(*in.ResultMessage) > MaxResultMessage {
		verr.add("result_message", fmt.Sprintf("max %d characters", MaxResultMessage))
	}
	if len(verr) > 0 {
		return nil, verr
	}

	data := map[string]string{}
	if in.Error != nil {
		data["error"] = *in.Error
	}
	if in.Output != nil {
		data["output"] = *in.Output
	}
	cmd.ResultData = ""
	if len(data) > 0 {
		raw, _ := json.Marshal(data)
		cmd.ResultData = string(raw)
	}
	cmd.Status = in.Status
	cmd.ResultMessage = in.ResultMessage
	cmd.CompletedAt = nil
	if in.Status == models.CommandCompleted || in.Status == models.CommandFailed {
		at := s.now().UTC()
		cmd.CompletedAt = &at
	}
	if err := s.commands.UpdateResult(cmd); err != nil {
		return nil, err
	}
	global.Logger.Info().Uint("command_id", cmd.ID).Str("device", d.PublicID).Str("status", cmd.Status).Msg("command status updated")

	if err := s.events.PublishCommandStatus(ctx, NewCommandStatusEvent(d, cmd, s.now())); err != nil {
		global.Logger.Warn().Err(err).Uint("command_id", cmd.ID).Msg("broadcast command status")
	}
	return cmd, nil
}

// History returns up to limit commands, newest first. limit <= 0 means the default.
func (s *CommandService) History(d *models.Device, limit int) ([]models.Command, error) {
	if limit <= 0 {
		limit = DefaultHistory
	}
	if limit > maxHistory {
		limit = maxHistory
	}
	return s.commands.History(d.ID, limit)
}
