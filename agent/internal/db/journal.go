package db

import (
	"context"
	"unicode/utf8"

	"growdash-agent/agent/internal/command"
	"growdash-agent/agent/internal/logger"

	"gorm.io/gorm"
)

// Journal wraps a Reporter and records every report attempt locally.
// Nothing is ever replayed from it.
type Journal struct {
	db      *gorm.DB
	next    command.Reporter
	batchID string
}

func NewJournal(gdb *gorm.DB, next command.Reporter) *Journal {
	return &Journal{db: gdb, next: next}
}

// SetBatch tags subsequent rows with the current poll cycle.
func (j *Journal) SetBatch(id string) { j.batchID = id }

func (j *Journal) Report(ctx context.Context, id command.ID, status command.Status, message string) error {
	err := j.next.Report(ctx, id, status, message)
	row := ResultReport{
		BatchID:   j.batchID,
		CommandID: id.String(),
		Status:    string(status),
		Message:   clip(message, 1000),
		Delivered: err == nil,
	}
	if err != nil {
		row.Error = clip(err.Error(), 512)
	}
	if dbErr := j.db.WithContext(ctx).Create(&row).Error; dbErr != nil {
		logger.Warnf("journal write for command %s failed: %v", id, dbErr)
	}
	return err
}

// Recent returns the newest rows first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]ResultReport, error) {
	var rows []ResultReport
	err := j.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
