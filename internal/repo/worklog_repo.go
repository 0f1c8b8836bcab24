// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for work-log
// ledger lines.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-intranet-backend/internal/domain"
)

// CreateWorkLogLine inserts l with a fresh id. Derived fields must already
// be set by the caller.
func CreateWorkLogLine(ctx context.Context, db *gorm.DB, l domain.WorkLogLine) (*domain.WorkLogLine, error) {
	now := time.Now().UTC()
	l.ID = uuid.NewString()
	l.CreatedAt, l.UpdatedAt = now, now
	if err := db.WithContext(ctx).Create(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// GetWorkLogLine fetches a line by id.
func GetWorkLogLine(ctx context.Context, db *gorm.DB, id string) (*domain.WorkLogLine, error) {
	var l domain.WorkLogLine
	if err := db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// ListWorkLogLines returns the lines of a (month, year) period ordered by
// date then creation.
func ListWorkLogLines(ctx context.Context, db *gorm.DB, month, year int) ([]domain.WorkLogLine, error) {
	var out []domain.WorkLogLine
	err := db.WithContext(ctx).
		Where("month = ? AND year = ?", month, year).
		Order("date asc, created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// SaveWorkLogLine writes every column of l (last write wins).
func SaveWorkLogLine(ctx context.Context, db *gorm.DB, l *domain.WorkLogLine) error {
	l.UpdatedAt = time.Now().UTC()
	res := db.WithContext(ctx).Model(&domain.WorkLogLine{}).Where("id = ?", l.ID).Select("*").Omit("id", "created_at").Updates(l)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteWorkLogLine removes a line.
func DeleteWorkLogLine(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.WorkLogLine{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
