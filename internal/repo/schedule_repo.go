// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for schedule
// cells of the planning grid.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-intranet-backend/internal/domain"
)

// ListCellsInRange returns the cells whose date lies in [from, to]
// (YYYY-MM-DD strings compare chronologically).
func ListCellsInRange(ctx context.Context, db *gorm.DB, from, to string) ([]domain.ScheduleCell, error) {
	var out []domain.ScheduleCell
	err := db.WithContext(ctx).
		Where("date >= ? AND date <= ?", from, to).
		Order("date asc, technician_id asc").
		Find(&out).Error
	return out, err
}

// GetCellByKey fetches the cell for a (date, technician) key.
func GetCellByKey(ctx context.Context, db *gorm.DB, key string) (*domain.ScheduleCell, error) {
	var c domain.ScheduleCell
	if err := db.WithContext(ctx).Where("cell_key = ?", key).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertCell writes c under its key in a single statement: the first save of
// an empty cell creates it, later saves overwrite its fields.
func UpsertCell(ctx context.Context, db *gorm.DB, c domain.ScheduleCell) (*domain.ScheduleCell, error) {
	now := time.Now().UTC()
	c.CellKey = domain.CellKey(c.Date, c.TechnicianID)
	c.ID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = now, now

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "cell_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"job_site", "short_travel", "long_travel", "night_work", "night_hours", "sector", "updated_at",
		}),
	}).Create(&c).Error
	if err != nil {
		return nil, err
	}
	return GetCellByKey(ctx, db, c.CellKey)
}

// DeleteCellByKey removes a cell. It reports whether a row existed.
func DeleteCellByKey(ctx context.Context, db *gorm.DB, key string) (bool, error) {
	res := db.WithContext(ctx).Where("cell_key = ?", key).Delete(&domain.ScheduleCell{})
	return res.RowsAffected > 0, res.Error
}
