// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// for conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-intranet-backend/internal/domain"
)

// Stats is the (row count, newest UpdatedAt) pair behind a weak ETag.
// Latest is nil when Count is 0.
type Stats struct {
	Count  int64
	Latest *time.Time
}

// stats runs the two lightweight queries against an already scoped query.
func stats(q *gorm.DB) (Stats, error) {
	var s Stats
	if err := q.Session(&gorm.Session{}).Count(&s.Count).Error; err != nil {
		return Stats{}, err
	}
	if s.Count == 0 {
		return s, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err := q.Session(&gorm.Session{}).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return Stats{}, err
	}
	s.Latest = &row.UpdatedAt
	return s, nil
}

// TechnicianStats covers the technician directory.
func TechnicianStats(ctx context.Context, db *gorm.DB) (Stats, error) {
	return stats(db.WithContext(ctx).Model(&domain.Technician{}))
}

// JobSiteStats covers the job site directory.
func JobSiteStats(ctx context.Context, db *gorm.DB) (Stats, error) {
	return stats(db.WithContext(ctx).Model(&domain.JobSite{}))
}

// ScheduleStats covers the cells dated within [from, to].
func ScheduleStats(ctx context.Context, db *gorm.DB, from, to string) (Stats, error) {
	return stats(db.WithContext(ctx).Model(&domain.ScheduleCell{}).Where("date >= ? AND date <= ?", from, to))
}

// LeaveStats covers a requester's leave requests, or all of them when
// requesterID is empty.
func LeaveStats(ctx context.Context, db *gorm.DB, requesterID string) (Stats, error) {
	q := db.WithContext(ctx).Model(&domain.LeaveRequest{})
	if requesterID != "" {
		q = q.Where("requester_id = ?", requesterID)
	}
	return stats(q)
}

// ConversationStats covers the messages of one conversation.
func ConversationStats(ctx context.Context, db *gorm.DB, key string) (Stats, error) {
	return stats(db.WithContext(ctx).Model(&domain.ChatMessage{}).Where("conversation_key = ?", key))
}

// WorkLogStats covers one (month, year) ledger period.
func WorkLogStats(ctx context.Context, db *gorm.DB, month, year int) (Stats, error) {
	return stats(db.WithContext(ctx).Model(&domain.WorkLogLine{}).Where("month = ? AND year = ?", month, year))
}
