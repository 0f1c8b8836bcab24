// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for leave
// requests.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-intranet-backend/internal/domain"
)

// CreateLeave inserts a pending leave request.
func CreateLeave(ctx context.Context, db *gorm.DB, l domain.LeaveRequest) (*domain.LeaveRequest, error) {
	now := time.Now().UTC()
	l.ID = uuid.NewString()
	l.Status = domain.LeavePending
	l.SeenByRequester = true
	l.CreatedAt, l.UpdatedAt = now, now
	if err := db.WithContext(ctx).Create(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLeave fetches a leave request by id.
func GetLeave(ctx context.Context, db *gorm.DB, id string) (*domain.LeaveRequest, error) {
	var l domain.LeaveRequest
	if err := db.WithContext(ctx).Where("id = ?", id).First(&l).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

// ListLeaveByRequester returns a requester's leave requests, newest first.
func ListLeaveByRequester(ctx context.Context, db *gorm.DB, requesterID string) ([]domain.LeaveRequest, error) {
	var out []domain.LeaveRequest
	err := db.WithContext(ctx).
		Where("requester_id = ?", requesterID).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}

// ListLeave returns every leave request, newest first.
func ListLeave(ctx context.Context, db *gorm.DB) ([]domain.LeaveRequest, error) {
	var out []domain.LeaveRequest
	err := db.WithContext(ctx).Order("created_at desc, id desc").Find(&out).Error
	return out, err
}

// UpdateLeave applies fields to leave request id. When onlyStatus is
// non-empty the row is only updated while it still has that status, which
// keeps a requester edit from landing after an admin decision.
func UpdateLeave(ctx context.Context, db *gorm.DB, id, onlyStatus string, fields map[string]any) error {
	fields["updated_at"] = time.Now().UTC()
	q := db.WithContext(ctx).Model(&domain.LeaveRequest{}).Where("id = ?", id)
	if onlyStatus != "" {
		q = q.Where("status = ?", onlyStatus)
	}
	res := q.Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountPendingLeave counts requests awaiting a decision.
func CountPendingLeave(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.LeaveRequest{}).
		Where("status = ?", domain.LeavePending).
		Count(&n).Error
	return n, err
}
