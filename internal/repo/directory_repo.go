// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for technicians
// and job sites, the two directories the planning grid is drawn from.
//
// Error semantics:
//   - When a row is not found, functions return gorm.ErrRecordNotFound
//     (exported here as ErrNotFound).
//   - Unique violations (job-site names) return ErrDuplicate.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-intranet-backend/internal/domain"
)

// CreateTechnician inserts t with a fresh UUID and UTC timestamps.
func CreateTechnician(ctx context.Context, db *gorm.DB, t domain.Technician) (*domain.Technician, error) {
	now := time.Now().UTC()
	t.ID = uuid.NewString()
	t.CreatedAt, t.UpdatedAt = now, now
	if err := db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTechnicians returns every technician ordered by last then first name.
func ListTechnicians(ctx context.Context, db *gorm.DB) ([]domain.Technician, error) {
	var out []domain.Technician
	err := db.WithContext(ctx).
		Order("last_name asc, first_name asc, id asc").
		Find(&out).Error
	return out, err
}

// GetTechnician fetches a technician by id.
func GetTechnician(ctx context.Context, db *gorm.DB, id string) (*domain.Technician, error) {
	var t domain.Technician
	if err := db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTechnician overwrites the editable fields of technician t.ID.
func UpdateTechnician(ctx context.Context, db *gorm.DB, t domain.Technician) (*domain.Technician, error) {
	res := db.WithContext(ctx).
		Model(&domain.Technician{}).
		Where("id = ?", t.ID).
		Updates(map[string]any{
			"last_name":  t.LastName,
			"first_name": t.FirstName,
			"phone":      t.Phone,
			"email":      t.Email,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return GetTechnician(ctx, db, t.ID)
}

// DeleteTechnician removes a technician and their schedule cells.
func DeleteTechnician(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Technician{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return db.WithContext(ctx).Where("technician_id = ?", id).Delete(&domain.ScheduleCell{}).Error
}

// CreateJobSite inserts a job site. Names are unique.
func CreateJobSite(ctx context.Context, db *gorm.DB, s domain.JobSite) (*domain.JobSite, error) {
	now := time.Now().UTC()
	s.ID = uuid.NewString()
	s.CreatedAt, s.UpdatedAt = now, now
	if err := db.WithContext(ctx).Create(&s).Error; err != nil {
		return nil, mapWriteErr(err)
	}
	return &s, nil
}

// ListJobSites returns every job site ordered by name.
func ListJobSites(ctx context.Context, db *gorm.DB) ([]domain.JobSite, error) {
	var out []domain.JobSite
	err := db.WithContext(ctx).Order("name asc, id asc").Find(&out).Error
	return out, err
}

// GetJobSite fetches a job site by id.
func GetJobSite(ctx context.Context, db *gorm.DB, id string) (*domain.JobSite, error) {
	var s domain.JobSite
	if err := db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateJobSite overwrites name and colour of job site s.ID.
func UpdateJobSite(ctx context.Context, db *gorm.DB, s domain.JobSite) (*domain.JobSite, error) {
	res := db.WithContext(ctx).
		Model(&domain.JobSite{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"name":       s.Name,
			"color":      s.Color,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, mapWriteErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return GetJobSite(ctx, db, s.ID)
}

// DeleteJobSite removes a job site. Cells naming it keep the name.
func DeleteJobSite(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.JobSite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
