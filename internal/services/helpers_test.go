package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-intranet-backend/internal/auth"
	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/repo"
)

// ---------- test helpers ----------

func newSvcDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// directoryShim adapts the repo free functions to DirectoryRepo.
type directoryShim struct{}

func (directoryShim) CreateTechnician(ctx context.Context, db *gorm.DB, t domain.Technician) (*domain.Technician, error) {
	return repo.CreateTechnician(ctx, db, t)
}
func (directoryShim) ListTechnicians(ctx context.Context, db *gorm.DB) ([]domain.Technician, error) {
	return repo.ListTechnicians(ctx, db)
}
func (directoryShim) GetTechnician(ctx context.Context, db *gorm.DB, id string) (*domain.Technician, error) {
	return repo.GetTechnician(ctx, db, id)
}
func (directoryShim) UpdateTechnician(ctx context.Context, db *gorm.DB, t domain.Technician) (*domain.Technician, error) {
	return repo.UpdateTechnician(ctx, db, t)
}
func (directoryShim) DeleteTechnician(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteTechnician(ctx, db, id)
}
func (directoryShim) CreateJobSite(ctx context.Context, db *gorm.DB, s domain.JobSite) (*domain.JobSite, error) {
	return repo.CreateJobSite(ctx, db, s)
}
func (directoryShim) ListJobSites(ctx context.Context, db *gorm.DB) ([]domain.JobSite, error) {
	return repo.ListJobSites(ctx, db)
}
func (directoryShim) GetJobSite(ctx context.Context, db *gorm.DB, id string) (*domain.JobSite, error) {
	return repo.GetJobSite(ctx, db, id)
}
func (directoryShim) UpdateJobSite(ctx context.Context, db *gorm.DB, s domain.JobSite) (*domain.JobSite, error) {
	return repo.UpdateJobSite(ctx, db, s)
}
func (directoryShim) DeleteJobSite(ctx context.Context, db *gorm.DB, id string) error {
	return repo.DeleteJobSite(ctx, db, id)
}

func seedAccount(t *testing.T, db *gorm.DB, email, name string, labels ...string) *domain.Account {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	a, err := repo.CreateAccount(context.Background(), db, email, name, hash, labels)
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

func fixedNow(s string) func() time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}
