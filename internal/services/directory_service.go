// Package services – DirectoryService
//
// This file implements the technician and job site directory used by the
// planning grid. Listing sorts names with French collation so accented
// surnames land where a French reader expects them.
package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/repo"
	"github.com/tbourn/go-intranet-backend/internal/search"
)

// DirectoryRepo defines the repository contract required by
// DirectoryService.
type DirectoryRepo interface {
	CreateTechnician(ctx context.Context, db *gorm.DB, t domain.Technician) (*domain.Technician, error)
	ListTechnicians(ctx context.Context, db *gorm.DB) ([]domain.Technician, error)
	GetTechnician(ctx context.Context, db *gorm.DB, id string) (*domain.Technician, error)
	UpdateTechnician(ctx context.Context, db *gorm.DB, t domain.Technician) (*domain.Technician, error)
	DeleteTechnician(ctx context.Context, db *gorm.DB, id string) error

	CreateJobSite(ctx context.Context, db *gorm.DB, s domain.JobSite) (*domain.JobSite, error)
	ListJobSites(ctx context.Context, db *gorm.DB) ([]domain.JobSite, error)
	GetJobSite(ctx context.Context, db *gorm.DB, id string) (*domain.JobSite, error)
	UpdateJobSite(ctx context.Context, db *gorm.DB, s domain.JobSite) (*domain.JobSite, error)
	DeleteJobSite(ctx context.Context, db *gorm.DB, id string) error
}

// DirectoryService manages technicians and job sites.
type DirectoryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the directory repository used by this service.
	Repo DirectoryRepo
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(db *gorm.DB, r DirectoryRepo) *DirectoryService {
	return &DirectoryService{DB: db, Repo: r}
}

// TechnicianInput is the editable part of a technician.
type TechnicianInput struct {
	LastName  string `json:"last_name"  validate:"required,max=120"`
	FirstName string `json:"first_name" validate:"max=120"`
	Phone     string `json:"phone"      validate:"max=40"`
	Email     string `json:"email"      validate:"omitempty,email,max=255"`
}

// JobSiteInput is the editable part of a job site. An empty colour falls
// back to domain.DefaultJobSiteColor.
type JobSiteInput struct {
	Name  string `json:"name"  validate:"required,max=160"`
	Color string `json:"color" validate:"omitempty,len=7,startswith=#,hexcolor"`
}

func (in TechnicianInput) clean() TechnicianInput {
	in.LastName = normalizeSpaces(in.LastName)
	in.FirstName = normalizeSpaces(in.FirstName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

func (in JobSiteInput) clean() JobSiteInput {
	in.Name = normalizeSpaces(in.Name)
	in.Color = strings.ToLower(strings.TrimSpace(in.Color))
	if in.Color == "" {
		in.Color = domain.DefaultJobSiteColor
	}
	return in
}

// ListTechnicians returns technicians sorted by last then first name,
// optionally filtered by q (accent- and case-insensitive prefix match on
// names, phone and email).
func (s *DirectoryService) ListTechnicians(ctx context.Context, q string) ([]domain.Technician, error) {
	ctx, span := otel.Tracer("services/DirectoryService").Start(ctx, "ListTechnicians",
		trace.WithAttributes(attribute.String("query", q)),
	)
	defer span.End()

	items, err := s.Repo.ListTechnicians(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	items = search.Filter(items, q, func(t domain.Technician) []string {
		return []string{t.LastName, t.FirstName, t.Phone, t.Email}
	})
	SortTechnicians(items)
	return items, nil
}

// SortTechnicians orders technicians the way a French reader expects:
// "Élise" sorts with the E names, case is ignored.
func SortTechnicians(items []domain.Technician) {
	// A collator keeps internal buffers; one per call.
	col := collate.New(language.French, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		if c := col.CompareString(items[i].LastName, items[j].LastName); c != 0 {
			return c < 0
		}
		return col.CompareString(items[i].FirstName, items[j].FirstName) < 0
	})
}

// GetTechnician fetches one technician.
func (s *DirectoryService) GetTechnician(ctx context.Context, id string) (*domain.Technician, error) {
	t, err := s.Repo.GetTechnician(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTechnicianNotFound
	}
	return t, err
}

// CreateTechnician validates and inserts a technician.
func (s *DirectoryService) CreateTechnician(ctx context.Context, in TechnicianInput) (*domain.Technician, error) {
	in = in.clean()
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	return s.Repo.CreateTechnician(ctx, s.DB, domain.Technician{
		LastName: in.LastName, FirstName: in.FirstName, Phone: in.Phone, Email: in.Email,
	})
}

// UpdateTechnician validates and overwrites technician id.
func (s *DirectoryService) UpdateTechnician(ctx context.Context, id string, in TechnicianInput) (*domain.Technician, error) {
	in = in.clean()
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	t, err := s.Repo.UpdateTechnician(ctx, s.DB, domain.Technician{
		ID: id, LastName: in.LastName, FirstName: in.FirstName, Phone: in.Phone, Email: in.Email,
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTechnicianNotFound
	}
	return t, err
}

// DeleteTechnician removes a technician and their planning cells.
func (s *DirectoryService) DeleteTechnician(ctx context.Context, id string) error {
	err := s.Repo.DeleteTechnician(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrTechnicianNotFound
	}
	return err
}

// ListJobSites returns job sites sorted by name (French collation).
func (s *DirectoryService) ListJobSites(ctx context.Context) ([]domain.JobSite, error) {
	items, err := s.Repo.ListJobSites(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	col := collate.New(language.French, collate.IgnoreCase)
	sort.SliceStable(items, func(i, j int) bool {
		return col.CompareString(items[i].Name, items[j].Name) < 0
	})
	return items, nil
}

// GetJobSite fetches one job site.
func (s *DirectoryService) GetJobSite(ctx context.Context, id string) (*domain.JobSite, error) {
	js, err := s.Repo.GetJobSite(ctx, s.DB, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobSiteNotFound
	}
	return js, err
}

// CreateJobSite validates and inserts a job site.
func (s *DirectoryService) CreateJobSite(ctx context.Context, in JobSiteInput) (*domain.JobSite, error) {
	in = in.clean()
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	js, err := s.Repo.CreateJobSite(ctx, s.DB, domain.JobSite{Name: in.Name, Color: in.Color})
	return js, mapJobSiteErr(err)
}

// UpdateJobSite validates and overwrites job site id.
func (s *DirectoryService) UpdateJobSite(ctx context.Context, id string, in JobSiteInput) (*domain.JobSite, error) {
	in = in.clean()
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	js, err := s.Repo.UpdateJobSite(ctx, s.DB, domain.JobSite{ID: id, Name: in.Name, Color: in.Color})
	return js, mapJobSiteErr(err)
}

// DeleteJobSite removes a job site.
func (s *DirectoryService) DeleteJobSite(ctx context.Context, id string) error {
	return mapJobSiteErr(s.Repo.DeleteJobSite(ctx, s.DB, id))
}

func mapJobSiteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrJobSiteNotFound
	case errors.Is(err, repo.ErrDuplicate):
		return ErrDuplicateJobSite
	}
	return err
}

// normalizeSpaces trims and collapses inner whitespace.
func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
