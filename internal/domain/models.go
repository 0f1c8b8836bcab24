// Package domain defines the persistence models for the intranet: accounts,
// the planning grid (technicians, job sites, schedule cells), leave requests,
// chat messages, and the work-log ledger. These types are mapped with GORM
// and shared across the repository, service, and HTTP layers.
package domain

import "time"

// Technician is a person that can be scheduled on the planning grid.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - LastName: required; the grid sorts by it.
//   - FirstName, Phone, Email: optional contact details.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Technician struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	LastName  string    `json:"last_name"  gorm:"type:varchar(120);not null;index"`
	FirstName string    `json:"first_name" gorm:"type:varchar(120)"`
	Phone     string    `json:"phone"      gorm:"type:varchar(40)"`
	Email     string    `json:"email"      gorm:"type:varchar(255)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Technician.
func (Technician) TableName() string { return "technicians" }

// DisplayName is "First Last", or just the last name.
func (t Technician) DisplayName() string {
	if t.FirstName == "" {
		return t.LastName
	}
	return t.FirstName + " " + t.LastName
}

// DefaultJobSiteColor is applied when a job site is saved without a colour.
const DefaultJobSiteColor = "#3b82f6"

// JobSite is a named location a technician can be assigned to. Schedule cells
// reference job sites by name, so names are unique.
type JobSite struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(160);not null;uniqueIndex:ux_job_site_name"`
	Color     string    `json:"color"      gorm:"type:varchar(7);not null;default:'#3b82f6'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for JobSite.
func (JobSite) TableName() string { return "job_sites" }

// ScheduleCell is one (date, technician) assignment on the planning grid.
// CellKey is Date + "-" + TechnicianID and is unique: at most one cell
// exists per technician per day.
//
// Fields:
//   - Date: calendar day, "YYYY-MM-DD".
//   - JobSite: job-site name (free text when the site was deleted since).
//   - ShortTravel / LongTravel: travel allowance flags.
//   - NightWork / NightHours: night work flag and its hours (0 unless flagged).
//   - Sector: free-text sector label.
type ScheduleCell struct {
	ID           string    `json:"id"            gorm:"type:char(36);primaryKey"`
	CellKey      string    `json:"cell_key"      gorm:"type:varchar(64);not null;uniqueIndex:ux_schedule_cell_key"`
	Date         string    `json:"date"          gorm:"type:char(10);not null;index:idx_schedule_date"`
	TechnicianID string    `json:"technician_id" gorm:"type:char(36);not null;index"`
	JobSite      string    `json:"job_site"      gorm:"type:varchar(160)"`
	ShortTravel  bool      `json:"short_travel"  gorm:"not null;default:false"`
	LongTravel   bool      `json:"long_travel"   gorm:"not null;default:false"`
	NightWork    bool      `json:"night_work"    gorm:"not null;default:false"`
	NightHours   float64   `json:"night_hours"   gorm:"not null;default:0"`
	Sector       string    `json:"sector"        gorm:"type:varchar(120)"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for ScheduleCell.
func (ScheduleCell) TableName() string { return "schedule_cells" }

// CellKey builds the grid key of a (date, technician) pair.
func CellKey(date, technicianID string) string { return date + "-" + technicianID }
