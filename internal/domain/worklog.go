package domain

import "time"

// WorkLogLine is one priced line of the work-tracking ledger.
//
// Week, Month and Year are derived from Date; Total is derived from
// Quantity and UnitPrice. A Locked line rejects every edit until the unlock
// sequence has been confirmed UnlockConfirmations times.
type WorkLogLine struct {
	ID                  string    `json:"id"                   gorm:"type:char(36);primaryKey"`
	Date                string    `json:"date"                 gorm:"type:char(10);not null"`
	Week                int       `json:"week"                 gorm:"not null"`
	Month               int       `json:"month"                gorm:"not null;index:idx_worklog_period,priority:2"`
	Year                int       `json:"year"                 gorm:"not null;index:idx_worklog_period,priority:1"`
	Description         string    `json:"description"          gorm:"type:varchar(255)"`
	Plate               string    `json:"plate"                gorm:"type:varchar(64)"`
	WorkCode            string    `json:"work_code"            gorm:"type:varchar(16)"`
	UnitPrice           float64   `json:"unit_price"           gorm:"not null;default:0"`
	Quantity            float64   `json:"quantity"             gorm:"not null;default:0"`
	Total               float64   `json:"total"                gorm:"not null;default:0"`
	Comment             string    `json:"comment"              gorm:"type:text"`
	Locked              bool      `json:"locked"               gorm:"not null;default:false"`
	LockReference       string    `json:"lock_reference"       gorm:"type:varchar(64)"`
	UnlockConfirmations int       `json:"unlock_confirmations" gorm:"not null;default:0"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName returns the database table name for WorkLogLine.
func (WorkLogLine) TableName() string { return "work_log_lines" }
