package domain

import (
	"slices"
	"time"

	"gorm.io/datatypes"
)

// LabelAdmin is the account label that grants leave-management rights.
const LabelAdmin = "admin"

// Account is a person who can sign in. Labels carry coarse roles.
type Account struct {
	ID           string                      `json:"id"         gorm:"type:char(36);primaryKey"`
	Email        string                      `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_account_email"`
	Name         string                      `json:"name"       gorm:"type:varchar(160);not null"`
	PasswordHash string                      `json:"-"          gorm:"type:varchar(100);not null"`
	Labels       datatypes.JSONSlice[string] `json:"labels"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "accounts" }

// IsAdmin reports whether the account carries the admin label.
func (a Account) IsAdmin() bool { return slices.Contains(a.Labels, LabelAdmin) }

// Session is a server-side record of an issued token. Its ID is the JWT ID,
// so deleting the row revokes the token.
type Session struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	AccountID string    `gorm:"type:char(36);not null;index"`
	CreatedAt time.Time `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string { return "sessions" }
