package domain

import "time"

// Leave request statuses.
const (
	LeavePending  = "pending"
	LeaveApproved = "approved"
	LeaveDenied   = "denied"
)

// LeaveRequest is an employee's request for time off. The requester may
// edit it only while Status is LeavePending; admins decide it.
//
// SeenByRequester is reset to false on each admin decision so the requester
// can be notified once.
type LeaveRequest struct {
	ID              string    `json:"id"                gorm:"type:char(36);primaryKey"`
	RequesterID     string    `json:"requester_id"      gorm:"type:char(36);not null;index:idx_leave_requester"`
	RequesterName   string    `json:"requester_name"    gorm:"type:varchar(160);not null"`
	StartDate       string    `json:"start_date"        gorm:"type:char(10);not null"`
	EndDate         string    `json:"end_date"          gorm:"type:char(10);not null"`
	Comment         string    `json:"comment"           gorm:"type:text"`
	Status          string    `json:"status"            gorm:"type:varchar(16);not null;default:'pending';index;check:status IN ('pending','approved','denied')"`
	AdminComment    string    `json:"admin_comment"     gorm:"type:text"`
	SeenByRequester bool      `json:"seen_by_requester" gorm:"not null;default:true"`
	CreatedAt       time.Time `json:"created_at"        gorm:"index"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for LeaveRequest.
func (LeaveRequest) TableName() string { return "leave_requests" }

// ValidLeaveStatus reports whether s is a known status.
func ValidLeaveStatus(s string) bool {
	switch s {
	case LeavePending, LeaveApproved, LeaveDenied:
		return true
	}
	return false
}
