package domain

import (
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableNames(t *testing.T) {
	cases := map[string]string{
		Technician{}.TableName():   "technicians",
		JobSite{}.TableName():      "job_sites",
		ScheduleCell{}.TableName(): "schedule_cells",
		Account{}.TableName():      "accounts",
		Session{}.TableName():      "sessions",
		LeaveRequest{}.TableName(): "leave_requests",
		ChatMessage{}.TableName():  "chat_messages",
		WorkLogLine{}.TableName():  "work_log_lines",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("TableName() = %q; want %q", got, want)
		}
	}
}

func TestCellKey_AndDisplayName(t *testing.T) {
	if got := CellKey("2026-03-02", "t1"); got != "2026-03-02-t1" {
		t.Fatalf("CellKey = %q", got)
	}
	if got := (Technician{LastName: "Martin"}).DisplayName(); got != "Martin" {
		t.Fatalf("DisplayName without first name = %q", got)
	}
	if got := (Technician{FirstName: "Léa", LastName: "Martin"}).DisplayName(); got != "Léa Martin" {
		t.Fatalf("DisplayName = %q", got)
	}
}

func TestAccount_IsAdmin(t *testing.T) {
	if (Account{Labels: []string{"tech"}}).IsAdmin() {
		t.Fatalf("non-admin reported as admin")
	}
	if !(Account{Labels: []string{"tech", LabelAdmin}}).IsAdmin() {
		t.Fatalf("admin label not detected")
	}
}

func TestValidLeaveStatus(t *testing.T) {
	for _, s := range []string{LeavePending, LeaveApproved, LeaveDenied} {
		if !ValidLeaveStatus(s) {
			t.Fatalf("%q should be valid", s)
		}
	}
	if ValidLeaveStatus("validé") {
		t.Fatalf("unknown status accepted")
	}
}

func TestMigrations_Indexes_AndConstraints(t *testing.T) {
	db := newDomainDB(t)

	all := []any{&Technician{}, &JobSite{}, &ScheduleCell{}, &Account{}, &Session{}, &LeaveRequest{}, &ChatMessage{}, &WorkLogLine{}}
	if err := db.AutoMigrate(all...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range all {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&ScheduleCell{}, "ux_schedule_cell_key") {
		t.Fatalf("expected unique index ux_schedule_cell_key")
	}
	if !m.HasIndex(&ChatMessage{}, "idx_chat_conv") {
		t.Fatalf("expected index idx_chat_conv")
	}
	if !m.HasIndex(&WorkLogLine{}, "idx_worklog_period") {
		t.Fatalf("expected index idx_worklog_period")
	}

	now := time.Now().UTC()

	// One cell per (date, technician).
	c1 := &ScheduleCell{ID: "c1", CellKey: CellKey("2026-01-05", "t1"), Date: "2026-01-05", TechnicianID: "t1", CreatedAt: now}
	if err := db.Create(c1).Error; err != nil {
		t.Fatalf("insert cell: %v", err)
	}
	c2 := &ScheduleCell{ID: "c2", CellKey: c1.CellKey, Date: "2026-01-05", TechnicianID: "t1", CreatedAt: now}
	if err := db.Create(c2).Error; err == nil {
		t.Fatalf("expected unique violation on cell_key")
	}

	// Unknown leave status rejected by CHECK.
	bad := &LeaveRequest{ID: "l1", RequesterID: "u1", RequesterName: "U", StartDate: "2026-01-05", EndDate: "2026-01-06", Status: "maybe", CreatedAt: now}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected CHECK violation for status")
	}

	// Labels round-trip through the JSON column.
	acc := &Account{ID: "a1", Email: "a@x.io", Name: "A", PasswordHash: "h", Labels: []string{"admin"}, CreatedAt: now}
	if err := db.Create(acc).Error; err != nil {
		t.Fatalf("insert account: %v", err)
	}
	var got Account
	if err := db.First(&got, "id = ?", "a1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if !got.IsAdmin() {
		t.Fatalf("labels lost on round-trip: %+v", got.Labels)
	}
}
