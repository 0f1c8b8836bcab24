package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-intranet-backend/internal/domain"
)

func TestCreateLeave_DefaultsAndLists(t *testing.T) {
	db := newTestDB(t, &domain.LeaveRequest{})
	ctx := context.Background()

	l, err := CreateLeave(ctx, db, domain.LeaveRequest{
		RequesterID: "u1", RequesterName: "Jean Dupont",
		StartDate: "2025-12-22", EndDate: "2025-12-26", Comment: "Noël",
		Status: domain.LeaveApproved, // ignored
	})
	if err != nil {
		t.Fatalf("CreateLeave: %v", err)
	}
	if l.Status != domain.LeavePending || !l.SeenByRequester {
		t.Fatalf("new requests start pending and seen, got %+v", l)
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := CreateLeave(ctx, db, domain.LeaveRequest{RequesterID: "u2", RequesterName: "B", StartDate: "2026-01-05", EndDate: "2026-01-05"}); err != nil {
		t.Fatalf("CreateLeave u2: %v", err)
	}

	mine, err := ListLeaveByRequester(ctx, db, "u1")
	if err != nil || len(mine) != 1 || mine[0].ID != l.ID {
		t.Fatalf("ListLeaveByRequester: %+v err=%v", mine, err)
	}
	all, err := ListLeave(ctx, db)
	if err != nil || len(all) != 2 || all[0].RequesterID != "u2" {
		t.Fatalf("ListLeave newest first: %+v err=%v", all, err)
	}
	n, err := CountPendingLeave(ctx, db)
	if err != nil || n != 2 {
		t.Fatalf("CountPendingLeave: %d err=%v", n, err)
	}
}

func TestUpdateLeave_GuardedByStatus(t *testing.T) {
	db := newTestDB(t, &domain.LeaveRequest{})
	ctx := context.Background()

	l, err := CreateLeave(ctx, db, domain.LeaveRequest{RequesterID: "u1", RequesterName: "A", StartDate: "2025-12-01", EndDate: "2025-12-02"})
	if err != nil {
		t.Fatalf("CreateLeave: %v", err)
	}

	err = UpdateLeave(ctx, db, l.ID, "", map[string]any{"status": domain.LeaveDenied, "seen_by_requester": false})
	if err != nil {
		t.Fatalf("UpdateLeave status: %v", err)
	}

	// Requester edits only land while still pending.
	err = UpdateLeave(ctx, db, l.ID, domain.LeavePending, map[string]any{"comment": "late"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound once decided, got %v", err)
	}

	got, err := GetLeave(ctx, db, l.ID)
	if err != nil {
		t.Fatalf("GetLeave: %v", err)
	}
	if got.Status != domain.LeaveDenied || got.SeenByRequester || got.Comment != "" {
		t.Fatalf("unexpected row: %+v", got)
	}

	if err := UpdateLeave(ctx, db, "missing", "", map[string]any{"comment": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing id, got %v", err)
	}
}
