package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-intranet-backend/internal/domain"
)

func TestLeaveService_CreateValidation(t *testing.T) {
	db := newSvcDB(t)
	s := &LeaveService{DB: db}
	ctx := context.Background()

	cases := []LeaveInput{
		{StartDate: "", EndDate: "2025-12-02"},
		{StartDate: "2025-12-05", EndDate: "2025-12-02"},
		{StartDate: "05/12/2025", EndDate: "2025-12-06"},
	}
	for _, in := range cases {
		if _, err := s.Create(ctx, "u1", "Alice", in); !errors.Is(err, ErrValidation) {
			t.Fatalf("%+v: expected ErrValidation, got %v", in, err)
		}
	}
	mine, _ := s.Mine(ctx, "u1")
	if len(mine) != 0 {
		t.Fatalf("rejected requests must not be stored, got %d", len(mine))
	}

	l, err := s.Create(ctx, "u1", "Alice", LeaveInput{StartDate: "2025-12-22", EndDate: "2025-12-22", Comment: "  Noël "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.Status != domain.LeavePending || !l.SeenByRequester || l.Comment != "Noël" {
		t.Fatalf("unexpected request: %+v", l)
	}
}

func TestLeaveService_UpdateOnlyWhilePending(t *testing.T) {
	db := newSvcDB(t)
	s := &LeaveService{DB: db}
	ctx := context.Background()

	l, err := s.Create(ctx, "u1", "Alice", LeaveInput{StartDate: "2025-12-22", EndDate: "2025-12-24"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := s.Update(ctx, "u2", l.ID, LeaveInput{StartDate: "2025-12-22", EndDate: "2025-12-26"}); !errors.Is(err, ErrLeaveNotFound) {
		t.Fatalf("someone else's request: expected ErrLeaveNotFound, got %v", err)
	}
	up, err := s.Update(ctx, "u1", l.ID, LeaveInput{StartDate: "2025-12-22", EndDate: "2025-12-26", Comment: "ponts"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if up.EndDate != "2025-12-26" || up.Comment != "ponts" {
		t.Fatalf("update not applied: %+v", up)
	}

	if _, err := s.Decide(ctx, l.ID, DecisionInput{Status: domain.LeaveApproved}); err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if _, err := s.Update(ctx, "u1", l.ID, LeaveInput{StartDate: "2025-12-22", EndDate: "2025-12-27"}); !errors.Is(err, ErrLeaveNotEditable) {
		t.Fatalf("decided request: expected ErrLeaveNotEditable, got %v", err)
	}
}

func TestLeaveService_DecideAndSeen(t *testing.T) {
	db := newSvcDB(t)
	s := &LeaveService{DB: db}
	ctx := context.Background()

	l, _ := s.Create(ctx, "u1", "Alice", LeaveInput{StartDate: "2025-12-22", EndDate: "2025-12-22"})
	note := "  ok pour moi "
	d, err := s.Decide(ctx, l.ID, DecisionInput{Status: " Denied ", AdminComment: &note})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.Status != domain.LeaveDenied || d.SeenByRequester || d.AdminComment != "ok pour moi" {
		t.Fatalf("unexpected decision: %+v", d)
	}

	// A nil comment keeps the stored one.
	d, err = s.Decide(ctx, l.ID, DecisionInput{Status: domain.LeaveApproved})
	if err != nil || d.AdminComment != "ok pour moi" || d.Status != domain.LeaveApproved {
		t.Fatalf("re-decide: %+v err=%v", d, err)
	}

	if _, err := s.Decide(ctx, l.ID, DecisionInput{Status: "maybe"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad status: expected ErrValidation, got %v", err)
	}
	if _, err := s.Decide(ctx, "missing", DecisionInput{Status: domain.LeaveApproved}); !errors.Is(err, ErrLeaveNotFound) {
		t.Fatalf("missing: expected ErrLeaveNotFound, got %v", err)
	}

	seen, err := s.MarkSeen(ctx, "u1", l.ID)
	if err != nil || !seen.SeenByRequester {
		t.Fatalf("MarkSeen: %+v err=%v", seen, err)
	}
	if _, err := s.MarkSeen(ctx, "u2", l.ID); !errors.Is(err, ErrLeaveNotFound) {
		t.Fatalf("MarkSeen by another account: expected ErrLeaveNotFound, got %v", err)
	}

	c, err := s.Comment(ctx, l.ID, "vu")
	if err != nil || c.AdminComment != "vu" || c.Status != domain.LeaveApproved {
		t.Fatalf("Comment: %+v err=%v", c, err)
	}
	if _, err := s.Comment(ctx, "missing", "x"); !errors.Is(err, ErrLeaveNotFound) {
		t.Fatalf("Comment missing: expected ErrLeaveNotFound, got %v", err)
	}
}

func TestLeaveService_RevertToPendingIsNotADecision(t *testing.T) {
	db := newSvcDB(t)
	s := &LeaveService{DB: db}
	ctx := context.Background()

	l, _ := s.Create(ctx, "u1", "Alice", LeaveInput{StartDate: "2025-12-22", EndDate: "2025-12-22"})
	d, err := s.Decide(ctx, l.ID, DecisionInput{Status: domain.LeaveApproved})
	if err != nil || d.SeenByRequester {
		t.Fatalf("approval must be unseen: %+v err=%v", d, err)
	}
	d, err = s.Decide(ctx, l.ID, DecisionInput{Status: domain.LeavePending})
	if err != nil {
		t.Fatalf("Decide pending: %v", err)
	}
	if d.Status != domain.LeavePending || !d.SeenByRequester {
		t.Fatalf("revert to pending must not raise a notification: %+v", d)
	}
	if _, err := s.Update(ctx, "u1", l.ID, LeaveInput{StartDate: "2025-12-22", EndDate: "2025-12-23"}); err != nil {
		t.Fatalf("pending again, requester can edit: %v", err)
	}
}

func TestLeaveService_AdminList_PendingFirst(t *testing.T) {
	db := newSvcDB(t)
	s := &LeaveService{DB: db}
	ctx := context.Background()

	a, _ := s.Create(ctx, "u1", "Alice", LeaveInput{StartDate: "2025-12-01", EndDate: "2025-12-01"})
	_, _ = s.Create(ctx, "u2", "Bob", LeaveInput{StartDate: "2025-12-02", EndDate: "2025-12-02"})
	_, _ = s.Create(ctx, "u3", "Chloé", LeaveInput{StartDate: "2025-12-03", EndDate: "2025-12-03"})
	if _, err := s.Decide(ctx, a.ID, DecisionInput{Status: domain.LeaveApproved}); err != nil {
		t.Fatalf("Decide: %v", err)
	}

	items, pending, err := s.AdminList(ctx)
	if err != nil {
		t.Fatalf("AdminList: %v", err)
	}
	if len(items) != 3 || pending != 2 {
		t.Fatalf("expected 3 items / 2 pending, got %d / %d", len(items), pending)
	}
	if items[0].Status != domain.LeavePending || items[1].Status != domain.LeavePending || items[2].ID != a.ID {
		t.Fatalf("pending requests must come first: %+v", items)
	}
}
