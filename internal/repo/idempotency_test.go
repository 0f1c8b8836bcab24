package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-intranet-backend/internal/domain"
)

func TestGetIdempotency_BlankScopeOrKey_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	if rec, err := GetIdempotency(context.Background(), db, "u1", "   ", "k1", now); rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for blank scope, got (%v, %v)", rec, err)
	}
	if rec, err := GetIdempotency(context.Background(), db, "u1", "/x", "", now); rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for blank key, got (%v, %v)", rec, err)
	}
}

func TestGetIdempotency_ExpiredOrMissing_ReturnsNotFound(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	now := time.Now().UTC()

	exp := &domain.Idempotency{
		ID:         "expired",
		UserID:     "u1",
		Scope:      "/api/v1/leave-requests",
		Key:        "k1",
		ResourceID: "l1",
		Status:     201,
		CreatedAt:  now.Add(-2 * time.Hour),
		ExpiresAt:  now.Add(-time.Hour),
	}
	if err := db.Create(exp).Error; err != nil {
		t.Fatalf("seed expired: %v", err)
	}

	rec, err := GetIdempotency(context.Background(), db, "u1", exp.Scope, "k1", now)
	if rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for expired, got (%v, %v)", rec, err)
	}
	rec, err = GetIdempotency(context.Background(), db, "u1", exp.Scope, "missing", now)
	if rec != nil || err != ErrNotFound {
		t.Fatalf("expected (nil, ErrNotFound) for missing, got (%v, %v)", rec, err)
	}
}

func TestCreateIdempotency_SuccessDuplicateAndLookup(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()

	rec, err := CreateIdempotency(ctx, db, "u1", "/api/v1/chat/messages", "k1", "m1", 201, time.Hour)
	if err != nil || rec == nil || rec.ID == "" {
		t.Fatalf("CreateIdempotency: rec=%v err=%v", rec, err)
	}

	if _, err := CreateIdempotency(ctx, db, "u1", "/api/v1/chat/messages", "k1", "m2", 201, time.Hour); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Same key under another scope is a different record.
	if _, err := CreateIdempotency(ctx, db, "u1", "/api/v1/leave-requests", "k1", "l1", 201, time.Hour); err != nil {
		t.Fatalf("other scope: %v", err)
	}

	got, err := GetIdempotency(ctx, db, "u1", "/api/v1/chat/messages", "k1", time.Now().UTC())
	if err != nil {
		t.Fatalf("GetIdempotency: %v", err)
	}
	if got.ResourceID != "m1" || got.Status != 201 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestCreateIdempotency_Error_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	if _, err := CreateIdempotency(context.Background(), db, "u", "/s", "k", "r", 201, time.Minute); err == nil {
		t.Fatalf("expected error without table")
	}
}

func TestPurgeIdempotency_RemovesExpiredOnly(t *testing.T) {
	db := newTestDB(t, &domain.Idempotency{})
	ctx := context.Background()

	if _, err := CreateIdempotency(ctx, db, "u", "/s", "live", "r1", 201, time.Hour); err != nil {
		t.Fatalf("seed live: %v", err)
	}
	if _, err := CreateIdempotency(ctx, db, "u", "/s", "dead", "r2", 201, -time.Minute); err != nil {
		t.Fatalf("seed dead: %v", err)
	}
	n, err := PurgeIdempotency(ctx, db, time.Now().UTC())
	if err != nil || n != 1 {
		t.Fatalf("expected 1 purged, got %d err=%v", n, err)
	}
}
