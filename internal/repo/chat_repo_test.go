package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-intranet-backend/internal/domain"
)

func newChatRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("chat_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedMessage(t *testing.T, db *gorm.DB, key, sender, text string, participants ...string) *domain.ChatMessage {
	t.Helper()
	m, err := CreateChatMessage(context.Background(), db, domain.ChatMessage{
		ConversationKey: key,
		SenderID:        sender,
		SenderName:      sender,
		Text:            text,
		ParticipantIDs:  participants,
	})
	if err != nil {
		t.Fatalf("CreateChatMessage: %v", err)
	}
	return m
}

func TestCreateChatMessage_Error_NoTable(t *testing.T) {
	db := newChatRepoDB(t /* no migrations */)
	m, err := CreateChatMessage(context.Background(), db, domain.ChatMessage{ConversationKey: "a_b", SenderID: "a"})
	if err == nil || m != nil {
		t.Fatalf("expected error creating without table, got m=%v err=%v", m, err)
	}
}

func TestCreateChatMessage_RegistersParticipantsOnce(t *testing.T) {
	db := newChatRepoDB(t, &domain.ChatMessage{}, &domain.ChatParticipant{})

	m := seedMessage(t, db, "a_b", "a", "salut", "a", "b")
	if m.ID == "" || m.CreatedAt.IsZero() {
		t.Fatalf("unexpected message fields: %+v", m)
	}
	seedMessage(t, db, "a_b", "b", "ça va ?", "a", "b")

	var n int64
	if err := db.Model(&domain.ChatParticipant{}).Count(&n).Error; err != nil {
		t.Fatalf("count participants: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 participant rows, got %d", n)
	}

	keys, err := ListConversationKeys(context.Background(), db, "b")
	if err != nil || len(keys) != 1 || keys[0] != "a_b" {
		t.Fatalf("ListConversationKeys: keys=%v err=%v", keys, err)
	}
	keys, _ = ListConversationKeys(context.Background(), db, "c")
	if len(keys) != 0 {
		t.Fatalf("outsider must see no conversation, got %v", keys)
	}
}

func TestListConversationPage_PaginationAndOrder(t *testing.T) {
	db := newChatRepoDB(t, &domain.ChatMessage{}, &domain.ChatParticipant{})
	ctx := context.Background()

	base := time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		m := domain.ChatMessage{
			ID: fmt.Sprintf("m%d", i), ConversationKey: "a_b", SenderID: "a", SenderName: "A",
			Text: fmt.Sprint(i), ParticipantIDs: []string{"a", "b"},
			CreatedAt: base.Add(time.Duration(i) * time.Minute), UpdatedAt: base,
		}
		if err := db.Create(&m).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	total, err := CountConversationMessages(ctx, db, "a_b")
	if err != nil || total != 5 {
		t.Fatalf("CountConversationMessages: %d err=%v", total, err)
	}
	page, err := ListConversationPage(ctx, db, "a_b", 1, 2)
	if err != nil {
		t.Fatalf("ListConversationPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "m1" || page[1].ID != "m2" {
		t.Fatalf("unexpected page: %+v", page)
	}

	last, err := LastConversationMessage(ctx, db, "a_b")
	if err != nil || last.ID != "m4" {
		t.Fatalf("LastConversationMessage: %+v err=%v", last, err)
	}
	if _, err := LastConversationMessage(ctx, db, "x_y"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for empty conversation, got %v", err)
	}
}

func TestDeleteChatMessage_OnlySender(t *testing.T) {
	db := newChatRepoDB(t, &domain.ChatMessage{}, &domain.ChatParticipant{})
	ctx := context.Background()
	m := seedMessage(t, db, "a_b", "a", "oops", "a", "b")

	if err := DeleteChatMessage(ctx, db, m.ID, "b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("non-sender delete: expected ErrNotFound, got %v", err)
	}
	if err := DeleteChatMessage(ctx, db, m.ID, "a"); err != nil {
		t.Fatalf("sender delete: %v", err)
	}
	if _, err := GetChatMessage(ctx, db, m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected message gone, got %v", err)
	}
}
