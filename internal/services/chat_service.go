// Package services – ChatService
//
// This file implements ChatService, the internal messenger. A conversation
// has no row of its own: it is the set of messages sharing a key derived
// from the sorted participant ids, so any permutation of the same people
// lands in the same thread.
//
// Service-level errors (e.g., ErrNotParticipant) are returned for predictable
// cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-intranet-backend/internal/derive"
	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/repo"
)

// ChatService sends and lists chat messages.
type ChatService struct {
	DB *gorm.DB

	// MaxTextRunes caps message text; 0 disables the check.
	MaxTextRunes int
}

// NewChatService constructs a ChatService with a 4000 rune text cap.
func NewChatService(db *gorm.DB) *ChatService {
	return &ChatService{DB: db, MaxTextRunes: 4000}
}

// SendInput is an outgoing message.
type SendInput struct {
	ParticipantIDs     []string `json:"participant_ids"     validate:"required,min=1,max=12,dive,required"`
	Text               string   `json:"text"`
	AttachmentID       string   `json:"attachment_id"       validate:"max=255"`
	AttachmentType     string   `json:"attachment_type"     validate:"omitempty,oneof=image video audio other"`
	AttachmentDuration float64  `json:"attachment_duration" validate:"gte=0"`
}

// Conversation summarises one thread for the conversation list.
type Conversation struct {
	Key            string              `json:"key"`
	ParticipantIDs []string            `json:"participant_ids"`
	LastMessage    *domain.ChatMessage `json:"last_message"`
	MessageCount   int64               `json:"message_count"`
}

// Send stores a message from sender to the participants. The sender is
// added to the participants when missing; the conversation key is derived
// here, never taken from the client.
func (s *ChatService) Send(ctx context.Context, senderID, senderName string, in SendInput) (*domain.ChatMessage, error) {
	ctx, span := otel.Tracer("services/ChatService").Start(ctx, "Send",
		trace.WithAttributes(attribute.String("user.id", senderID)),
	)
	defer span.End()

	in.Text = strings.TrimSpace(in.Text)
	in.AttachmentID = strings.TrimSpace(in.AttachmentID)
	in.AttachmentType = strings.ToLower(strings.TrimSpace(in.AttachmentType))
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	if in.Text == "" && in.AttachmentID == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxTextRunes > 0 && utf8.RuneCountInString(in.Text) > s.MaxTextRunes {
		return nil, invalid("text is too long")
	}
	if in.AttachmentID != "" && in.AttachmentType == "" {
		in.AttachmentType = domain.AttachmentOther
	}
	if in.AttachmentID == "" {
		in.AttachmentType, in.AttachmentDuration = "", 0
	}

	key := derive.ConversationKey(append([]string{senderID}, in.ParticipantIDs...))
	participants := strings.Split(key, "_")
	if len(participants) < 2 {
		return nil, invalid("participant_ids must name someone besides the sender")
	}
	for _, id := range participants {
		if id == senderID {
			continue
		}
		if _, err := repo.GetAccount(ctx, s.DB, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, invalid("unknown participant " + id)
			}
			return nil, err
		}
	}

	m, err := repo.CreateChatMessage(ctx, s.DB, domain.ChatMessage{
		ConversationKey:    key,
		SenderID:           senderID,
		SenderName:         senderName,
		Text:               in.Text,
		AttachmentID:       in.AttachmentID,
		AttachmentType:     in.AttachmentType,
		AttachmentDuration: in.AttachmentDuration,
		ParticipantIDs:     participants,
	})
	if err != nil {
		return nil, err
	}
	label := in.AttachmentType
	if label == "" {
		label = "none"
	}
	chatMessagesTotal.WithLabelValues(label).Inc()
	return m, nil
}

// Get returns message id when accountID takes part in its conversation.
func (s *ChatService) Get(ctx context.Context, accountID, id string) (*domain.ChatMessage, error) {
	m, err := repo.GetChatMessage(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !derive.KeyHasParticipant(m.ConversationKey, accountID)) {
		return nil, ErrMessageNotFound
	}
	return m, err
}

// Conversations lists accountID's threads, most recently active first.
func (s *ChatService) Conversations(ctx context.Context, accountID string) ([]Conversation, error) {
	ctx, span := otel.Tracer("services/ChatService").Start(ctx, "Conversations",
		trace.WithAttributes(attribute.String("user.id", accountID)),
	)
	defer span.End()

	keys, err := repo.ListConversationKeys(ctx, s.DB, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]Conversation, 0, len(keys))
	for _, k := range keys {
		last, err := repo.LastConversationMessage(ctx, s.DB, k)
		if errors.Is(err, repo.ErrNotFound) {
			// Every message of the thread was deleted.
			continue
		}
		if err != nil {
			return nil, err
		}
		n, err := repo.CountConversationMessages(ctx, s.DB, k)
		if err != nil {
			return nil, err
		}
		out = append(out, Conversation{
			Key:            k,
			ParticipantIDs: strings.Split(k, "_"),
			LastMessage:    last,
			MessageCount:   n,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lastAt(out[i]).After(lastAt(out[j]))
	})
	return out, nil
}

func lastAt(c Conversation) time.Time {
	if c.LastMessage == nil {
		return time.Time{}
	}
	return c.LastMessage.CreatedAt
}

// Messages returns a page of a conversation, oldest first. Only
// participants may read it.
func (s *ChatService) Messages(ctx context.Context, accountID, key string, page, pageSize int) ([]domain.ChatMessage, int64, error) {
	ctx, span := otel.Tracer("services/ChatService").Start(ctx, "Messages",
		trace.WithAttributes(
			attribute.String("user.id", accountID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if !derive.KeyHasParticipant(key, accountID) {
		return nil, 0, ErrNotParticipant
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountConversationMessages(ctx, s.DB, key)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ChatMessage{}, 0, nil
	}
	items, err := repo.ListConversationPage(ctx, s.DB, key, offset, pageSize)
	return items, total, err
}

// Delete removes a message; only its sender may.
func (s *ChatService) Delete(ctx context.Context, accountID, id string) error {
	m, err := s.Get(ctx, accountID, id)
	if err != nil {
		return err
	}
	if m.SenderID != accountID {
		return ErrForbidden
	}
	err = repo.DeleteChatMessage(ctx, s.DB, id, accountID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrMessageNotFound
	}
	return err
}
