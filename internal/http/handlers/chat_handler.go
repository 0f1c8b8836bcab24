// Chat HTTP handlers.
//
// A conversation is addressed by its key, the sorted participant ids joined
// by "_". Clients never choose it when sending: the server derives it from
// the sender and participant_ids.
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intranet-backend/internal/derive"
	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/http/middleware"
	"github.com/tbourn/go-intranet-backend/internal/repo"
	"github.com/tbourn/go-intranet-backend/internal/services"
)

// MessagePage is one page of a conversation, oldest first.
type MessagePage struct {
	Items      []domain.ChatMessage `json:"items"`
	Pagination Pagination           `json:"pagination"`
}

// SendMessage godoc
// @ID          sendMessage
// @Summary     Send a chat message
// @Description Text, an attachment, or both. The sender joins participant_ids automatically.
// @Tags        Chat
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string              false  "Replay-safe key"
// @Param       body             body    services.SendInput  true   "Message"
// @Success     201  {object}  domain.ChatMessage
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /chat/messages [post]
func (h *Handlers) SendMessage(c *gin.Context) {
	if replay(h, c, repo.GetChatMessage) {
		return
	}
	var in services.SendInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	m, err := h.chat.Send(c.Request.Context(), userID(c), middleware.UserName(c), in)
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	h.created(c, m.ID, m)
}

// ListConversations godoc
// @ID          listConversations
// @Summary     My conversations
// @Description Most recently active first, with the last message and the message count.
// @Tags        Chat
// @Security    BearerAuth
// @Produce     json
// @Success     200  {array}   services.Conversation
// @Router      /chat/conversations [get]
func (h *Handlers) ListConversations(c *gin.Context) {
	items, err := h.chat.Conversations(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, items)
}

// ListMessages godoc
// @ID          listMessages
// @Summary     Messages of a conversation
// @Tags        Chat
// @Security    BearerAuth
// @Produce     json
// @Param       key            path    string  true   "Conversation key"
// @Param       page           query   int     false  "Page (1-based)"  minimum(1)
// @Param       page_size      query   int     false  "Page size"       minimum(1) maximum(200)
// @Param       If-None-Match  header  string  false  "Weak ETag from a previous response"
// @Success     200  {object}  handlers.MessagePage
// @Success     304  "Not Modified"
// @Failure     403  {object}  handlers.ErrorResponse
// @Router      /chat/conversations/{key}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	key, uid := c.Param("key"), userID(c)
	if !derive.KeyHasParticipant(key, uid) {
		failErr(c, services.ErrNotParticipant, ErrCodeForbidden)
		return
	}
	page, size := clampPagination(c)
	if h.db != nil {
		s, err := repo.ConversationStats(c.Request.Context(), h.db, key)
		if notModified(c, "chat", fmt.Sprintf("%s:%d:%d", key, page, size), s, err) {
			return
		}
	}
	items, total, err := h.chat.Messages(c.Request.Context(), uid, key, page, size)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, MessagePage{Items: items, Pagination: newPagination(page, size, total)})
}

// DeleteMessage godoc
// @ID          deleteMessage
// @Summary     Delete one of my messages
// @Tags        Chat
// @Security    BearerAuth
// @Param       id   path  string  true  "Message ID"
// @Success     204
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /chat/messages/{id} [delete]
func (h *Handlers) DeleteMessage(c *gin.Context) {
	if err := h.chat.Delete(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}
