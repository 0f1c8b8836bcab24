package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/http/middleware"
	"github.com/tbourn/go-intranet-backend/internal/repo"
	"github.com/tbourn/go-intranet-backend/internal/services"
)

// AdminLeaveList is the review queue: every request plus the pending count
// shown as a badge.
type AdminLeaveList struct {
	Items        []domain.LeaveRequest `json:"items"`
	PendingCount int64                 `json:"pending_count"`
}

// CommentRequest is the payload of PUT /admin/leave-requests/{id}/comment.
type CommentRequest struct {
	AdminComment string `json:"admin_comment"`
}

// ListMyLeave godoc
// @ID          listMyLeave
// @Summary     My leave requests
// @Tags        Leave
// @Security    BearerAuth
// @Produce     json
// @Param       If-None-Match  header  string  false  "Weak ETag from a previous response"
// @Success     200  {array}   domain.LeaveRequest
// @Success     304  "Not Modified"
// @Router      /leave-requests/mine [get]
func (h *Handlers) ListMyLeave(c *gin.Context) {
	uid := userID(c)
	if h.db != nil {
		s, err := repo.LeaveStats(c.Request.Context(), h.db, uid)
		if notModified(c, "leave", uid, s, err) {
			return
		}
	}
	items, err := h.leave.Mine(c.Request.Context(), uid)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, items)
}

// CreateLeave godoc
// @ID          createLeave
// @Summary     File a leave request
// @Description Starts pending. end_date must not precede start_date.
// @Tags        Leave
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string               false  "Replay-safe key"
// @Param       body             body    services.LeaveInput  true   "Request"
// @Success     201  {object}  domain.LeaveRequest
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /leave-requests [post]
func (h *Handlers) CreateLeave(c *gin.Context) {
	if replay(h, c, repo.GetLeave) {
		return
	}
	var in services.LeaveInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	l, err := h.leave.Create(c.Request.Context(), userID(c), middleware.UserName(c), in)
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	h.created(c, l.ID, l)
}

// UpdateLeave godoc
// @ID          updateLeave
// @Summary     Edit a pending leave request
// @Tags        Leave
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id    path      string               true  "Request ID"
// @Param       body  body      services.LeaveInput  true  "Request"
// @Success     200   {object}  domain.LeaveRequest
// @Failure     404   {object}  handlers.ErrorResponse
// @Failure     409   {object}  handlers.ErrorResponse "Already decided"
// @Router      /leave-requests/{id} [put]
func (h *Handlers) UpdateLeave(c *gin.Context) {
	var in services.LeaveInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	l, err := h.leave.Update(c.Request.Context(), userID(c), c.Param("id"), in)
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, l)
}

// MarkLeaveSeen godoc
// @ID          markLeaveSeen
// @Summary     Acknowledge a decision
// @Tags        Leave
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      string  true  "Request ID"
// @Success     200  {object}  domain.LeaveRequest
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /leave-requests/{id}/seen [post]
func (h *Handlers) MarkLeaveSeen(c *gin.Context) {
	l, err := h.leave.MarkSeen(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, l)
}

// AdminListLeave godoc
// @ID          adminListLeave
// @Summary     Review queue
// @Description Every request, pending first, each group newest first.
// @Tags        Admin
// @Security    BearerAuth
// @Produce     json
// @Param       If-None-Match  header  string  false  "Weak ETag from a previous response"
// @Success     200  {object}  handlers.AdminLeaveList
// @Success     304  "Not Modified"
// @Failure     403  {object}  handlers.ErrorResponse
// @Router      /admin/leave-requests [get]
func (h *Handlers) AdminListLeave(c *gin.Context) {
	if h.db != nil {
		s, err := repo.LeaveStats(c.Request.Context(), h.db, "")
		if notModified(c, "leave", "all", s, err) {
			return
		}
	}
	items, pending, err := h.leave.AdminList(c.Request.Context())
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, AdminLeaveList{Items: items, PendingCount: pending})
}

// DecideLeave godoc
// @ID          decideLeave
// @Summary     Decide a leave request
// @Description Sets status (pending, approved or denied) and flags the request unseen for its requester. admin_comment is kept when omitted.
// @Tags        Admin
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id    path      string                  true  "Request ID"
// @Param       body  body      services.DecisionInput  true  "Decision"
// @Success     200   {object}  domain.LeaveRequest
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /admin/leave-requests/{id}/status [put]
func (h *Handlers) DecideLeave(c *gin.Context) {
	var in services.DecisionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	l, err := h.leave.Decide(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	middleware.LoggerFrom(c).Info().
		Str("leave_id", l.ID).
		Str("status", l.Status).
		Msg("leave decided")
	ok(c, http.StatusOK, l)
}

// CommentLeave godoc
// @ID          commentLeave
// @Summary     Save the admin comment
// @Tags        Admin
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id    path      string                   true  "Request ID"
// @Param       body  body      handlers.CommentRequest  true  "Comment"
// @Success     200   {object}  domain.LeaveRequest
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /admin/leave-requests/{id}/comment [put]
func (h *Handlers) CommentLeave(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	l, err := h.leave.Comment(c.Request.Context(), c.Param("id"), req.AdminComment)
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, l)
}
