package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intranet-backend/internal/http/middleware"
	"github.com/tbourn/go-intranet-backend/internal/repo"
	"github.com/tbourn/go-intranet-backend/internal/services"
	"github.com/tbourn/go-intranet-backend/internal/utils"
)

// PatchLineRequest sets one field of a ledger line. Value is always a
// string; numbers accept a decimal comma.
type PatchLineRequest struct {
	Field string `json:"field" binding:"required" example:"quantity"`
	Value string `json:"value" example:"1,5"`
}

// LockRequest is the payload of POST /work-log/{id}/lock.
type LockRequest struct {
	Reference string `json:"reference" binding:"required" example:"FAC-2025-118"`
}

// ListWorkLog godoc
// @ID          listWorkLog
// @Summary     Ledger lines of a month
// @Description Lines of (month, year), the current month when omitted, with the summed total.
// @Tags        WorkLog
// @Security    BearerAuth
// @Produce     json
// @Param       month          query   int     false  "1..12"
// @Param       year           query   int     false  "Year"
// @Param       q              query   string  false  "Filter on description, plate and code"
// @Param       If-None-Match  header  string  false  "Weak ETag from a previous response"
// @Success     200  {object}  services.WorkLogPage
// @Success     304  "Not Modified"
// @Router      /work-log [get]
func (h *Handlers) ListWorkLog(c *gin.Context) {
	month := utils.AtoiDefault(c.Query("month"), 0)
	year := utils.AtoiDefault(c.Query("year"), 0)
	q := strings.TrimSpace(c.Query("q"))
	if h.db != nil && month >= 1 && month <= 12 && year > 0 && q == "" {
		s, err := repo.WorkLogStats(c.Request.Context(), h.db, month, year)
		if notModified(c, "worklog", fmt.Sprintf("%04d-%02d", year, month), s, err) {
			return
		}
	}
	page, err := h.worklog.List(c.Request.Context(), month, year, q)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, page)
}

// CreateWorkLogLine godoc
// @ID          createWorkLogLine
// @Summary     Add a ledger line
// @Description A known work code fills description and unit price; an empty date adds a blank row in the given period.
// @Tags        WorkLog
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                 false  "Replay-safe key"
// @Param       body             body    services.WorkLogInput  true   "Line"
// @Success     201  {object}  domain.WorkLogLine
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /work-log [post]
func (h *Handlers) CreateWorkLogLine(c *gin.Context) {
	if replay(h, c, repo.GetWorkLogLine) {
		return
	}
	var in services.WorkLogInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	l, err := h.worklog.Create(c.Request.Context(), in)
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	h.created(c, l.ID, l)
}

// PatchWorkLogLine godoc
// @ID          patchWorkLogLine
// @Summary     Edit one field of a ledger line
// @Description field is one of date, description, work_code, plate, quantity, unit_price, comment. The total is recomputed.
// @Tags        WorkLog
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id    path      string                     true  "Line ID"
// @Param       body  body      handlers.PatchLineRequest  true  "Field and value"
// @Success     200   {object}  domain.WorkLogLine
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Failure     423   {object}  handlers.ErrorResponse "Line is locked"
// @Router      /work-log/{id} [patch]
func (h *Handlers) PatchWorkLogLine(c *gin.Context) {
	var req PatchLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "field is required")
		return
	}
	l, err := h.worklog.Patch(c.Request.Context(), c.Param("id"), req.Field, req.Value)
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, l)
}

// LockWorkLogLine godoc
// @ID          lockWorkLogLine
// @Summary     Lock a ledger line
// @Tags        WorkLog
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id    path      string                true  "Line ID"
// @Param       body  body      handlers.LockRequest  true  "Reference"
// @Success     200   {object}  domain.WorkLogLine
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /work-log/{id}/lock [post]
func (h *Handlers) LockWorkLogLine(c *gin.Context) {
	var req LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "reference is required")
		return
	}
	l, err := h.worklog.Lock(c.Request.Context(), c.Param("id"), req.Reference)
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, l)
}

// UnlockWorkLogLine godoc
// @ID          unlockWorkLogLine
// @Summary     Confirm unlocking a ledger line
// @Description Each call is one confirmation; the lock clears once enough are recorded.
// @Tags        WorkLog
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      string  true  "Line ID"
// @Success     200  {object}  services.UnlockResult
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse "Line is not locked"
// @Router      /work-log/{id}/unlock [post]
func (h *Handlers) UnlockWorkLogLine(c *gin.Context) {
	res, err := h.worklog.Unlock(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	if res.Unlocked {
		middleware.LoggerFrom(c).Info().Str("line_id", res.Line.ID).Msg("worklog line unlocked")
	}
	ok(c, http.StatusOK, res)
}

// DeleteWorkLogLine godoc
// @ID          deleteWorkLogLine
// @Summary     Delete a ledger line
// @Tags        WorkLog
// @Security    BearerAuth
// @Param       id   path  string  true  "Line ID"
// @Success     204
// @Failure     404  {object}  handlers.ErrorResponse
// @Failure     423  {object}  handlers.ErrorResponse "Line is locked"
// @Router      /work-log/{id} [delete]
func (h *Handlers) DeleteWorkLogLine(c *gin.Context) {
	if err := h.worklog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}

// ListTariffs godoc
// @ID          listTariffs
// @Summary     Work-code tariffs
// @Description The whole table, or with q the closest matches on code and label.
// @Tags        WorkLog
// @Security    BearerAuth
// @Produce     json
// @Param       q      query  string  false  "Code or label fragment"
// @Param       limit  query  int     false  "Suggestions to return (default 8, max 30)"
// @Success     200  {array}  derive.Tariff
// @Router      /tariffs [get]
func (h *Handlers) ListTariffs(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		ok(c, http.StatusOK, h.worklog.TariffList())
		return
	}
	_, k := utils.ClampPage("", c.Query("limit"), 8, 30)
	ok(c, http.StatusOK, h.worklog.SuggestTariffs(q, k))
}
