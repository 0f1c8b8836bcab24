package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intranet-backend/internal/derive"
	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/repo"
	"github.com/tbourn/go-intranet-backend/internal/services"
)

// GetPlanning godoc
// @ID          getPlanning
// @Summary     Planning grid
// @Description Technicians by day for the month or the ISO week containing date (today when omitted). Dates are clamped to 2025-12-01..2050-01-31.
// @Tags        Planning
// @Security    BearerAuth
// @Produce     json
// @Param       view           query   string  false  "month (default) or week"
// @Param       date           query   string  false  "Anchor day, YYYY-MM-DD"
// @Param       If-None-Match  header  string  false  "Weak ETag from a previous response"
// @Success     200  {object}  services.Planning
// @Success     304  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /planning [get]
func (h *Handlers) GetPlanning(c *gin.Context) {
	view, date := c.Query("view"), c.Query("date")
	if h.db != nil {
		if v, days, err := h.planning.Range(view, date); err == nil {
			from, to := derive.FormatDate(days[0]), derive.FormatDate(days[len(days)-1])
			s, err := h.planningStats(c.Request.Context(), from, to)
			if notModified(c, "planning", v+":"+from+":"+to, s, err) {
				return
			}
		}
	}
	p, err := h.planning.View(c.Request.Context(), view, date)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, p)
}

// planningStats folds the cells of the range with the technician and job
// site lists, which the grid also carries.
func (h *Handlers) planningStats(ctx context.Context, from, to string) (repo.Stats, error) {
	var out repo.Stats
	for _, get := range []func() (repo.Stats, error){
		func() (repo.Stats, error) { return repo.ScheduleStats(ctx, h.db, from, to) },
		func() (repo.Stats, error) { return repo.TechnicianStats(ctx, h.db) },
		func() (repo.Stats, error) { return repo.JobSiteStats(ctx, h.db) },
	} {
		s, err := get()
		if err != nil {
			return repo.Stats{}, err
		}
		out.Count += s.Count
		if s.Latest != nil && (out.Latest == nil || s.Latest.After(*out.Latest)) {
			out.Latest = s.Latest
		}
	}
	return out, nil
}

// SaveCell godoc
// @ID          saveCell
// @Summary     Save a planning cell
// @Description Creates or overwrites the cell of (date, technician). Night hours are kept only when night_work is set.
// @Tags        Planning
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       date          path      string              true  "Day, YYYY-MM-DD"
// @Param       technicianId  path      string              true  "Technician ID"
// @Param       body          body      services.CellInput  true  "Cell content"
// @Success     200  {object}  domain.ScheduleCell
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /planning/cells/{date}/{technicianId} [put]
func (h *Handlers) SaveCell(c *gin.Context) {
	var in services.CellInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	cell, err := h.planning.SaveCell(c.Request.Context(), c.Param("date"), c.Param("technicianId"), in)
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, cell)
}

// ClearCell godoc
// @ID          clearCell
// @Summary     Clear a planning cell
// @Description Clearing a cell that does not exist succeeds.
// @Tags        Planning
// @Security    BearerAuth
// @Param       date          path  string  true  "Day, YYYY-MM-DD"
// @Param       technicianId  path  string  true  "Technician ID"
// @Success     204
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /planning/cells/{date}/{technicianId} [delete]
func (h *Handlers) ClearCell(c *gin.Context) {
	if _, err := h.planning.ClearCell(c.Request.Context(), c.Param("date"), c.Param("technicianId")); err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	noContent(c)
}

// FillResponse lists the cells written by a fill.
type FillResponse struct {
	Count int                   `json:"count"`
	Cells []domain.ScheduleCell `json:"cells"`
}

// FillPlanning godoc
// @ID          fillPlanning
// @Summary     Fill cells from a recurrence rule
// @Description Writes the same content on every day produced by an RFC 5545 rule (COUNT or UNTIL required, at most 366 days) starting at start.
// @Tags        Planning
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       body  body      services.FillInput  true  "Recurrence and cell content"
// @Success     200   {object}  handlers.FillResponse
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /planning/fill [post]
func (h *Handlers) FillPlanning(c *gin.Context) {
	var in services.FillInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	cells, err := h.planning.Fill(c.Request.Context(), in)
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, FillResponse{Count: len(cells), Cells: cells})
}
