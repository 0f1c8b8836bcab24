package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intranet-backend/internal/repo"
	"github.com/tbourn/go-intranet-backend/internal/services"
)

// ListTechnicians godoc
// @ID          listTechnicians
// @Summary     List technicians
// @Description Technicians sorted by last then first name. q filters on name, phone and email.
// @Tags        Directory
// @Security    BearerAuth
// @Produce     json
// @Param       q                query   string  false  "Free-text filter"
// @Param       If-None-Match    header  string  false  "Weak ETag from a previous response"
// @Success     200  {array}   domain.Technician
// @Success     304  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /technicians [get]
func (h *Handlers) ListTechnicians(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if h.db != nil && q == "" {
		s, err := repo.TechnicianStats(c.Request.Context(), h.db)
		if notModified(c, "technicians", "all", s, err) {
			return
		}
	}
	items, err := h.directory.ListTechnicians(c.Request.Context(), q)
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetTechnician godoc
// @ID          getTechnician
// @Summary     Get a technician
// @Tags        Directory
// @Security    BearerAuth
// @Produce     json
// @Param       id   path      string  true  "Technician ID"
// @Success     200  {object}  domain.Technician
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /technicians/{id} [get]
func (h *Handlers) GetTechnician(c *gin.Context) {
	t, err := h.directory.GetTechnician(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, t)
}

// CreateTechnician godoc
// @ID          createTechnician
// @Summary     Create a technician
// @Tags        Directory
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                    false  "Replay-safe key"
// @Param       body             body    services.TechnicianInput  true   "Technician"
// @Success     201  {object}  domain.Technician
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /technicians [post]
func (h *Handlers) CreateTechnician(c *gin.Context) {
	if replay(h, c, repo.GetTechnician) {
		return
	}
	var in services.TechnicianInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	t, err := h.directory.CreateTechnician(c.Request.Context(), in)
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	h.created(c, t.ID, t)
}

// UpdateTechnician godoc
// @ID          updateTechnician
// @Summary     Update a technician
// @Tags        Directory
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id    path      string                    true  "Technician ID"
// @Param       body  body      services.TechnicianInput  true  "Technician"
// @Success     200   {object}  domain.Technician
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /technicians/{id} [put]
func (h *Handlers) UpdateTechnician(c *gin.Context) {
	var in services.TechnicianInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	t, err := h.directory.UpdateTechnician(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, t)
}

// DeleteTechnician godoc
// @ID          deleteTechnician
// @Summary     Delete a technician
// @Tags        Directory
// @Security    BearerAuth
// @Param       id   path  string  true  "Technician ID"
// @Success     204
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /technicians/{id} [delete]
func (h *Handlers) DeleteTechnician(c *gin.Context) {
	if err := h.directory.DeleteTechnician(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}

// ListJobSites godoc
// @ID          listJobSites
// @Summary     List job sites
// @Tags        Directory
// @Security    BearerAuth
// @Produce     json
// @Param       If-None-Match  header  string  false  "Weak ETag from a previous response"
// @Success     200  {array}   domain.JobSite
// @Success     304  "Not Modified"
// @Router      /job-sites [get]
func (h *Handlers) ListJobSites(c *gin.Context) {
	if h.db != nil {
		s, err := repo.JobSiteStats(c.Request.Context(), h.db)
		if notModified(c, "job-sites", "all", s, err) {
			return
		}
	}
	items, err := h.directory.ListJobSites(c.Request.Context())
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	ok(c, http.StatusOK, items)
}

// CreateJobSite godoc
// @ID          createJobSite
// @Summary     Create a job site
// @Description Names are unique; a duplicate answers 409.
// @Tags        Directory
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header  string                 false  "Replay-safe key"
// @Param       body             body    services.JobSiteInput  true   "Job site"
// @Success     201  {object}  domain.JobSite
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     409  {object}  handlers.ErrorResponse
// @Router      /job-sites [post]
func (h *Handlers) CreateJobSite(c *gin.Context) {
	if replay(h, c, repo.GetJobSite) {
		return
	}
	var in services.JobSiteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	s, err := h.directory.CreateJobSite(c.Request.Context(), in)
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	h.created(c, s.ID, s)
}

// UpdateJobSite godoc
// @ID          updateJobSite
// @Summary     Update a job site
// @Tags        Directory
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       id    path      string                 true  "Job site ID"
// @Param       body  body      services.JobSiteInput  true  "Job site"
// @Success     200   {object}  domain.JobSite
// @Failure     404   {object}  handlers.ErrorResponse
// @Failure     409   {object}  handlers.ErrorResponse
// @Router      /job-sites/{id} [put]
func (h *Handlers) UpdateJobSite(c *gin.Context) {
	var in services.JobSiteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	s, err := h.directory.UpdateJobSite(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		failErr(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, s)
}

// DeleteJobSite godoc
// @ID          deleteJobSite
// @Summary     Delete a job site
// @Tags        Directory
// @Security    BearerAuth
// @Param       id   path  string  true  "Job site ID"
// @Success     204
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /job-sites/{id} [delete]
func (h *Handlers) DeleteJobSite(c *gin.Context) {
	if err := h.directory.DeleteJobSite(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}
