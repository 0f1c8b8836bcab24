package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetDashboard godoc
// @ID          getDashboard
// @Summary     Landing page
// @Description The menu visible to the account, its unseen leave decisions and, for admins, the pending review count.
// @Tags        Dashboard
// @Security    BearerAuth
// @Produce     json
// @Success     200  {object}  services.Dashboard
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /dashboard [get]
func (h *Handlers) GetDashboard(c *gin.Context) {
	d, err := h.dashboard.Get(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, d)
}
