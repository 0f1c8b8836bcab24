// Session HTTP handlers.
//
//   - POST /auth/login    (public)
//   - POST /auth/logout
//   - GET  /auth/me
//   - GET  /accounts       (colleagues, for chat participants)
//   - POST /admin/accounts (admin)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intranet-backend/internal/auth"
	"github.com/tbourn/go-intranet-backend/internal/http/middleware"
)

// LoginRequest is the JSON payload of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"    binding:"required" example:"jean.dupont@ctr.fr"`
	Password string `json:"password" binding:"required" example:"correct horse battery"`
}

// CreateAccountRequest is the JSON payload of POST /admin/accounts.
type CreateAccountRequest struct {
	Email    string   `json:"email"    binding:"required"`
	Name     string   `json:"name"     binding:"required"`
	Password string   `json:"password" binding:"required"`
	Labels   []string `json:"labels"`
}

// AccountSummary is a colleague as listed to every signed-in account.
type AccountSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Login godoc
// @ID          login
// @Summary     Sign in
// @Description Exchanges email and password for a bearer token. A request that already carries a live token is answered 409 session_already_active.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  services.LoginResult
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     401   {object}  handlers.ErrorResponse
// @Failure     409   {object}  handlers.ErrorResponse "Session already active"
// @Failure     429   {object}  handlers.ErrorResponse
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password required")
		return
	}
	presented := auth.BearerToken(c.GetHeader("Authorization"))
	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, presented)
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	middleware.LoggerFrom(c).Info().Str("user_id", res.Account.ID).Msg("signed in")
	ok(c, http.StatusOK, res)
}

// Logout godoc
// @ID          logout
// @Summary     Sign out
// @Tags        Auth
// @Security    BearerAuth
// @Success     204
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), middleware.SessionID(c)); err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	noContent(c)
}

// Me godoc
// @ID          me
// @Summary     Current account
// @Tags        Auth
// @Security    BearerAuth
// @Produce     json
// @Success     200  {object}  domain.Account
// @Failure     401  {object}  handlers.ErrorResponse
// @Router      /auth/me [get]
func (h *Handlers) Me(c *gin.Context) {
	acc, err := h.auth.Account(c.Request.Context(), userID(c))
	if err != nil {
		failErr(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, acc)
}

// ListAccounts godoc
// @ID          listAccounts
// @Summary     List colleagues
// @Tags        Auth
// @Security    BearerAuth
// @Produce     json
// @Success     200  {array}   handlers.AccountSummary
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /accounts [get]
func (h *Handlers) ListAccounts(c *gin.Context) {
	accs, err := h.auth.Colleagues(c.Request.Context())
	if err != nil {
		failErr(c, err, ErrCodeListFailed)
		return
	}
	out := make([]AccountSummary, 0, len(accs))
	for _, a := range accs {
		out = append(out, AccountSummary{ID: a.ID, Name: a.Name, Email: a.Email})
	}
	ok(c, http.StatusOK, out)
}

// CreateAccount godoc
// @ID          createAccount
// @Summary     Create an account
// @Tags        Admin
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.CreateAccountRequest  true  "Account"
// @Success     201   {object}  domain.Account
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     403   {object}  handlers.ErrorResponse
// @Router      /admin/accounts [post]
func (h *Handlers) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email, name and password required")
		return
	}
	labels := make([]string, 0, len(req.Labels))
	for _, l := range req.Labels {
		if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
			labels = append(labels, l)
		}
	}
	acc, err := h.auth.AddAccount(c.Request.Context(), req.Email, req.Name, req.Password, labels)
	if err != nil {
		failErr(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, acc)
}

