// Package middleware contains the Gin middleware of the intranet API:
// correlation ids, redacted access logs, panic recovery, Prometheus
// metrics, bearer authentication, idempotency keys, rate limiting and
// security headers.
//
// Identity set by RequireAuth is read back through the accessors in this
// file so handlers never touch raw context keys.
package middleware

import (
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-intranet-backend/internal/domain"
)

// Gin context keys for the authenticated identity.
const (
	ctxKeyUserID    = "userID"
	ctxKeyUserName  = "userName"
	ctxKeyLabels    = "labels"
	ctxKeySessionID = "sessionID"
)

// Identity is what RequireAuth learned about the caller.
type Identity struct {
	UserID    string
	Name      string
	Labels    []string
	SessionID string
}

// SetIdentity stores id on the request context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(ctxKeyUserID, id.UserID)
	c.Set(ctxKeyUserName, id.Name)
	c.Set(ctxKeyLabels, id.Labels)
	c.Set(ctxKeySessionID, id.SessionID)
}

// UserID returns the authenticated account id, or "" for anonymous calls.
func UserID(c *gin.Context) string { return c.GetString(ctxKeyUserID) }

// UserName returns the authenticated display name.
func UserName(c *gin.Context) string { return c.GetString(ctxKeyUserName) }

// SessionID returns the id of the session the bearer token belongs to.
func SessionID(c *gin.Context) string { return c.GetString(ctxKeySessionID) }

// Labels returns the caller's account labels.
func Labels(c *gin.Context) []string { return c.GetStringSlice(ctxKeyLabels) }

// HasLabel reports whether the caller carries label.
func HasLabel(c *gin.Context, label string) bool { return slices.Contains(Labels(c), label) }

// IsAdmin reports whether the caller may manage leave requests.
func IsAdmin(c *gin.Context) bool { return HasLabel(c, domain.LabelAdmin) }

// abort writes the standard error envelope. Handlers have their own copy
// in package handlers; middleware cannot import it.
func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
