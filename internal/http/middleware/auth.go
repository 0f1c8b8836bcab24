package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tbourn/go-intranet-backend/internal/auth"
)

// Authenticator resolves a bearer token to its claims. Errors matching
// auth.ErrInvalidToken reject the token; any other error is an outage.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

var authRejections = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "intranet_auth_rejections_total",
		Help: "Requests rejected by authentication or authorization.",
	},
	[]string{"reason"},
)

func init() {
	prometheus.MustRegister(authRejections)
}

// RequireAuth rejects requests without a valid "Authorization: Bearer"
// token with 401 and stores the caller's Identity otherwise. A session store
// failure answers 503.
func RequireAuth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := auth.BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			authRejections.WithLabelValues("missing").Inc()
			abort(c, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		claims, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) {
				authRejections.WithLabelValues("unavailable").Inc()
				LoggerFrom(c).Error().Err(err).Msg("session check failed")
				abort(c, http.StatusServiceUnavailable, "unavailable", "sessions are temporarily unavailable")
				return
			}
			authRejections.WithLabelValues("invalid").Inc()
			LoggerFrom(c).Debug().Err(err).Msg("bearer token rejected")
			abort(c, http.StatusUnauthorized, "unauthorized", "session expired or invalid")
			return
		}
		SetIdentity(c, Identity{
			UserID:    claims.AccountID,
			Name:      claims.Name,
			Labels:    claims.Labels,
			SessionID: claims.ID,
		})
		c.Next()
	}
}

// RequireLabel lets only callers carrying label through; others get 403.
// Install it after RequireAuth.
func RequireLabel(label string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasLabel(c, label) {
			authRejections.WithLabelValues("forbidden").Inc()
			abort(c, http.StatusForbidden, "forbidden", "insufficient rights")
			return
		}
		c.Next()
	}
}
