// Package services – AuthService
//
// AuthService is the session provider: it checks credentials, issues
// signed session tokens backed by a session store, resolves tokens back to
// accounts and ends sessions. Login attempts are throttled per email.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-intranet-backend/internal/auth"
	"github.com/tbourn/go-intranet-backend/internal/domain"
	"github.com/tbourn/go-intranet-backend/internal/repo"
)

// AuthService issues and checks sessions.
type AuthService struct {
	DB       *gorm.DB
	Tokens   auth.Tokens
	Sessions auth.SessionStore
	Limiter  *auth.LoginLimiter

	// Now is overridable in tests.
	Now func() time.Time
}

// LoginResult is a new session.
type LoginResult struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Account   *domain.Account `json:"account"`
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Login checks email/password and opens a session. presented is the token
// the client already holds, if any; a still-valid one yields
// ErrSessionActive.
func (s *AuthService) Login(ctx context.Context, email, password, presented string) (*LoginResult, error) {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "Login")
	defer span.End()

	if presented != "" {
		if _, err := s.Authenticate(ctx, presented); err == nil {
			loginsTotal.WithLabelValues("already_active").Inc()
			return nil, ErrSessionActive
		}
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, invalid("email and password are required")
	}

	if s.Limiter != nil && !s.Limiter.Allow(email, s.now()) {
		loginsTotal.WithLabelValues("rate_limited").Inc()
		return nil, ErrLoginRateLimited
	}

	acc, err := repo.GetAccountByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			loginsTotal.WithLabelValues("rejected").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(acc.PasswordHash, password) {
		loginsTotal.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidCredentials
	}

	sessionID := uuid.NewString()
	token, exp, err := s.Tokens.Issue(acc.ID, acc.Email, acc.Name, acc.Labels, sessionID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.Create(ctx, sessionID, acc.ID, exp); err != nil {
		return nil, err
	}
	if s.Limiter != nil {
		s.Limiter.Reset(email)
	}
	span.SetAttributes(attribute.String("user.id", acc.ID))
	loginsTotal.WithLabelValues("ok").Inc()
	return &LoginResult{Token: token, ExpiresAt: exp, Account: acc}, nil
}

// errRejectedToken matches both ErrUnauthenticated and auth.ErrInvalidToken,
// so the transport can tell a bad token from a session store failure.
var errRejectedToken = fmt.Errorf("%w: %w", ErrUnauthenticated, auth.ErrInvalidToken)

// Authenticate resolves a token to its claims when both the signature and
// the session are valid. Session store failures are returned wrapped and
// match neither sentinel.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return nil, errRejectedToken
	}
	active, err := s.Sessions.Active(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	if !active {
		return nil, errRejectedToken
	}
	return claims, nil
}

// Account returns the signed-in account.
func (s *AuthService) Account(ctx context.Context, accountID string) (*domain.Account, error) {
	ctx, span := otel.Tracer("services/AuthService").Start(ctx, "Account",
		trace.WithAttributes(attribute.String("user.id", accountID)),
	)
	defer span.End()

	acc, err := repo.GetAccount(ctx, s.DB, accountID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUnauthenticated
	}
	return acc, err
}

// Logout ends the session sessionID.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.Sessions.Delete(ctx, sessionID)
}

// Colleagues lists every account, for picking chat recipients.
func (s *AuthService) Colleagues(ctx context.Context) ([]domain.Account, error) {
	return repo.ListAccounts(ctx, s.DB)
}

// AddAccount creates an account with a bcrypt-hashed password.
func (s *AuthService) AddAccount(ctx context.Context, email, name, password string, labels []string) (*domain.Account, error) {
	in := struct {
		Email    string `json:"email"    validate:"required,email,max=255"`
		Name     string `json:"name"     validate:"required,max=160"`
		Password string `json:"password" validate:"required,min=8"`
	}{strings.TrimSpace(email), strings.TrimSpace(name), password}
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	clean := make([]string, 0, len(labels))
	for _, l := range labels {
		if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
			clean = append(clean, l)
		}
	}
	acc, err := repo.CreateAccount(ctx, s.DB, in.Email, in.Name, hash, clean)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, invalid("an account with this email already exists")
	}
	return acc, err
}
