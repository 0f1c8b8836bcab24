package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every reason a presented token is rejected.
var ErrInvalidToken = errors.New("invalid token")

const issuer = "go-intranet-backend"

// Claims carries the account identity inside a session token. The
// registered ID (jti) is the session id.
type Claims struct {
	AccountID string   `json:"account_id"`
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Labels    []string `json:"labels"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 session tokens.
type Tokens struct {
	Secret []byte
	TTL    time.Duration
}

// Issue signs a token for the account with sessionID as jti. It returns the
// token and its expiry.
func (t Tokens) Issue(accountID, email, name string, labels []string, sessionID string, now time.Time) (string, time.Time, error) {
	exp := now.Add(t.TTL).UTC()
	claims := Claims{
		AccountID: accountID,
		Email:     email,
		Name:      name,
		Labels:    labels,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   accountID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, exp, nil
}

// Parse verifies signature, issuer and expiry and returns the claims.
func (t Tokens) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.ID == "" || claims.AccountID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken strips the "Bearer " scheme from an Authorization header.
// It returns "" when the header carries no bearer token.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
