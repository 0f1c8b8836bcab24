package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-intranet-backend/internal/domain"
)

func TestPassword_HashAndCheck(t *testing.T) {
	h, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPassword(h, "s3cret!"))
	assert.False(t, CheckPassword(h, "wrong"))

	_, err = HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestTokens_IssueAndParse(t *testing.T) {
	tk := Tokens{Secret: []byte("0123456789abcdef0123"), TTL: time.Hour}
	now := time.Now()

	s, exp, err := tk.Issue("a1", "a@example.com", "Alice", []string{"admin"}, "sess-1", now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), exp, time.Second)

	c, err := tk.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, "a1", c.AccountID)
	assert.Equal(t, "sess-1", c.ID)
	assert.Equal(t, []string{"admin"}, c.Labels)

	other := Tokens{Secret: []byte("another-secret-value"), TTL: time.Hour}
	_, err = other.Parse(s)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, _, err := tk.Issue("a1", "a@example.com", "Alice", nil, "sess-2", now.Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = tk.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokens_RejectsOtherAlgorithms(t *testing.T) {
	tk := Tokens{Secret: []byte("0123456789abcdef0123"), TTL: time.Hour}
	claims := Claims{AccountID: "a1", RegisteredClaims: jwt.RegisteredClaims{
		ID: "s", Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(tk.Secret)
	require.NoError(t, err)
	_, err = tk.Parse(s)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer  abc "))
	assert.Equal(t, "", BearerToken("abc"))
	assert.Equal(t, "", BearerToken(""))
}

func TestDBSessions(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Session{}))

	ctx := context.Background()
	st := DBSessions{DB: db}
	require.NoError(t, st.Create(ctx, "s1", "a1", time.Now().Add(time.Hour)))

	ok, err := st.Active(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, st.Delete(ctx, "s1"))
	ok, err = st.Active(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginLimiter(t *testing.T) {
	l := NewLoginLimiter(0.001, 2)
	now := time.Now()
	assert.True(t, l.Allow("A@x.fr", now))
	assert.True(t, l.Allow("a@x.fr ", now))
	assert.False(t, l.Allow("a@x.fr", now), "third attempt exceeds burst")
	assert.True(t, l.Allow("b@x.fr", now), "buckets are per email")

	l.Reset("a@x.fr")
	assert.True(t, l.Allow("a@x.fr", now))
}
