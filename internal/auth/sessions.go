package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/tbourn/go-intranet-backend/internal/repo"
)

// SessionStore records which issued tokens are still signed in. A token
// whose session is gone is rejected even when its signature is valid.
type SessionStore interface {
	Create(ctx context.Context, id, accountID string, expiresAt time.Time) error
	Active(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// DBSessions keeps sessions in the sessions table.
type DBSessions struct {
	DB *gorm.DB
}

func (s DBSessions) Create(ctx context.Context, id, accountID string, expiresAt time.Time) error {
	return repo.CreateSession(ctx, s.DB, id, accountID, expiresAt)
}

func (s DBSessions) Active(ctx context.Context, id string) (bool, error) {
	_, err := repo.GetSession(ctx, s.DB, id, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s DBSessions) Delete(ctx context.Context, id string) error {
	return repo.DeleteSession(ctx, s.DB, id)
}

// RedisSessions keeps sessions as expiring keys, so expiry needs no sweep.
type RedisSessions struct {
	Client *redis.Client
	Prefix string
}

// NewRedisSessions connects to addr and checks it with a PING.
func NewRedisSessions(ctx context.Context, addr, password string, db int) (*RedisSessions, error) {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &RedisSessions{Client: c, Prefix: "intranet:session:"}, nil
}

func (s *RedisSessions) Create(ctx context.Context, id, accountID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return s.Client.Set(ctx, s.Prefix+id, accountID, ttl).Err()
}

func (s *RedisSessions) Active(ctx context.Context, id string) (bool, error) {
	n, err := s.Client.Exists(ctx, s.Prefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisSessions) Delete(ctx context.Context, id string) error {
	return s.Client.Del(ctx, s.Prefix+id).Err()
}

// Close releases the Redis connection pool.
func (s *RedisSessions) Close() error { return s.Client.Close() }
