// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for accounts and
// their server-side sessions.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-intranet-backend/internal/domain"
)

// CreateAccount inserts an account. Emails are stored lower-cased; a second
// account with the same email returns ErrDuplicate.
func CreateAccount(ctx context.Context, db *gorm.DB, email, name, passwordHash string, labels []string) (*domain.Account, error) {
	a := &domain.Account{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		Labels:       labels,
		CreatedAt:    time.Now().UTC(),
	}
	if a.Labels == nil {
		a.Labels = []string{}
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, mapWriteErr(err)
	}
	return a, nil
}

// GetAccount fetches an account by id.
func GetAccount(ctx context.Context, db *gorm.DB, id string) (*domain.Account, error) {
	var a domain.Account
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAccountByEmail fetches an account by (case-insensitive) email.
func GetAccountByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Account, error) {
	var a domain.Account
	err := db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAccounts returns every account ordered by name.
func ListAccounts(ctx context.Context, db *gorm.DB) ([]domain.Account, error) {
	var out []domain.Account
	err := db.WithContext(ctx).Order("name asc, id asc").Find(&out).Error
	return out, err
}

// CreateSession records an issued token id for accountID.
func CreateSession(ctx context.Context, db *gorm.DB, id, accountID string, expiresAt time.Time) error {
	s := &domain.Session{
		ID:        id,
		AccountID: accountID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt.UTC(),
	}
	return mapWriteErr(db.WithContext(ctx).Create(s).Error)
}

// GetSession returns a session that has not expired at now, or ErrNotFound.
func GetSession(ctx context.Context, db *gorm.DB, id string, now time.Time) (*domain.Session, error) {
	var s domain.Session
	err := db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, now.UTC()).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSession removes a session. Deleting a missing session is not an
// error.
func DeleteSession(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Session{}).Error
}

// DeleteExpiredSessions purges sessions that expired before now and
// returns how many rows were removed.
func DeleteExpiredSessions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&domain.Session{})
	return res.RowsAffected, res.Error
}
