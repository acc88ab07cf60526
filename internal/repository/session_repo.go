package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// SessionRepository stores issued access tokens by hash.
type SessionRepository interface {
	Create(ctx context.Context, session *models.UserSession) error
	FindActive(ctx context.Context, tokenHash string, now time.Time) (models.UserSession, error)
	DeleteByHash(ctx context.Context, tokenHash string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository constructs the session repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, session *models.UserSession) error {
	return r.db.WithContext(ctx).Omit("User").Create(session).Error
}

// FindActive returns the unexpired session for the hash, provided its user is still active.
func (r *sessionRepository) FindActive(ctx context.Context, tokenHash string, now time.Time) (models.UserSession, error) {
	var session models.UserSession
	err := r.db.WithContext(ctx).
		Select("user_sessions.*").
		Joins("JOIN users ON users.id = user_sessions.user_id").
		Where("user_sessions.token_hash = ?", tokenHash).
		Where("user_sessions.expires_at > ?", now).
		Where("users.is_active = ?", true).
		Preload("User").
		First(&session).Error
	if err != nil {
		return models.UserSession{}, err
	}
	return session, nil
}

func (r *sessionRepository) DeleteByHash(ctx context.Context, tokenHash string) error {
	return r.db.WithContext(ctx).Where("token_hash = ?", tokenHash).Delete(&models.UserSession{}).Error
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.UserSession{})
	return result.RowsAffected, result.Error
}
