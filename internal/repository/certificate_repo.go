package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// CertificateRepository persists issued certificates.
type CertificateRepository interface {
	CreateIfAbsent(ctx context.Context, certificate *models.Certificate) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Certificate, error)
	GetForUser(ctx context.Context, id, userID uint) (models.Certificate, error)
	GetByNumber(ctx context.Context, number string) (models.Certificate, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
}

type certificateRepository struct {
	db *gorm.DB
}

// NewCertificateRepository constructs the certificate repository.
func NewCertificateRepository(db *gorm.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

// CreateIfAbsent inserts the certificate unless one already exists for the (user, course)
// pair. Concurrent callers race on the unique index and exactly one of them inserts.
func (r *certificateRepository) CreateIfAbsent(ctx context.Context, certificate *models.Certificate) (bool, error) {
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(certificate)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *certificateRepository) ListByUser(ctx context.Context, userID uint) ([]models.Certificate, error) {
	var certificates []models.Certificate
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Instructor").
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&certificates).Error
	if err != nil {
		return nil, err
	}
	return certificates, nil
}

func (r *certificateRepository) GetForUser(ctx context.Context, id, userID uint) (models.Certificate, error) {
	var certificate models.Certificate
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Instructor").
		Preload("User").
		Where("id = ? AND user_id = ?", id, userID).
		First(&certificate).Error
	if err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (r *certificateRepository) GetByNumber(ctx context.Context, number string) (models.Certificate, error) {
	var certificate models.Certificate
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Instructor").
		Preload("User").
		Where("certificate_number = ?", number).
		First(&certificate).Error
	if err != nil {
		return models.Certificate{}, err
	}
	return certificate, nil
}

func (r *certificateRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Certificate{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
