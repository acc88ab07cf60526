package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// PaymentRepository persists payments and activates the enrollments they pay for.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByExternalID(ctx context.Context, externalID string, userID uint) (models.Payment, error)
	Complete(ctx context.Context, paymentID, userID uint, at time.Time) ([]uint, bool, error)
	MarkFailed(ctx context.Context, paymentID uint, at time.Time) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Payment, error)
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]models.Payment, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository constructs the payment repository.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := payment.Items
		if err := tx.Omit(clause.Associations).Create(payment).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].PaymentID = payment.ID
		}
		if len(items) > 0 {
			if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
				return err
			}
		}
		payment.Items = items
		return nil
	})
}

func (r *paymentRepository) GetByExternalID(ctx context.Context, externalID string, userID uint) (models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Course").
		Where("external_id = ? AND user_id = ?", externalID, userID).
		First(&payment).Error
	if err != nil {
		return models.Payment{}, err
	}
	return payment, nil
}

// Complete marks the payment completed and upserts one active, paid enrollment per
// covered course, all in one transaction. Re-running it for a completed payment
// converges on the same state. The bool reports whether this call moved the payment
// out of pending; only that caller should fire side effects.
func (r *paymentRepository) Complete(ctx context.Context, paymentID, userID uint, at time.Time) ([]uint, bool, error) {
	var (
		courseIDs    []uint
		transitioned bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Payment{}).
			Where("id = ? AND user_id = ? AND status = ?", paymentID, userID, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":       models.PaymentStatusCompleted,
				"completed_at": at,
				"updated_at":   at,
			})
		if result.Error != nil {
			return result.Error
		}
		transitioned = result.RowsAffected > 0

		if !transitioned {
			var completed int64
			if err := tx.Model(&models.Payment{}).
				Where("id = ? AND user_id = ? AND status = ?", paymentID, userID, models.PaymentStatusCompleted).
				Count(&completed).Error; err != nil {
				return err
			}
			if completed == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		if err := tx.Model(&models.PaymentItem{}).
			Where("payment_id = ?", paymentID).
			Order("id ASC").
			Pluck("course_id", &courseIDs).Error; err != nil {
			return err
		}
		if len(courseIDs) == 0 {
			return nil
		}

		pid := paymentID
		enrollments := make([]models.Enrollment, 0, len(courseIDs))
		for _, courseID := range courseIDs {
			enrollments = append(enrollments, models.Enrollment{
				UserID:         userID,
				CourseID:       courseID,
				Status:         models.EnrollmentStatusActive,
				EnrollmentType: models.EnrollmentTypePaid,
				PaymentID:      &pid,
				EnrolledAt:     at,
			})
		}

		return tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"status":          models.EnrollmentStatusActive,
					"enrollment_type": models.EnrollmentTypePaid,
					"payment_id":      paymentID,
					"updated_at":      at,
				}),
			}).
			Create(&enrollments).Error
	})
	if err != nil {
		return nil, false, err
	}
	return courseIDs, transitioned, nil
}

// MarkFailed moves a pending payment to failed. It reports false when the payment
// was no longer pending.
func (r *paymentRepository) MarkFailed(ctx context.Context, paymentID uint, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", paymentID, models.PaymentStatusPending).
		Updates(map[string]interface{}{"status": models.PaymentStatusFailed, "updated_at": at})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *paymentRepository) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", models.PaymentStatusPending, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
