package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// UserFilter narrows the admin user listing.
type UserFilter struct {
	Role   string
	Search string
	Limit  int
	Offset int
}

// UserWithStats pairs a user with their enrollment count.
type UserWithStats struct {
	models.User
	EnrollmentCount int64
}

// UserRepository persists accounts and profiles.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	UpdateProfile(ctx context.Context, userID uint, userUpdates map[string]interface{}, profile models.UserProfile, profileColumns []string) (models.User, error)
	List(ctx context.Context, filter UserFilter) ([]UserWithStats, int64, error)
	UpdateStatus(ctx context.Context, id uint, active bool) error
	CountOwnedCourses(ctx context.Context, id uint) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a repository backed by GORM.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Preload("Profile").First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at).Error
}

func (r *userRepository) UpdateProfile(ctx context.Context, userID uint, userUpdates map[string]interface{}, profile models.UserProfile, profileColumns []string) (models.User, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(userUpdates) > 0 {
			result := tx.Model(&models.User{}).Where("id = ?", userID).Updates(userUpdates)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}

		if len(profileColumns) == 0 {
			return nil
		}

		profile.UserID = userID
		columns := append([]string{"updated_at"}, profileColumns...)
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).Create(&profile).Error
	})
	if err != nil {
		return models.User{}, err
	}

	return r.GetByID(ctx, userID)
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]UserWithStats, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if role := strings.TrimSpace(filter.Role); role != "" {
		query = query.Where("role = ?", role)
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)

	var users []models.User
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, 0, err
	}

	counts := make(map[uint]int64, len(users))
	if len(users) > 0 {
		ids := make([]uint, 0, len(users))
		for _, user := range users {
			ids = append(ids, user.ID)
		}

		var rows []struct {
			UserID uint
			Total  int64
		}
		if err := r.db.WithContext(ctx).
			Model(&models.Enrollment{}).
			Select("user_id, COUNT(*) AS total").
			Where("user_id IN ?", ids).
			Group("user_id").
			Scan(&rows).Error; err != nil {
			return nil, 0, err
		}
		for _, row := range rows {
			counts[row.UserID] = row.Total
		}
	}

	result := make([]UserWithStats, 0, len(users))
	for _, user := range users {
		result = append(result, UserWithStats{User: user, EnrollmentCount: counts[user.ID]})
	}

	return result, total, nil
}

func (r *userRepository) UpdateStatus(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": active, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) CountOwnedCourses(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Course{}).Where("instructor_id = ?", id).Count(&count).Error
	return count, err
}

// Delete removes the user and every learner record that belongs to them. Ratings of
// courses the user reviewed are recomputed in the same transaction.
func (r *userRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reviewedCourses []uint
		if err := tx.Model(&models.Review{}).Where("user_id = ?", id).Pluck("course_id", &reviewedCourses).Error; err != nil {
			return err
		}

		reviewIDs := tx.Model(&models.Review{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("user_id = ? OR review_id IN (?)", id, reviewIDs).Delete(&models.ReviewHelpful{}).Error; err != nil {
			return err
		}

		paymentIDs := tx.Model(&models.Payment{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("payment_id IN (?)", paymentIDs).Delete(&models.PaymentItem{}).Error; err != nil {
			return err
		}

		owned := []interface{}{
			&models.Review{},
			&models.UserSession{},
			&models.UserProfile{},
			&models.LessonNote{},
			&models.LessonProgress{},
			&models.Certificate{},
			&models.Enrollment{},
			&models.Payment{},
			&models.Notification{},
		}
		for _, model := range owned {
			if err := tx.Where("user_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		for _, courseID := range reviewedCourses {
			if err := recomputeCourseRating(tx, courseID); err != nil {
				return err
			}
		}

		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
