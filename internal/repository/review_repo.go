package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/learnhub-api/internal/models"
)

const (
	ReviewSortNewest     = "newest"
	ReviewSortRatingHigh = "rating_high"
	ReviewSortRatingLow  = "rating_low"
	ReviewSortHelpful    = "helpful"
)

// ReviewStats summarises the ratings of one course.
type ReviewStats struct {
	AverageRating float64
	TotalReviews  int64
	Distribution  map[int]int64
}

// ReviewRepository persists reviews and keeps course rating aggregates in step with them.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) (bool, error)
	Update(ctx context.Context, id, userID uint, rating int, comment string) (models.Review, error)
	Delete(ctx context.Context, id, userID uint) (uint, error)
	GetByID(ctx context.Context, id uint) (models.Review, error)
	ListByCourse(ctx context.Context, courseID uint, sortBy string, limit, offset int) ([]models.Review, int64, error)
	Stats(ctx context.Context, courseID uint) (ReviewStats, error)
	MarkHelpful(ctx context.Context, reviewID, userID uint) (bool, int64, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository constructs the review repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Create inserts the review unless the user already reviewed the course, then
// recomputes the course aggregate in the same transaction.
func (r *reviewRepository) Create(ctx context.Context, review *models.Review) (bool, error) {
	inserted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Omit(clause.Associations).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
				DoNothing: true,
			}).
			Create(review)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		inserted = true
		return recomputeCourseRating(tx, review.CourseID)
	})
	return inserted, err
}

func (r *reviewRepository) Update(ctx context.Context, id, userID uint, rating int, comment string) (models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&review).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{"updated_at": time.Now()}
		if rating > 0 {
			updates["rating"] = rating
		}
		if comment != "" {
			updates["comment"] = comment
		}
		if err := tx.Model(&models.Review{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		if err := recomputeCourseRating(tx, review.CourseID); err != nil {
			return err
		}

		return tx.Preload("User").First(&review, id).Error
	})
	if err != nil {
		return models.Review{}, err
	}
	return review, nil
}

// Delete removes the user's own review and returns the course it belonged to.
func (r *reviewRepository) Delete(ctx context.Context, id, userID uint) (uint, error) {
	var courseID uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var review models.Review
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&review).Error; err != nil {
			return err
		}
		courseID = review.CourseID

		if err := tx.Where("review_id = ?", id).Delete(&models.ReviewHelpful{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Review{}, id).Error; err != nil {
			return err
		}
		return recomputeCourseRating(tx, courseID)
	})
	return courseID, err
}

func (r *reviewRepository) GetByID(ctx context.Context, id uint) (models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).Preload("User").First(&review, id).Error; err != nil {
		return models.Review{}, err
	}
	return review, nil
}

func (r *reviewRepository) ListByCourse(ctx context.Context, courseID uint, sortBy string, limit, offset int) ([]models.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{}).Where("course_id = ?", courseID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch sortBy {
	case ReviewSortRatingHigh:
		query = query.Order("rating DESC").Order("created_at DESC")
	case ReviewSortRatingLow:
		query = query.Order("rating ASC").Order("created_at DESC")
	case ReviewSortHelpful:
		query = query.Order("helpful_count DESC").Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}
	query = query.Order("id DESC")

	limit, offset = normalizePage(limit, offset)

	var reviews []models.Review
	if err := query.Preload("User").Offset(offset).Limit(limit).Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (r *reviewRepository) Stats(ctx context.Context, courseID uint) (ReviewStats, error) {
	var rows []struct {
		Rating int
		Total  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("rating, COUNT(*) AS total").
		Where("course_id = ?", courseID).
		Group("rating").
		Scan(&rows).Error
	if err != nil {
		return ReviewStats{}, err
	}

	stats := ReviewStats{Distribution: map[int]int64{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	var sum int64
	for _, row := range rows {
		stats.Distribution[row.Rating] = row.Total
		stats.TotalReviews += row.Total
		sum += int64(row.Rating) * row.Total
	}
	if stats.TotalReviews > 0 {
		stats.AverageRating = float64(sum) / float64(stats.TotalReviews)
	}
	return stats, nil
}

// MarkHelpful records the helpful mark once per (review, user) and recomputes the
// review's helpful count from the marks.
func (r *reviewRepository) MarkHelpful(ctx context.Context, reviewID, userID uint) (bool, int64, error) {
	var (
		inserted bool
		count    int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mark := models.ReviewHelpful{ReviewID: reviewID, UserID: userID}
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "review_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).Create(&mark)
		if result.Error != nil {
			return result.Error
		}
		inserted = result.RowsAffected > 0

		if err := tx.Model(&models.ReviewHelpful{}).Where("review_id = ?", reviewID).Count(&count).Error; err != nil {
			return err
		}
		return tx.Model(&models.Review{}).Where("id = ?", reviewID).UpdateColumn("helpful_count", count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return inserted, count, nil
}

// recomputeCourseRating rewrites the course's rating and review count as a full
// aggregate over its reviews.
func recomputeCourseRating(tx *gorm.DB, courseID uint) error {
	return tx.Exec(`UPDATE courses SET
		rating = (SELECT COALESCE(AVG(r.rating), 0) FROM reviews r WHERE r.course_id = ?),
		reviews_count = (SELECT COUNT(*) FROM reviews r WHERE r.course_id = ?),
		updated_at = ?
		WHERE id = ?`, courseID, courseID, time.Now(), courseID).Error
}
