package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// RecentCompletion is a completed lesson with its course, newest first.
type RecentCompletion struct {
	LessonID    uint
	LessonTitle string
	CourseID    uint
	CourseTitle string
	CompletedAt *time.Time
}

// ProgressRepository persists lesson progress and notes.
type ProgressRepository interface {
	Record(ctx context.Context, entry models.LessonProgress) (models.LessonProgress, models.ProgressCounts, error)
	Get(ctx context.Context, userID, lessonID uint) (models.LessonProgress, error)
	CourseCounts(ctx context.Context, userID, courseID uint) (models.ProgressCounts, error)
	CountsForCourses(ctx context.Context, userID uint, courseIDs []uint) (map[uint]models.ProgressCounts, error)
	CourseRows(ctx context.Context, userID, courseID uint) ([]models.LessonProgressRow, error)
	ListByUser(ctx context.Context, userID uint) ([]models.LessonProgress, error)
	RecentCompletions(ctx context.Context, userID uint, limit int) ([]RecentCompletion, error)
	CreateNote(ctx context.Context, note *models.LessonNote) error
	ListNotes(ctx context.Context, userID, lessonID uint) ([]models.LessonNote, error)
	DeleteNote(ctx context.Context, id, userID uint) error
}

type progressRepository struct {
	db *gorm.DB
}

// NewProgressRepository constructs the progress repository.
func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

// Record upserts the (user, course, lesson) row and returns it together with the
// course tally, all inside one transaction. Time spent is added to the stored
// value; completion is sticky and completed_at keeps the first completion time.
func (r *progressRepository) Record(ctx context.Context, entry models.LessonProgress) (models.LessonProgress, models.ProgressCounts, error) {
	var (
		stored models.LessonProgress
		counts models.ProgressCounts
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := entry
		row.ID = 0
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}, {Name: "lesson_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"time_spent":   gorm.Expr("lesson_progress.time_spent + excluded.time_spent"),
				"completed":    gorm.Expr("lesson_progress.completed OR excluded.completed"),
				"completed_at": gorm.Expr("COALESCE(lesson_progress.completed_at, excluded.completed_at)"),
				"updated_at":   gorm.Expr("excluded.updated_at"),
			}),
		}).Create(&row).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ? AND course_id = ? AND lesson_id = ?", entry.UserID, entry.CourseID, entry.LessonID).
			First(&stored).Error; err != nil {
			return err
		}

		var err error
		counts, err = courseCounts(tx, entry.UserID, entry.CourseID)
		return err
	})
	if err != nil {
		return models.LessonProgress{}, models.ProgressCounts{}, err
	}

	return stored, counts, nil
}

func (r *progressRepository) Get(ctx context.Context, userID, lessonID uint) (models.LessonProgress, error) {
	var progress models.LessonProgress
	if err := r.db.WithContext(ctx).Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&progress).Error; err != nil {
		return models.LessonProgress{}, err
	}
	return progress, nil
}

func (r *progressRepository) CourseCounts(ctx context.Context, userID, courseID uint) (models.ProgressCounts, error) {
	return courseCounts(r.db.WithContext(ctx), userID, courseID)
}

// courseCounts derives the tally from the course's lesson set left-joined with the
// user's rows; a lesson with no row counts as incomplete.
func courseCounts(db *gorm.DB, userID, courseID uint) (models.ProgressCounts, error) {
	counts := models.ProgressCounts{CourseID: courseID}
	err := db.Table("course_lessons AS l").
		Select("COUNT(l.id) AS total, COALESCE(SUM(CASE WHEN p.completed THEN 1 ELSE 0 END), 0) AS completed").
		Joins("JOIN course_modules m ON m.id = l.module_id").
		Joins("LEFT JOIN lesson_progress p ON p.lesson_id = l.id AND p.course_id = m.course_id AND p.user_id = ?", userID).
		Where("m.course_id = ?", courseID).
		Scan(&counts).Error
	if err != nil {
		return models.ProgressCounts{}, err
	}
	counts.CourseID = courseID
	return counts, nil
}

func (r *progressRepository) CountsForCourses(ctx context.Context, userID uint, courseIDs []uint) (map[uint]models.ProgressCounts, error) {
	result := make(map[uint]models.ProgressCounts, len(courseIDs))
	if len(courseIDs) == 0 {
		return result, nil
	}

	var rows []models.ProgressCounts
	err := r.db.WithContext(ctx).
		Table("course_lessons AS l").
		Select("m.course_id AS course_id, COUNT(l.id) AS total, COALESCE(SUM(CASE WHEN p.completed THEN 1 ELSE 0 END), 0) AS completed").
		Joins("JOIN course_modules m ON m.id = l.module_id").
		Joins("LEFT JOIN lesson_progress p ON p.lesson_id = l.id AND p.course_id = m.course_id AND p.user_id = ?", userID).
		Where("m.course_id IN ?", courseIDs).
		Group("m.course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, id := range courseIDs {
		result[id] = models.ProgressCounts{CourseID: id}
	}
	for _, row := range rows {
		result[row.CourseID] = row
	}
	return result, nil
}

func (r *progressRepository) CourseRows(ctx context.Context, userID, courseID uint) ([]models.LessonProgressRow, error) {
	var rows []models.LessonProgressRow
	err := r.db.WithContext(ctx).
		Table("course_lessons AS l").
		Select(`l.id AS lesson_id, l.title AS lesson_title, l.lesson_type AS lesson_type,
			m.id AS module_id, m.title AS module_title, m.order_index AS module_order,
			l.order_index AS lesson_order, l.duration_minutes AS duration_minutes,
			COALESCE(p.completed, ?) AS completed, COALESCE(p.time_spent, 0) AS time_spent,
			p.completed_at AS completed_at, p.updated_at AS progress_updated_at`, false).
		Joins("JOIN course_modules m ON m.id = l.module_id").
		Joins("LEFT JOIN lesson_progress p ON p.lesson_id = l.id AND p.course_id = m.course_id AND p.user_id = ?", userID).
		Where("m.course_id = ?", courseID).
		Order("m.order_index ASC").
		Order("m.id ASC").
		Order("l.order_index ASC").
		Order("l.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *progressRepository) ListByUser(ctx context.Context, userID uint) ([]models.LessonProgress, error) {
	var rows []models.LessonProgress
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *progressRepository) RecentCompletions(ctx context.Context, userID uint, limit int) ([]RecentCompletion, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var items []RecentCompletion
	err := r.db.WithContext(ctx).
		Table("lesson_progress AS p").
		Select("p.lesson_id AS lesson_id, l.title AS lesson_title, p.course_id AS course_id, c.title AS course_title, p.completed_at AS completed_at").
		Joins("JOIN course_lessons l ON l.id = p.lesson_id").
		Joins("JOIN courses c ON c.id = p.course_id").
		Where("p.user_id = ? AND p.completed = ?", userID, true).
		Order("p.completed_at DESC").
		Limit(limit).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *progressRepository) CreateNote(ctx context.Context, note *models.LessonNote) error {
	return r.db.WithContext(ctx).Create(note).Error
}

func (r *progressRepository) ListNotes(ctx context.Context, userID, lessonID uint) ([]models.LessonNote, error) {
	var notes []models.LessonNote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Order("timestamp_seconds ASC").
		Order("id ASC").
		Find(&notes).Error
	if err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *progressRepository) DeleteNote(ctx context.Context, id, userID uint) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.LessonNote{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
