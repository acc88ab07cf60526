package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/learnhub-api/internal/models"
)

const (
	SortRelevance = "relevance"
	SortNewest    = "newest"
	SortPriceLow  = "price_low"
	SortPriceHigh = "price_high"
	SortRating    = "rating"
	SortPopular   = "popular"
)

const popularityExpr = "(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = courses.id AND e.status IN ('active', 'completed'))"

// CourseFilter narrows catalog queries.
type CourseFilter struct {
	Status       string
	Category     string
	Level        string
	Search       string
	InstructorID *uint
	MinPrice     *float64
	MaxPrice     *float64
	MinRating    *float64
	SortBy       string
	Limit        int
	Offset       int
}

// CategoryStat aggregates the published catalog per category.
type CategoryStat struct {
	Category      string  `json:"category"`
	CourseCount   int64   `json:"course_count"`
	AverageRating float64 `json:"average_rating"`
	MinPrice      float64 `json:"min_price"`
	MaxPrice      float64 `json:"max_price"`
}

// PopularCategory ranks a category by the enrollments its courses hold.
type PopularCategory struct {
	Category    string `json:"category"`
	Enrollments int64  `json:"enrollments"`
}

// InstructorSuggestion is a lightweight instructor match for search suggestions.
type InstructorSuggestion struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SearchSuggestions groups autocomplete matches.
type SearchSuggestions struct {
	Courses     []string               `json:"courses"`
	Instructors []InstructorSuggestion `json:"instructors"`
	Categories  []string               `json:"categories"`
}

// CourseRepository persists the catalog: courses, modules and lessons.
type CourseRepository interface {
	List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error)
	GetByID(ctx context.Context, id uint) (models.Course, error)
	GetWithCurriculum(ctx context.Context, id uint) (models.Course, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Course, error)
	CreateModule(ctx context.Context, module *models.CourseModule) error
	GetModule(ctx context.Context, courseID, moduleID uint) (models.CourseModule, error)
	CreateLesson(ctx context.Context, lesson *models.CourseLesson) error
	GetLesson(ctx context.Context, id uint) (models.CourseLesson, error)
	LocateLesson(ctx context.Context, lessonID uint) (models.LessonLocation, error)
	OrderedLessons(ctx context.Context, courseID uint) ([]models.CourseLesson, error)
	Categories(ctx context.Context) ([]CategoryStat, error)
	PopularCategories(ctx context.Context, limit int) ([]PopularCategory, error)
	Suggestions(ctx context.Context, term string, limit int) (SearchSuggestions, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository constructs the catalog repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]models.Course, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Course{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
	}
	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}
	if filter.InstructorID != nil {
		query = query.Where("instructor_id = ?", *filter.InstructorID)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.MinRating != nil {
		query = query.Where("rating >= ?", *filter.MinRating)
	}

	pattern := ""
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		pattern = "%" + search + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(short_description) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := normalizePage(filter.Limit, filter.Offset)
	query = applyCourseSort(query, filter.SortBy, pattern)

	var courses []models.Course
	if err := query.Preload("Instructor").Offset(offset).Limit(limit).Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	return courses, total, nil
}

func applyCourseSort(query *gorm.DB, sortBy, pattern string) *gorm.DB {
	switch sortBy {
	case SortRelevance:
		if pattern == "" {
			return query.Order(popularityExpr + " DESC").Order("rating DESC").Order("id DESC")
		}
		// A single expression: gorm drops an OrderBy expression once plain columns are merged into it.
		return query.Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN LOWER(title) LIKE ? THEN 3 WHEN LOWER(short_description) LIKE ? THEN 2 WHEN LOWER(description) LIKE ? THEN 1 ELSE 0 END DESC, rating DESC, id DESC",
			Vars:               []interface{}{pattern, pattern, pattern},
			WithoutParentheses: true,
		}})
	case SortPriceLow:
		return query.Order("price ASC").Order("id ASC")
	case SortPriceHigh:
		return query.Order("price DESC").Order("id DESC")
	case SortRating:
		return query.Order("rating DESC").Order("reviews_count DESC").Order("id DESC")
	case SortPopular:
		return query.Order(popularityExpr + " DESC").Order("id DESC")
	default:
		return query.Order("created_at DESC").Order("id DESC")
	}
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Preload("Instructor").First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) GetWithCurriculum(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	err := r.db.WithContext(ctx).
		Preload("Instructor").
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Order("id ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC").Order("id ASC")
		}).
		First(&course, id).Error
	if err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *courseRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Course, error) {
	if len(ids) == 0 {
		return []models.Course{}, nil
	}
	var courses []models.Course
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Course, error) {
	result := r.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return models.Course{}, result.Error
	}
	if result.RowsAffected == 0 {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *courseRepository) CreateModule(ctx context.Context, module *models.CourseModule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if module.OrderIndex <= 0 {
			var next int
			if err := tx.Model(&models.CourseModule{}).
				Select("COALESCE(MAX(order_index), 0) + 1").
				Where("course_id = ?", module.CourseID).
				Scan(&next).Error; err != nil {
				return err
			}
			module.OrderIndex = next
		}
		return tx.Omit(clause.Associations).Create(module).Error
	})
}

func (r *courseRepository) GetModule(ctx context.Context, courseID, moduleID uint) (models.CourseModule, error) {
	var module models.CourseModule
	if err := r.db.WithContext(ctx).Where("id = ? AND course_id = ?", moduleID, courseID).First(&module).Error; err != nil {
		return models.CourseModule{}, err
	}
	return module, nil
}

func (r *courseRepository) CreateLesson(ctx context.Context, lesson *models.CourseLesson) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if lesson.OrderIndex <= 0 {
			var next int
			if err := tx.Model(&models.CourseLesson{}).
				Select("COALESCE(MAX(order_index), 0) + 1").
				Where("module_id = ?", lesson.ModuleID).
				Scan(&next).Error; err != nil {
				return err
			}
			lesson.OrderIndex = next
		}
		return tx.Create(lesson).Error
	})
}

func (r *courseRepository) GetLesson(ctx context.Context, id uint) (models.CourseLesson, error) {
	var lesson models.CourseLesson
	if err := r.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return models.CourseLesson{}, err
	}
	return lesson, nil
}

func (r *courseRepository) LocateLesson(ctx context.Context, lessonID uint) (models.LessonLocation, error) {
	var location models.LessonLocation
	err := r.db.WithContext(ctx).
		Table("course_lessons AS l").
		Select("l.id AS lesson_id, l.module_id AS module_id, m.course_id AS course_id, l.is_free AS is_free, c.title AS course_title").
		Joins("JOIN course_modules m ON m.id = l.module_id").
		Joins("JOIN courses c ON c.id = m.course_id").
		Where("l.id = ?", lessonID).
		Scan(&location).Error
	if err != nil {
		return models.LessonLocation{}, err
	}
	if location.LessonID == 0 {
		return models.LessonLocation{}, gorm.ErrRecordNotFound
	}
	return location, nil
}

// OrderedLessons lists a course's lessons in global order: module order first, then lesson order.
func (r *courseRepository) OrderedLessons(ctx context.Context, courseID uint) ([]models.CourseLesson, error) {
	var lessons []models.CourseLesson
	err := r.db.WithContext(ctx).
		Select("course_lessons.*").
		Joins("JOIN course_modules ON course_modules.id = course_lessons.module_id").
		Where("course_modules.course_id = ?", courseID).
		Order("course_modules.order_index ASC").
		Order("course_modules.id ASC").
		Order("course_lessons.order_index ASC").
		Order("course_lessons.id ASC").
		Find(&lessons).Error
	if err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *courseRepository) Categories(ctx context.Context) ([]CategoryStat, error) {
	var stats []CategoryStat
	err := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Select("category, COUNT(*) AS course_count, COALESCE(AVG(rating), 0) AS average_rating, COALESCE(MIN(price), 0) AS min_price, COALESCE(MAX(price), 0) AS max_price").
		Where("status = ?", models.CourseStatusPublished).
		Where("category <> ''").
		Group("category").
		Order("course_count DESC").
		Order("category ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *courseRepository) PopularCategories(ctx context.Context, limit int) ([]PopularCategory, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var categories []PopularCategory
	err := r.db.WithContext(ctx).
		Table("courses AS c").
		Select("c.category AS category, COUNT(e.id) AS enrollments").
		Joins("LEFT JOIN enrollments e ON e.course_id = c.id AND e.status IN ?", []string{models.EnrollmentStatusActive, models.EnrollmentStatusCompleted}).
		Where("c.status = ?", models.CourseStatusPublished).
		Where("c.category <> ''").
		Group("c.category").
		Order("enrollments DESC").
		Order("c.category ASC").
		Limit(limit).
		Scan(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *courseRepository) Suggestions(ctx context.Context, term string, limit int) (SearchSuggestions, error) {
	if limit <= 0 || limit > 20 {
		limit = 5
	}
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	suggestions := SearchSuggestions{
		Courses:     []string{},
		Instructors: []InstructorSuggestion{},
		Categories:  []string{},
	}

	if err := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Where("status = ?", models.CourseStatusPublished).
		Where("LOWER(title) LIKE ?", pattern).
		Order("rating DESC").
		Limit(limit).
		Pluck("title", &suggestions.Courses).Error; err != nil {
		return SearchSuggestions{}, err
	}

	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("id, first_name, last_name").
		Where("role = ? AND is_active = ?", models.RoleInstructor, true).
		Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", pattern, pattern).
		Limit(3).
		Scan(&suggestions.Instructors).Error; err != nil {
		return SearchSuggestions{}, err
	}

	if err := r.db.WithContext(ctx).
		Model(&models.Course{}).
		Distinct("category").
		Where("status = ?", models.CourseStatusPublished).
		Where("LOWER(category) LIKE ?", pattern).
		Limit(3).
		Pluck("category", &suggestions.Categories).Error; err != nil {
		return SearchSuggestions{}, err
	}

	return suggestions, nil
}
