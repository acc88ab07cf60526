package dto

import (
	"time"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// CourseListRequest filters the public catalog.
type CourseListRequest struct {
	Category string `query:"category" validate:"omitempty,max=100"`
	Level    string `query:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Search   string `query:"search" validate:"omitempty,max=200"`
	SortBy   string `query:"sort_by" validate:"omitempty,oneof=popular newest price_low price_high rating"`
	Limit    int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset   int    `query:"offset" validate:"omitempty,min=0"`
}

// CourseSearchRequest is the full-text catalog search.
type CourseSearchRequest struct {
	Query    string   `query:"q" validate:"omitempty,max=200"`
	Category string   `query:"category" validate:"omitempty,max=100"`
	Level    string   `query:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	MinPrice *float64 `query:"min_price" validate:"omitempty,gte=0"`
	MaxPrice *float64 `query:"max_price" validate:"omitempty,gte=0"`
	Rating   *float64 `query:"rating" validate:"omitempty,gte=0,lte=5"`
	SortBy   string   `query:"sort_by" validate:"omitempty,oneof=relevance price_low price_high rating popular newest"`
	Limit    int      `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset   int      `query:"offset" validate:"omitempty,min=0"`
}

// CourseCreateRequest creates a draft course owned by the caller.
type CourseCreateRequest struct {
	Title            string   `json:"title" validate:"required,min=3,max=255"`
	Description      string   `json:"description" validate:"required,min=10,max=20000"`
	ShortDescription string   `json:"short_description" validate:"omitempty,max=500"`
	Category         string   `json:"category" validate:"required,min=2,max=100"`
	Level            string   `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	Price            float64  `json:"price" validate:"gte=0,lte=10000"`
	Currency         string   `json:"currency" validate:"omitempty,len=3"`
	DurationHours    float64  `json:"duration_hours" validate:"gte=0,lte=1000"`
	LearningOutcomes []string `json:"learning_outcomes" validate:"omitempty,max=20,dive,min=1,max=300"`
	Requirements     []string `json:"requirements" validate:"omitempty,max=20,dive,min=1,max=300"`
}

// CourseUpdateRequest applies a partial update.
type CourseUpdateRequest struct {
	Title            *string  `json:"title" validate:"omitempty,min=3,max=255"`
	Description      *string  `json:"description" validate:"omitempty,min=10,max=20000"`
	ShortDescription *string  `json:"short_description" validate:"omitempty,max=500"`
	Category         *string  `json:"category" validate:"omitempty,min=2,max=100"`
	Level            *string  `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price            *float64 `json:"price" validate:"omitempty,gte=0,lte=10000"`
	DurationHours    *float64 `json:"duration_hours" validate:"omitempty,gte=0,lte=1000"`
	LearningOutcomes []string `json:"learning_outcomes" validate:"omitempty,max=20,dive,min=1,max=300"`
	Requirements     []string `json:"requirements" validate:"omitempty,max=20,dive,min=1,max=300"`
}

// CourseStatusRequest moves a course through draft, published and archived.
type CourseStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft published archived"`
}

// ModuleCreateRequest appends a module to a course.
type ModuleCreateRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=255"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	OrderIndex  *int   `json:"order_index" validate:"omitempty,gte=0"`
}

// LessonCreateRequest appends a lesson to a module.
type LessonCreateRequest struct {
	Title           string `json:"title" validate:"required,min=1,max=255"`
	Description     string `json:"description" validate:"omitempty,max=5000"`
	LessonType      string `json:"lesson_type" validate:"required,oneof=video text quiz assignment resource"`
	ContentURL      string `json:"content_url" validate:"omitempty,url,max=512"`
	Content         string `json:"content" validate:"omitempty,max=100000"`
	DurationMinutes int    `json:"duration_minutes" validate:"gte=0,lte=1440"`
	OrderIndex      *int   `json:"order_index" validate:"omitempty,gte=0"`
	IsFree          bool   `json:"is_free"`
}

// InstructorSummary is the short instructor view embedded in course responses.
type InstructorSummary struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CourseSummary is the catalog card view of a course.
type CourseSummary struct {
	ID               uint              `json:"id"`
	Title            string            `json:"title"`
	ShortDescription string            `json:"short_description"`
	Category         string            `json:"category"`
	Level            string            `json:"level"`
	Price            float64           `json:"price"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status"`
	ImageURL         string            `json:"image_url"`
	DurationHours    float64           `json:"duration_hours"`
	Rating           float64           `json:"rating"`
	ReviewsCount     int64             `json:"reviews_count"`
	Instructor       InstructorSummary `json:"instructor"`
	PublishedAt      *time.Time        `json:"published_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// LessonSummary lists a lesson inside the curriculum.
type LessonSummary struct {
	ID              uint   `json:"id"`
	ModuleID        uint   `json:"module_id"`
	Title           string `json:"title"`
	LessonType      string `json:"lesson_type"`
	DurationMinutes int    `json:"duration_minutes"`
	OrderIndex      int    `json:"order_index"`
	IsFree          bool   `json:"is_free"`
}

// ModuleResponse is a module with its ordered lessons.
type ModuleResponse struct {
	ID          uint            `json:"id"`
	CourseID    uint            `json:"course_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	OrderIndex  int             `json:"order_index"`
	Lessons     []LessonSummary `json:"lessons"`
}

// CourseDetailResponse is the full course page.
type CourseDetailResponse struct {
	CourseSummary
	Description      string                    `json:"description"`
	LearningOutcomes []string                  `json:"learning_outcomes"`
	Requirements     []string                  `json:"requirements"`
	TotalLessons     int                       `json:"total_lessons"`
	Modules          []ModuleResponse          `json:"modules"`
	Enrollment       *EnrollmentStatusResponse `json:"enrollment,omitempty"`
}

// LessonDetailResponse is a lesson with the caller's progress and notes.
type LessonDetailResponse struct {
	LessonSummary
	CourseID    uint                    `json:"course_id"`
	CourseTitle string                  `json:"course_title"`
	Description string                  `json:"description"`
	ContentURL  string                  `json:"content_url"`
	Content     string                  `json:"content"`
	Progress    *LessonProgressResponse `json:"progress,omitempty"`
	Notes       []NoteResponse          `json:"notes"`
}

// LessonNavigationResponse points at neighbours in the course's global lesson order.
type LessonNavigationResponse struct {
	CourseID uint           `json:"course_id"`
	Position int            `json:"position"`
	Total    int            `json:"total"`
	Previous *LessonSummary `json:"previous"`
	Next     *LessonSummary `json:"next"`
}

// CategoryCoursesRequest pages through one category.
type CategoryCoursesRequest struct {
	SortBy string `query:"sort_by" validate:"omitempty,oneof=popular newest price_low price_high rating"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `query:"offset" validate:"omitempty,min=0"`
}

// CategoryResponse summarises the published catalog in one category.
type CategoryResponse struct {
	Name          string  `json:"name"`
	CourseCount   int64   `json:"course_count"`
	AverageRating float64 `json:"average_rating"`
	MinPrice      float64 `json:"min_price"`
	MaxPrice      float64 `json:"max_price"`
}

// SuggestionsRequest is the autocomplete query.
type SuggestionsRequest struct {
	Query string `query:"q" validate:"required,min=2,max=100"`
}

// InstructorSuggestion is an instructor matching an autocomplete query.
type InstructorSuggestion struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// SuggestionsResponse groups autocomplete matches.
type SuggestionsResponse struct {
	Courses     []string               `json:"courses"`
	Instructors []InstructorSuggestion `json:"instructors"`
	Categories  []string               `json:"categories"`
}

// PopularCategoryResponse ranks a category by enrollments.
type PopularCategoryResponse struct {
	Name        string `json:"name"`
	Enrollments int64  `json:"enrollments"`
}

// PopularResponse lists trending categories and courses.
type PopularResponse struct {
	Categories []PopularCategoryResponse `json:"categories"`
	Courses    []CourseSummary           `json:"courses"`
}

// NewInstructorSummary converts the instructor of a course.
func NewInstructorSummary(user models.User) InstructorSummary {
	return InstructorSummary{ID: user.ID, FirstName: user.FirstName, LastName: user.LastName}
}

// NewCourseSummary converts a course model.
func NewCourseSummary(course models.Course) CourseSummary {
	return CourseSummary{
		ID:               course.ID,
		Title:            course.Title,
		ShortDescription: course.ShortDescription,
		Category:         course.Category,
		Level:            course.Level,
		Price:            course.Price,
		Currency:         course.Currency,
		Status:           course.Status,
		ImageURL:         course.ImageURL,
		DurationHours:    course.DurationHours,
		Rating:           course.Rating,
		ReviewsCount:     course.ReviewsCount,
		Instructor:       NewInstructorSummary(course.Instructor),
		PublishedAt:      course.PublishedAt,
		CreatedAt:        course.CreatedAt,
	}
}

// NewCourseSummaries converts a slice of course models.
func NewCourseSummaries(courses []models.Course) []CourseSummary {
	out := make([]CourseSummary, 0, len(courses))
	for _, course := range courses {
		out = append(out, NewCourseSummary(course))
	}
	return out
}

// NewLessonSummary converts a lesson model.
func NewLessonSummary(lesson models.CourseLesson) LessonSummary {
	return LessonSummary{
		ID:              lesson.ID,
		ModuleID:        lesson.ModuleID,
		Title:           lesson.Title,
		LessonType:      lesson.LessonType,
		DurationMinutes: lesson.DurationMinutes,
		OrderIndex:      lesson.OrderIndex,
		IsFree:          lesson.IsFree,
	}
}

// NewModuleResponse converts a module with its preloaded lessons.
func NewModuleResponse(module models.CourseModule) ModuleResponse {
	lessons := make([]LessonSummary, 0, len(module.Lessons))
	for _, lesson := range module.Lessons {
		lessons = append(lessons, NewLessonSummary(lesson))
	}
	return ModuleResponse{
		ID:          module.ID,
		CourseID:    module.CourseID,
		Title:       module.Title,
		Description: module.Description,
		OrderIndex:  module.OrderIndex,
		Lessons:     lessons,
	}
}

// NewCourseDetailResponse converts a course loaded with its curriculum.
func NewCourseDetailResponse(course models.Course) CourseDetailResponse {
	modules := make([]ModuleResponse, 0, len(course.Modules))
	total := 0
	for _, module := range course.Modules {
		modules = append(modules, NewModuleResponse(module))
		total += len(module.Lessons)
	}
	return CourseDetailResponse{
		CourseSummary:    NewCourseSummary(course),
		Description:      course.Description,
		LearningOutcomes: StringList(course.LearningOutcomes),
		Requirements:     StringList(course.Requirements),
		TotalLessons:     total,
		Modules:          modules,
	}
}

// CourseImageResponse describes a stored course cover image.
type CourseImageResponse struct {
	CourseID  uint   `json:"course_id"`
	ImageURL  string `json:"image_url"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}
