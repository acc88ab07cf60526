package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/models"
)

func TestCourseRepositoryListFiltersAndSorts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	instructor := seedUser(t, db, "teach@example.com", models.RoleInstructor)
	cheap := seedCourse(t, db, instructor.ID, "Go Fundamentals", 10)
	pricey := seedCourse(t, db, instructor.ID, "Advanced Go Concurrency", 90)
	draft := seedCourse(t, db, instructor.ID, "Unreleased Go", 20)
	require.NoError(t, db.Model(&models.Course{}).Where("id = ?", draft.ID).Update("status", models.CourseStatusDraft).Error)
	require.NoError(t, db.Model(&models.Course{}).Where("id = ?", pricey.ID).Update("rating", 4.8).Error)

	courses, total, err := repo.List(ctx, CourseFilter{Status: models.CourseStatusPublished, SortBy: SortPriceLow})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Equal(t, cheap.ID, courses[0].ID)
	require.Equal(t, instructor.Email, courses[0].Instructor.Email)

	courses, _, err = repo.List(ctx, CourseFilter{Status: models.CourseStatusPublished, SortBy: SortRating})
	require.NoError(t, err)
	require.Equal(t, pricey.ID, courses[0].ID)

	minPrice := 50.0
	courses, total, err = repo.List(ctx, CourseFilter{Status: models.CourseStatusPublished, MinPrice: &minPrice})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, pricey.ID, courses[0].ID)

	courses, total, err = repo.List(ctx, CourseFilter{Status: models.CourseStatusPublished, Search: "concurrency", SortBy: SortRelevance})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, pricey.ID, courses[0].ID)
}

func TestCourseRepositoryCurriculumOrderingAndLocate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	instructor := seedUser(t, db, "teach@example.com", models.RoleInstructor)
	course := seedCourse(t, db, instructor.ID, "Go", 0)

	second := models.CourseModule{CourseID: course.ID, Title: "Second"}
	require.NoError(t, repo.CreateModule(ctx, &second))
	require.Equal(t, 1, second.OrderIndex)
	third := models.CourseModule{CourseID: course.ID, Title: "Third"}
	require.NoError(t, repo.CreateModule(ctx, &third))
	require.Equal(t, 2, third.OrderIndex)

	late := models.CourseLesson{ModuleID: third.ID, Title: "Late", LessonType: models.LessonTypeText}
	require.NoError(t, repo.CreateLesson(ctx, &late))
	early := models.CourseLesson{ModuleID: second.ID, Title: "Early", LessonType: models.LessonTypeVideo, IsFree: true}
	require.NoError(t, repo.CreateLesson(ctx, &early))
	earlyTwo := models.CourseLesson{ModuleID: second.ID, Title: "Early two", LessonType: models.LessonTypeVideo}
	require.NoError(t, repo.CreateLesson(ctx, &earlyTwo))
	require.Equal(t, 2, earlyTwo.OrderIndex)

	lessons, err := repo.OrderedLessons(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, lessons, 3)
	require.Equal(t, []string{"Early", "Early two", "Late"}, []string{lessons[0].Title, lessons[1].Title, lessons[2].Title})

	full, err := repo.GetWithCurriculum(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, full.Modules, 2)
	require.Equal(t, "Second", full.Modules[0].Title)
	require.Len(t, full.Modules[0].Lessons, 2)

	location, err := repo.LocateLesson(ctx, early.ID)
	require.NoError(t, err)
	require.Equal(t, course.ID, location.CourseID)
	require.True(t, location.IsFree)

	_, err = repo.LocateLesson(ctx, 9999)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCourseRepositoryCategoriesAndSuggestions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	instructor := seedUser(t, db, "gopher@example.com", models.RoleInstructor)
	student := seedUser(t, db, "learn@example.com", models.RoleStudent)
	course := seedCourse(t, db, instructor.ID, "Go Web Services", 25)
	design := seedCourse(t, db, instructor.ID, "Design Systems", 15)
	require.NoError(t, db.Model(&models.Course{}).Where("id = ?", design.ID).Update("category", "Design").Error)
	require.NoError(t, db.Create(&models.Enrollment{UserID: student.ID, CourseID: course.ID, Status: models.EnrollmentStatusActive, EnrollmentType: models.EnrollmentTypePaid, EnrolledAt: time.Now()}).Error)

	categories, err := repo.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 2)

	popular, err := repo.PopularCategories(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, "Programming", popular[0].Category)
	require.Equal(t, int64(1), popular[0].Enrollments)

	suggestions, err := repo.Suggestions(ctx, "go", 5)
	require.NoError(t, err)
	require.Contains(t, suggestions.Courses, "Go Web Services")
	require.Len(t, suggestions.Instructors, 1)
}
