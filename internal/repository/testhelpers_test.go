package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/learnhub-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, role string) models.User {
	t.Helper()
	user := models.User{
		Email:        email,
		PasswordHash: "hash",
		FirstName:    strings.Split(email, "@")[0],
		LastName:     "Tester",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedCourse(t *testing.T, db *gorm.DB, instructorID uint, title string, price float64) models.Course {
	t.Helper()
	now := time.Now()
	course := models.Course{
		InstructorID: instructorID,
		Title:        title,
		Category:     "Programming",
		Level:        models.LevelBeginner,
		Price:        price,
		Currency:     "USD",
		Status:       models.CourseStatusPublished,
		PublishedAt:  &now,
	}
	require.NoError(t, db.Omit(clause.Associations).Create(&course).Error)
	return course
}

// seedCurriculum creates one module per entry with that many lessons and returns
// the lesson ids in course order.
func seedCurriculum(t *testing.T, db *gorm.DB, courseID uint, lessonsPerModule ...int) []uint {
	t.Helper()
	var ids []uint
	for m, count := range lessonsPerModule {
		module := models.CourseModule{CourseID: courseID, Title: fmt.Sprintf("Module %d", m+1), OrderIndex: m + 1}
		require.NoError(t, db.Omit(clause.Associations).Create(&module).Error)
		for l := 0; l < count; l++ {
			lesson := models.CourseLesson{
				ModuleID:        module.ID,
				Title:           fmt.Sprintf("Lesson %d.%d", m+1, l+1),
				LessonType:      models.LessonTypeVideo,
				DurationMinutes: 10,
				OrderIndex:      l + 1,
			}
			require.NoError(t, db.Create(&lesson).Error)
			ids = append(ids, lesson.ID)
		}
	}
	return ids
}
