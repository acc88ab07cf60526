package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/database"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.ConnectSQLite(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return utils.NewValidator()
}

func isValidation(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}

func ptrUint(v uint) *uint {
	return &v
}

func ptrInt(v int) *int {
	return &v
}

func ptrBool(v bool) *bool {
	return &v
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func createUser(t *testing.T, db *gorm.DB, email, role string) models.User {
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

func createCourse(t *testing.T, db *gorm.DB, instructorID uint, title string, price float64, status string) models.Course {
	t.Helper()
	course := models.Course{
		InstructorID:     instructorID,
		Title:            title,
		Description:      title + " description",
		ShortDescription: title,
		Category:         "programming",
		Level:            models.LevelBeginner,
		Price:            price,
		Currency:         "usd",
		Status:           status,
	}
	require.NoError(t, db.Omit("Instructor", "Modules").Create(&course).Error)
	return course
}

// createLessons adds one module holding n lessons and returns the lesson ids in order.
func createLessons(t *testing.T, db *gorm.DB, courseID uint, n int) []uint {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.CourseModule{}).Where("course_id = ?", courseID).Count(&count).Error)
	module := models.CourseModule{CourseID: courseID, Title: fmt.Sprintf("Module %d", count+1), OrderIndex: int(count)}
	require.NoError(t, db.Omit("Lessons").Create(&module).Error)

	ids := make([]uint, 0, n)
	for i := 0; i < n; i++ {
		lesson := models.CourseLesson{
			ModuleID:        module.ID,
			Title:           fmt.Sprintf("Lesson %d.%d", count+1, i+1),
			LessonType:      models.LessonTypeVideo,
			DurationMinutes: 10,
			OrderIndex:      i,
			IsFree:          i == 0,
		}
		require.NoError(t, db.Create(&lesson).Error)
		ids = append(ids, lesson.ID)
	}
	return ids
}

func createEnrollment(t *testing.T, db *gorm.DB, userID, courseID uint, status string) models.Enrollment {
	t.Helper()
	enrollment := models.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		Status:         status,
		EnrollmentType: models.EnrollmentTypeFree,
		EnrolledAt:     time.Now().UTC(),
	}
	require.NoError(t, db.Omit("Course").Create(&enrollment).Error)
	return enrollment
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, event string, _ map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// recordingNotifier captures notifications instead of persisting them.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []NotificationInput
}

func (n *recordingNotifier) Notify(_ context.Context, input NotificationInput) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, input)
	return nil
}

func (n *recordingNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, item := range n.sent {
		out = append(out, item.Type)
	}
	return out
}
