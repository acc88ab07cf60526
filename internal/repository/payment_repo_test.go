package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/models"
)

func TestPaymentRepositoryCompleteActivatesEnrollments(t *testing.T) {
	db := setupTestDB(t)
	payments := NewPaymentRepository(db)
	enrollments := NewEnrollmentRepository(db)
	ctx := context.Background()

	instructor := seedUser(t, db, "teach@example.com", models.RoleInstructor)
	student := seedUser(t, db, "learn@example.com", models.RoleStudent)
	goCourse := seedCourse(t, db, instructor.ID, "Go", 49)
	rustCourse := seedCourse(t, db, instructor.ID, "Rust", 59)

	pending := models.Enrollment{UserID: student.ID, CourseID: goCourse.ID, Status: models.EnrollmentStatusPending, EnrollmentType: models.EnrollmentTypePaid, EnrolledAt: time.Now()}
	_, err := enrollments.CreateIfAbsent(ctx, &pending)
	require.NoError(t, err)

	payment := models.Payment{
		UserID:     student.ID,
		ExternalID: "pi_test_1",
		Amount:     108,
		Currency:   "USD",
		Status:     models.PaymentStatusPending,
		Items: []models.PaymentItem{
			{CourseID: goCourse.ID, Amount: 49},
			{CourseID: rustCourse.ID, Amount: 59},
		},
	}
	require.NoError(t, payments.Create(ctx, &payment))
	require.NotZero(t, payment.ID)
	require.Len(t, payment.Items, 2)

	courseIDs, transitioned, err := payments.Complete(ctx, payment.ID, student.ID, time.Now())
	require.NoError(t, err)
	require.True(t, transitioned)
	require.ElementsMatch(t, []uint{goCourse.ID, rustCourse.ID}, courseIDs)

	for _, courseID := range courseIDs {
		enrollment, err := enrollments.Find(ctx, student.ID, courseID)
		require.NoError(t, err)
		require.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
		require.Equal(t, models.EnrollmentTypePaid, enrollment.EnrollmentType)
		require.NotNil(t, enrollment.PaymentID)
		require.Equal(t, payment.ID, *enrollment.PaymentID)
	}

	again, transitioned, err := payments.Complete(ctx, payment.ID, student.ID, time.Now())
	require.NoError(t, err, "completing twice converges")
	require.False(t, transitioned)
	require.ElementsMatch(t, courseIDs, again)

	var rows int64
	require.NoError(t, db.Model(&models.Enrollment{}).Where("user_id = ?", student.ID).Count(&rows).Error)
	require.Equal(t, int64(2), rows)

	stored, err := payments.GetByExternalID(ctx, "pi_test_1", student.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCompleted, stored.Status)
	require.NotNil(t, stored.CompletedAt)

	_, err = payments.GetByExternalID(ctx, "pi_test_1", instructor.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPaymentRepositoryFailedPaymentCannotComplete(t *testing.T) {
	db := setupTestDB(t)
	payments := NewPaymentRepository(db)
	ctx := context.Background()

	instructor := seedUser(t, db, "teach@example.com", models.RoleInstructor)
	student := seedUser(t, db, "learn@example.com", models.RoleStudent)
	course := seedCourse(t, db, instructor.ID, "Go", 49)

	payment := models.Payment{
		UserID: student.ID, ExternalID: "pi_stale", Amount: 49, Currency: "USD",
		Status: models.PaymentStatusPending,
		Items:  []models.PaymentItem{{CourseID: course.ID, Amount: 49}},
	}
	require.NoError(t, payments.Create(ctx, &payment))
	require.NoError(t, db.Model(&models.Payment{}).Where("id = ?", payment.ID).Update("created_at", time.Now().Add(-48*time.Hour)).Error)

	stale, err := payments.ListPendingBefore(ctx, time.Now().Add(-24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, stale, 1)

	failed, err := payments.MarkFailed(ctx, payment.ID, time.Now())
	require.NoError(t, err)
	require.True(t, failed)

	failed, err = payments.MarkFailed(ctx, payment.ID, time.Now())
	require.NoError(t, err)
	require.False(t, failed)

	_, _, err = payments.Complete(ctx, payment.ID, student.ID, time.Now())
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	history, err := payments.ListByUser(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "Go", history[0].Items[0].Course.Title)
}
