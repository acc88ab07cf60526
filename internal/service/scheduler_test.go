package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
	"github.com/noah-isme/learnhub-api/pkg/payment"
)

func TestSchedulerPurgesExpiredSessions(t *testing.T) {
	db := setupServiceDB(t)
	sessions := repository.NewSessionRepository(db)
	ctx := context.Background()

	user := createUser(t, db, "learn@example.com", models.RoleStudent)
	now := time.Now().UTC()
	require.NoError(t, sessions.Create(ctx, &models.UserSession{UserID: user.ID, TokenHash: "expired", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, sessions.Create(ctx, &models.UserSession{UserID: user.ID, TokenHash: "live", ExpiresAt: now.Add(time.Hour)}))

	scheduler := NewScheduler(sessions, nil, testLogger())
	require.NoError(t, scheduler.Run(ctx, JobPurgeSessions))

	var remaining []models.UserSession
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, "live", remaining[0].TokenHash)

	require.ErrorIs(t, scheduler.Run(ctx, "unknown"), ErrInvalidInput)
}

func TestSchedulerExpiresStalePayments(t *testing.T) {
	db := setupServiceDB(t)
	ctx := context.Background()
	notifier := &recordingNotifier{}
	sandbox := payment.NewSandbox()
	payments := NewPaymentService(repository.NewCourseRepository(db), repository.NewPaymentRepository(db), sandbox, notifier, nil, testValidator(), "usd", testLogger()).(*paymentService)

	instructor := createUser(t, db, "teach@example.com", models.RoleInstructor)
	student := createUser(t, db, "learn@example.com", models.RoleStudent)
	course := createCourse(t, db, instructor.ID, "Paid", 25, models.CourseStatusPublished)
	intent, err := payments.CreateIntent(ctx, student.ID, dto.CreateIntentRequest{CourseIDs: []uint{course.ID}})
	require.NoError(t, err)
	require.True(t, sandbox.SetStatus(intent.PaymentIntentID, payment.StatusRequiresPaymentMethod))

	payments.now = fixedClock(time.Now().Add(48 * time.Hour))
	scheduler := NewScheduler(repository.NewSessionRepository(db), payments, testLogger())
	require.NoError(t, scheduler.Run(ctx, JobExpirePayments))

	history, err := payments.History(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusFailed, history[0].Status)
	require.Equal(t, []string{models.NotificationPaymentFailed}, notifier.types())
}

func TestSchedulerStartRegistersJobs(t *testing.T) {
	scheduler := NewScheduler(nil, nil, testLogger())
	require.NoError(t, scheduler.Start())
	require.Len(t, scheduler.cron.Entries(), 2)
	<-scheduler.Stop().Done()
}
