package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
	"github.com/noah-isme/learnhub-api/pkg/payment"
)

type paymentFixture struct {
	svc         *paymentService
	sandbox     *payment.Sandbox
	notifier    *recordingNotifier
	events      *recordingPublisher
	enrollments repository.EnrollmentRepository
}

func newPaymentFixture(t *testing.T) (paymentFixture, models.User, []models.Course) {
	t.Helper()
	db := setupServiceDB(t)
	sandbox := payment.NewSandbox()
	notifier := &recordingNotifier{}
	events := &recordingPublisher{}
	enrollments := repository.NewEnrollmentRepository(db)

	svc := NewPaymentService(repository.NewCourseRepository(db), repository.NewPaymentRepository(db), sandbox, notifier, events, testValidator(), "USD", testLogger()).(*paymentService)

	instructor := createUser(t, db, "teach@example.com", models.RoleInstructor)
	student := createUser(t, db, "buyer@example.com", models.RoleStudent)
	courses := []models.Course{
		createCourse(t, db, instructor.ID, "Go Services", 49.99, models.CourseStatusPublished),
		createCourse(t, db, instructor.ID, "Rust Systems", 30.01, models.CourseStatusPublished),
		createCourse(t, db, instructor.ID, "Draft Course", 10, models.CourseStatusDraft),
	}
	return paymentFixture{svc: svc, sandbox: sandbox, notifier: notifier, events: events, enrollments: enrollments}, student, courses
}

func TestPaymentServiceCheckoutActivatesEnrollments(t *testing.T) {
	fx, student, courses := newPaymentFixture(t)
	ctx := context.Background()

	pending := createEnrollmentWith(t, fx, student.ID, courses[0].ID)
	require.Equal(t, models.EnrollmentStatusPending, pending.Status)

	intent, err := fx.svc.CreateIntent(ctx, student.ID, dto.CreateIntentRequest{CourseIDs: []uint{courses[0].ID, courses[1].ID, courses[0].ID}})
	require.NoError(t, err)
	require.InDelta(t, 80.0, intent.Amount, 0.001)
	require.Equal(t, "usd", intent.Currency)
	require.Equal(t, models.PaymentStatusPending, intent.Status)
	require.Len(t, intent.Courses, 2)
	require.NotEmpty(t, intent.ClientSecret)

	confirmed, err := fx.svc.Confirm(ctx, student.ID, dto.ConfirmPaymentRequest{PaymentIntentID: intent.PaymentIntentID})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCompleted, confirmed.Payment.Status)
	require.NotNil(t, confirmed.Payment.CompletedAt)
	require.ElementsMatch(t, []uint{courses[0].ID, courses[1].ID}, confirmed.EnrolledCourses)

	for _, course := range courses[:2] {
		enrollment, err := fx.enrollments.Find(ctx, student.ID, course.ID)
		require.NoError(t, err)
		require.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
		require.Equal(t, models.EnrollmentTypePaid, enrollment.EnrollmentType)
		require.Equal(t, intent.PaymentID, *enrollment.PaymentID)
	}

	again, err := fx.svc.Confirm(ctx, student.ID, dto.ConfirmPaymentRequest{PaymentIntentID: intent.PaymentIntentID})
	require.NoError(t, err)
	require.Equal(t, confirmed.Payment.ID, again.Payment.ID)
	require.Equal(t, []string{EventPaymentCompleted}, fx.events.events)
	require.Equal(t, []string{models.NotificationPaymentSuccess}, fx.notifier.types())

	history, err := fx.svc.History(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "Go Services", history[0].Courses[0].Title)
}

func TestPaymentServiceRejectsUnavailableCourses(t *testing.T) {
	fx, student, courses := newPaymentFixture(t)
	ctx := context.Background()

	_, err := fx.svc.CreateIntent(ctx, student.ID, dto.CreateIntentRequest{CourseIDs: []uint{courses[0].ID, courses[2].ID}})
	require.ErrorIs(t, err, ErrCoursesUnavailable)

	_, err = fx.svc.CreateIntent(ctx, student.ID, dto.CreateIntentRequest{CourseIDs: []uint{courses[0].ID, 9999}})
	require.ErrorIs(t, err, ErrCoursesUnavailable)

	_, err = fx.svc.CreateIntent(ctx, student.ID, dto.CreateIntentRequest{})
	require.True(t, isValidation(err))
}

func TestPaymentServiceConfirmStates(t *testing.T) {
	fx, student, courses := newPaymentFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Confirm(ctx, student.ID, dto.ConfirmPaymentRequest{PaymentIntentID: "pi_unknown"})
	require.ErrorIs(t, err, ErrPaymentNotFound)

	intent, err := fx.svc.CreateIntent(ctx, student.ID, dto.CreateIntentRequest{CourseIDs: []uint{courses[0].ID}})
	require.NoError(t, err)

	_, err = fx.svc.Confirm(ctx, student.ID+1000, dto.ConfirmPaymentRequest{PaymentIntentID: intent.PaymentIntentID})
	require.ErrorIs(t, err, ErrPaymentNotFound)

	require.True(t, fx.sandbox.SetStatus(intent.PaymentIntentID, payment.StatusProcessing))
	_, err = fx.svc.Confirm(ctx, student.ID, dto.ConfirmPaymentRequest{PaymentIntentID: intent.PaymentIntentID})
	require.ErrorIs(t, err, ErrPaymentNotCompleted)

	_, err = fx.enrollments.Find(ctx, student.ID, courses[0].ID)
	require.Error(t, err, "no enrollment before the provider succeeds")

	require.True(t, fx.sandbox.SetStatus(intent.PaymentIntentID, payment.StatusCanceled))
	_, err = fx.svc.Confirm(ctx, student.ID, dto.ConfirmPaymentRequest{PaymentIntentID: intent.PaymentIntentID})
	require.ErrorIs(t, err, ErrPaymentFailed)
	require.Equal(t, []string{models.NotificationPaymentFailed}, fx.notifier.types())

	require.True(t, fx.sandbox.SetStatus(intent.PaymentIntentID, payment.StatusSucceeded))
	_, err = fx.svc.Confirm(ctx, student.ID, dto.ConfirmPaymentRequest{PaymentIntentID: intent.PaymentIntentID})
	require.ErrorIs(t, err, ErrPaymentFailed, "a failed payment stays failed")
}

func TestPaymentServiceExpireStale(t *testing.T) {
	fx, student, courses := newPaymentFixture(t)
	ctx := context.Background()

	stale, err := fx.svc.CreateIntent(ctx, student.ID, dto.CreateIntentRequest{CourseIDs: []uint{courses[0].ID}})
	require.NoError(t, err)
	done, err := fx.svc.CreateIntent(ctx, student.ID, dto.CreateIntentRequest{CourseIDs: []uint{courses[1].ID}})
	require.NoError(t, err)
	_, err = fx.svc.Confirm(ctx, student.ID, dto.ConfirmPaymentRequest{PaymentIntentID: done.PaymentIntentID})
	require.NoError(t, err)

	expired, err := fx.svc.ExpireStale(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Zero(t, expired)

	require.True(t, fx.sandbox.SetStatus(stale.PaymentIntentID, payment.StatusRequiresPaymentMethod))
	fx.svc.now = fixedClock(time.Now().Add(25 * time.Hour))
	expired, err = fx.svc.ExpireStale(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, expired)

	history, err := fx.svc.History(ctx, student.ID)
	require.NoError(t, err)
	statuses := map[string]string{}
	for _, p := range history {
		statuses[p.PaymentIntentID] = p.Status
	}
	require.Equal(t, models.PaymentStatusFailed, statuses[stale.PaymentIntentID])
	require.Equal(t, models.PaymentStatusCompleted, statuses[done.PaymentIntentID])
	require.Contains(t, fx.notifier.types(), models.NotificationPaymentFailed)
}

func TestPaymentServiceExpireStaleReconcilesWithProvider(t *testing.T) {
	fx, student, courses := newPaymentFixture(t)
	ctx := context.Background()

	paid, err := fx.svc.CreateIntent(ctx, student.ID, dto.CreateIntentRequest{CourseIDs: []uint{courses[0].ID}})
	require.NoError(t, err)
	declined, err := fx.svc.CreateIntent(ctx, student.ID, dto.CreateIntentRequest{CourseIDs: []uint{courses[1].ID}})
	require.NoError(t, err)
	require.True(t, fx.sandbox.SetStatus(paid.PaymentIntentID, payment.StatusSucceeded))
	require.True(t, fx.sandbox.SetStatus(declined.PaymentIntentID, payment.StatusCanceled))

	fx.svc.now = fixedClock(time.Now().Add(25 * time.Hour))
	expired, err := fx.svc.ExpireStale(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, expired)

	history, err := fx.svc.History(ctx, student.ID)
	require.NoError(t, err)
	statuses := map[string]string{}
	for _, p := range history {
		statuses[p.PaymentIntentID] = p.Status
	}
	require.Equal(t, models.PaymentStatusCompleted, statuses[paid.PaymentIntentID])
	require.Equal(t, models.PaymentStatusFailed, statuses[declined.PaymentIntentID])

	enrollment, err := fx.enrollments.Find(ctx, student.ID, courses[0].ID)
	require.NoError(t, err)
	require.Equal(t, models.EnrollmentStatusActive, enrollment.Status)

	// a late confirmation of the settled payment still succeeds and announces nothing new
	resp, err := fx.svc.Confirm(ctx, student.ID, dto.ConfirmPaymentRequest{PaymentIntentID: paid.PaymentIntentID})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusCompleted, resp.Payment.Status)
	require.ElementsMatch(t, []string{EventPaymentCompleted, EventPaymentFailed}, fx.events.events)
	require.ElementsMatch(t, []string{models.NotificationPaymentSuccess, models.NotificationPaymentFailed}, fx.notifier.types())
}

func TestPaymentServiceConcurrentConfirmAnnouncesOnce(t *testing.T) {
	fx, student, courses := newPaymentFixture(t)
	ctx := context.Background()

	intent, err := fx.svc.CreateIntent(ctx, student.ID, dto.CreateIntentRequest{CourseIDs: []uint{courses[0].ID, courses[1].ID}})
	require.NoError(t, err)

	const attempts = 6
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := fx.svc.Confirm(ctx, student.ID, dto.ConfirmPaymentRequest{PaymentIntentID: intent.PaymentIntentID})
			if err == nil && resp.Payment.Status != models.PaymentStatusCompleted {
				err = ErrPaymentNotCompleted
			}
			if err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Empty(t, failures)
	require.Equal(t, []string{EventPaymentCompleted}, fx.events.events)
	require.Equal(t, []string{models.NotificationPaymentSuccess}, fx.notifier.types())
}

func createEnrollmentWith(t *testing.T, fx paymentFixture, userID, courseID uint) models.Enrollment {
	t.Helper()
	enrollment := models.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		Status:         models.EnrollmentStatusPending,
		EnrollmentType: models.EnrollmentTypePaid,
		EnrolledAt:     time.Now().UTC(),
	}
	inserted, err := fx.enrollments.CreateIfAbsent(context.Background(), &enrollment)
	require.NoError(t, err)
	require.True(t, inserted)
	return enrollment
}
