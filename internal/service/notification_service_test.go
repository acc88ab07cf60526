package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/models"
	"github.com/noah-isme/learnhub-api/internal/repository"
)

func TestNotificationServiceNotifyStreamsToSubscriber(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, testValidator(), testLogger())
	ctx := context.Background()
	user := createUser(t, db, "learner@example.com", models.RoleStudent)

	stream, cancel := svc.Subscribe(user.ID)
	defer cancel()

	require.NoError(t, svc.Notify(ctx, NotificationInput{
		UserID:  user.ID,
		Type:    models.NotificationCourseEnrollment,
		Title:   "Enrolled <b>now</b>",
		Message: "<script>alert(1)</script>Welcome",
		Data:    map[string]interface{}{"course_id": 7},
	}))

	select {
	case received := <-stream:
		require.Equal(t, "Enrolled now", received.Title)
		require.Equal(t, "Welcome", received.Message)
		require.Equal(t, user.ID, received.UserID)
	case <-time.After(time.Second):
		t.Fatal("expected notification on stream")
	}

	items, meta, err := svc.List(ctx, user.ID, dto.NotificationListRequest{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int64(1), meta.UnreadCount)
	require.Equal(t, json.Number("7"), items[0].Data["course_id"])
}

func TestNotificationServiceMarkRead(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, testValidator(), testLogger())
	ctx := context.Background()
	user := createUser(t, db, "learner@example.com", models.RoleStudent)
	other := createUser(t, db, "other@example.com", models.RoleStudent)

	created, err := svc.Create(ctx, dto.NotificationCreateRequest{
		UserIDs: []uint{user.ID, user.ID, other.ID},
		Type:    models.NotificationSystemAnnouncement,
		Title:   "Maintenance",
		Message: "Downtime on Sunday",
	})
	require.NoError(t, err)
	require.Len(t, created, 2)

	_, err = svc.MarkRead(ctx, created[0].ID, other.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	read, err := svc.MarkRead(ctx, created[0].ID, user.ID)
	require.NoError(t, err)
	require.True(t, read.Read)

	_, err = svc.MarkRead(ctx, created[0].ID, user.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	require.NoError(t, svc.Notify(ctx, NotificationInput{UserID: user.ID, Type: models.NotificationCourseUpdate, Title: "Update"}))
	require.NoError(t, svc.Notify(ctx, NotificationInput{UserID: user.ID, Type: models.NotificationCourseUpdate, Title: "Update 2"}))
	updated, err := svc.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated)

	unread, meta, err := svc.List(ctx, user.ID, dto.NotificationListRequest{UnreadOnly: true})
	require.NoError(t, err)
	require.Empty(t, unread)
	require.Equal(t, int64(0), meta.UnreadCount)
}

func TestNotificationServiceRejectsInvalidType(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, testValidator(), testLogger())

	_, err := svc.Create(context.Background(), dto.NotificationCreateRequest{UserIDs: []uint{1}, Type: "spam", Title: "x", Message: "y"})
	require.True(t, isValidation(err))
}

func TestNotificationServiceRelaysThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	db := setupServiceDB(t)
	user := createUser(t, db, "learner@example.com", models.RoleStudent)
	receiver := NewNotificationService(repository.NewNotificationRepository(db), client, "learnhub", nil, testValidator(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	receiver.Start(ctx)

	stream, unsubscribe := receiver.Subscribe(user.ID)
	defer unsubscribe()

	payload, err := json.Marshal(relayEnvelope{
		Source:       "another-node",
		Notification: dto.NotificationResponse{ID: 42, UserID: user.ID, Type: models.NotificationCourseUpdate, Title: "Relayed"},
		SentAt:       time.Now().UTC(),
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		if err := client.Publish(ctx, "learnhub:notifications", payload).Err(); err != nil {
			return false
		}
		select {
		case msg := <-stream:
			return msg.ID == 42
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)
}
