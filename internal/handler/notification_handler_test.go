package handler_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/handler"
	"github.com/noah-isme/learnhub-api/internal/service"
)

type stubNotificationService struct {
	items    []dto.NotificationResponse
	meta     dto.NotificationListMeta
	updated  int64
	err      error
	pending  []dto.NotificationResponse
	lastUser uint
	lastReq  dto.NotificationListRequest
	created  dto.NotificationCreateRequest
	released bool
}

func (s *stubNotificationService) Notify(context.Context, service.NotificationInput) error {
	return nil
}

func (s *stubNotificationService) Create(_ context.Context, payload dto.NotificationCreateRequest) ([]dto.NotificationResponse, error) {
	s.created = payload
	return s.items, s.err
}

func (s *stubNotificationService) List(_ context.Context, userID uint, req dto.NotificationListRequest) ([]dto.NotificationResponse, dto.NotificationListMeta, error) {
	s.lastUser = userID
	s.lastReq = req
	return s.items, s.meta, s.err
}

func (s *stubNotificationService) MarkRead(_ context.Context, id, userID uint) (dto.NotificationResponse, error) {
	s.lastUser = userID
	if s.err != nil {
		return dto.NotificationResponse{}, s.err
	}
	return dto.NotificationResponse{ID: id, UserID: userID, Read: true}, nil
}

func (s *stubNotificationService) MarkAllRead(_ context.Context, userID uint) (int64, error) {
	s.lastUser = userID
	return s.updated, s.err
}

// Subscribe replays the pending notifications and then closes the stream.
func (s *stubNotificationService) Subscribe(userID uint) (<-chan dto.NotificationResponse, func()) {
	s.lastUser = userID
	ch := make(chan dto.NotificationResponse, len(s.pending))
	for _, item := range s.pending {
		ch <- item
	}
	close(ch)
	return ch, func() { s.released = true }
}

func (s *stubNotificationService) Start(context.Context) {}

func TestNotificationHandlerList(t *testing.T) {
	svc := &stubNotificationService{
		items: []dto.NotificationResponse{{ID: 1, UserID: 8, Type: "course_enrollment", Title: "Enrolled", CreatedAt: time.Now().UTC()}},
		meta:  dto.NotificationListMeta{Total: 1, Limit: 20, UnreadCount: 1},
	}
	app, group := newTestApp("/api/v1/notifications", 8, "student")
	handler.NewNotificationHandler(svc, zerolog.Nop(), time.Minute).Register(group)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/notifications?unread_only=true&limit=20", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, payload := decodeResponse(t, resp)
	require.JSONEq(t, `{"total":1,"limit":20,"offset":0,"unread_count":1}`, string(payload.Meta))
	require.True(t, svc.lastReq.UnreadOnly)
	require.Equal(t, uint(8), svc.lastUser)
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	svc := &stubNotificationService{}
	app, group := newTestApp("/api/v1/notifications", 8, "student")
	handler.NewNotificationHandler(svc, zerolog.Nop(), time.Minute).Register(group)

	resp := doRequest(t, app, http.MethodPatch, "/api/v1/notifications/4/read", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	_, payload := decodeResponse(t, resp)
	require.Contains(t, string(payload.Data), `"read":true`)

	svc.err = service.ErrNotificationNotFound
	resp = doRequest(t, app, http.MethodPatch, "/api/v1/notifications/4/read", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestNotificationHandlerMarkAllRead(t *testing.T) {
	svc := &stubNotificationService{updated: 3}
	app, group := newTestApp("/api/v1/notifications", 8, "student")
	handler.NewNotificationHandler(svc, zerolog.Nop(), time.Minute).Register(group)

	resp := doRequest(t, app, http.MethodPatch, "/api/v1/notifications/read-all", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, payload := decodeResponse(t, resp)
	require.JSONEq(t, `{"updated":3}`, string(payload.Data))
}

func TestNotificationHandlerCreateIsAdminOnly(t *testing.T) {
	body := map[string]interface{}{"user_ids": []uint{2}, "type": "system_announcement", "title": "Maintenance", "message": "Down at noon"}

	svc := &stubNotificationService{}
	app, group := newTestApp("/api/v1/notifications", 8, "instructor")
	handler.NewNotificationHandler(svc, zerolog.Nop(), time.Minute).Register(group)
	resp := doRequest(t, app, http.MethodPost, "/api/v1/notifications", body)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	app, group = newTestApp("/api/v1/notifications", 1, "admin")
	handler.NewNotificationHandler(svc, zerolog.Nop(), time.Minute).Register(group)
	resp = doRequest(t, app, http.MethodPost, "/api/v1/notifications", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	require.Equal(t, []uint{2}, svc.created.UserIDs)
}

func TestNotificationHandlerStream(t *testing.T) {
	svc := &stubNotificationService{pending: []dto.NotificationResponse{
		{ID: 11, UserID: 8, Type: "certificate_earned", Title: "Certificate ready"},
	}}
	app, group := newTestApp("/api/v1/notifications", 8, "student")
	handler.NewNotificationHandler(svc, zerolog.Nop(), time.Minute).Register(group)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get(fiber.HeaderContentType))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := string(raw)

	require.True(t, strings.HasPrefix(body, "event: connected\ndata: {\"user_id\":8}\n\n"))
	require.Contains(t, body, "event: notification\n")
	require.Contains(t, body, `"title":"Certificate ready"`)
	require.True(t, svc.released)
}

func TestNotificationHandlerSocketRequiresUpgrade(t *testing.T) {
	svc := &stubNotificationService{}
	app, group := newTestApp("/api/v1/notifications", 8, "student")
	handler.NewNotificationHandler(svc, zerolog.Nop(), time.Minute).Register(group)

	resp := doRequest(t, app, http.MethodGet, "/api/v1/notifications/ws", nil)
	require.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
	resp.Body.Close()

	app, group = newTestApp("/api/v1/notifications", 0, "")
	handler.NewNotificationHandler(svc, zerolog.Nop(), time.Minute).Register(group)
	resp = doRequest(t, app, http.MethodGet, "/api/v1/notifications/ws", nil)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
