package handler_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/handler"
	"github.com/noah-isme/learnhub-api/internal/service"
)

type stubActivityService struct {
	lastReq dto.AdminActivityListRequest
	entries []dto.AdminActivityResponse
}

func (s *stubActivityService) Record(context.Context, service.ActivityEntry) (dto.AdminActivityResponse, error) {
	return dto.AdminActivityResponse{}, nil
}

func (s *stubActivityService) List(_ context.Context, req dto.AdminActivityListRequest) ([]dto.AdminActivityResponse, int64, error) {
	s.lastReq = req
	return s.entries, int64(len(s.entries)), nil
}

func TestAdminActivityListPassesFilters(t *testing.T) {
	svc := &stubActivityService{entries: []dto.AdminActivityResponse{{ID: 1, Action: "course.published", CorrelationID: "req-1"}}}
	app, group := newTestApp("/admin/activities", 1, "admin")
	handler.NewAdminActivityHandler(svc, zerolog.Nop()).Register(group)

	resp := doRequest(t, app, fiber.MethodGet, "/admin/activities?actor_id=4&action=course.published&since=2026-01-02T15:04:05Z&limit=10", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	_, payload := decodeResponse(t, resp)
	assert.JSONEq(t, `{"total":1,"limit":10,"offset":0,"page":1,"total_pages":1}`, string(payload.Meta))

	assert.Equal(t, uint(4), svc.lastReq.ActorID)
	assert.Equal(t, "course.published", svc.lastReq.Action)
	require.NotNil(t, svc.lastReq.Since)
	assert.True(t, svc.lastReq.Since.Equal(time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)))
}

func TestAdminActivityListRejectsBadQuery(t *testing.T) {
	app, group := newTestApp("/admin/activities", 1, "admin")
	handler.NewAdminActivityHandler(&stubActivityService{}, zerolog.Nop()).Register(group)

	for _, query := range []string{"since=yesterday", "actor_id=-3", "limit=abc"} {
		resp := doRequest(t, app, fiber.MethodGet, "/admin/activities?"+query, nil)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, query)
		resp.Body.Close()
	}
}

func TestAdminActivityListRequiresAdmin(t *testing.T) {
	app, group := newTestApp("/admin/activities", 5, "student")
	handler.NewAdminActivityHandler(&stubActivityService{}, zerolog.Nop()).Register(group)

	resp := doRequest(t, app, fiber.MethodGet, "/admin/activities", nil)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
