package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
)

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{service.ErrInvalidInput, fiber.StatusBadRequest},
		{service.ErrCourseNotCompleted, fiber.StatusBadRequest},
		{service.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{service.ErrLessonLocked, fiber.StatusForbidden},
		{service.ErrNotCourseOwner, fiber.StatusForbidden},
		{service.ErrCourseNotFound, fiber.StatusNotFound},
		{fmt.Errorf("load: %w", service.ErrReviewNotFound), fiber.StatusNotFound},
		{service.ErrAlreadyEnrolled, fiber.StatusConflict},
		{service.ErrFileTooLarge, fiber.StatusRequestEntityTooLarge},
		{service.ErrUnsupportedMediaType, fiber.StatusUnsupportedMediaType},
		{service.ErrUploadUnavailable, fiber.StatusServiceUnavailable},
		{errors.New("boom"), 0},
	}

	for _, tc := range cases {
		require.Equal(t, tc.status, errorStatus(tc.err), tc.err.Error())
	}
}

func TestRespondErrorValidationDetails(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
	}
	validationErr := utils.NewValidator().Struct(payload{Email: "nope"})
	require.Error(t, validationErr)

	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, zerolog.Nop(), validationErr, "test")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var body struct {
		Success bool               `json:"success"`
		Message string             `json:"message"`
		Details []utils.FieldError `json:"details"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Success)
	require.Equal(t, "validation failed", body.Message)
	require.NotEmpty(t, body.Details)
}

func TestRespondErrorHidesUnknownErrors(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return respondError(c, zerolog.Nop(), errors.New("pq: connection refused"), "test")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var body utils.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "internal server error", body.Message)
}

func TestParamID(t *testing.T) {
	app := fiber.New()
	app.Get("/:id", func(c *fiber.Ctx) error {
		id, ok := paramID(c, "id")
		if !ok {
			return c.SendStatus(fiber.StatusBadRequest)
		}
		return c.SendString(fmt.Sprint(id))
	})

	for path, status := range map[string]int{"/12": fiber.StatusOK, "/0": fiber.StatusBadRequest, "/abc": fiber.StatusBadRequest, "/-4": fiber.StatusBadRequest} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, status, resp.StatusCode, path)
	}
}
