package middleware

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencyBucket(t *testing.T) {
	cases := map[time.Duration]string{
		10 * time.Millisecond:  "<=25ms",
		25 * time.Millisecond:  "<=25ms",
		80 * time.Millisecond:  "<=100ms",
		400 * time.Millisecond: "<=500ms",
		2 * time.Second:        ">500ms",
	}
	for d, want := range cases {
		assert.Equal(t, want, latencyBucket(d), d.String())
	}
}

func TestStatusLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, statusLevel(fiber.StatusOK))
	assert.Equal(t, zerolog.WarnLevel, statusLevel(fiber.StatusNotFound))
	assert.Equal(t, zerolog.ErrorLevel, statusLevel(fiber.StatusBadGateway))
}

func TestObservabilityUsesReturnedErrorStatus(t *testing.T) {
	app := fiber.New()
	app.Use(Observability(zerolog.Nop()))
	var seen int
	app.Use(func(c *fiber.Ctx) error {
		err := c.Next()
		seen = responseStatus(c, err)
		return err
	})
	app.Get("/api/v1/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	app.Get("/api/v1/boom", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/teapot", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, fiber.StatusTeapot, seen)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, fiber.StatusInternalServerError, seen)
}
