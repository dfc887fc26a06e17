package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	apperrors "docbase/internal/shared/errors"
	"docbase/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(logger.NewLogger()),
	})
}

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(body).Decode(&out))
	return out
}

func TestErrorHandlerMapsAppError(t *testing.T) {
	app := newTestApp()
	app.Get("/denied", func(c *fiber.Ctx) error {
		return apperrors.NewAuthorizationError("please login first")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/denied", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	body := decodeBody(t, resp.Body)
	assert.Equal(t, "AUTHORIZATION_ERROR", body["error"])
	assert.Equal(t, "please login first", body["message"])
}

func TestErrorHandlerHidesUnknownErrors(t *testing.T) {
	app := newTestApp()
	app.Get("/boom", func(c *fiber.Ctx) error {
		return errors.New("mongo: connection refused to 10.0.0.5")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body := decodeBody(t, resp.Body)
	assert.Equal(t, "internal server error", body["message"])
	assert.NotContains(t, body["message"], "10.0.0.5")
}

func TestRequestIDGeneratesUUID(t *testing.T) {
	app := newTestApp()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	assert.Len(t, resp.Header.Get(fiber.HeaderXRequestID), 36)
}
