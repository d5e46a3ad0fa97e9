package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docportal/internal/logging"
	"docportal/internal/model"
	"docportal/internal/security"
)

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendString(GetRequestID(c))
	})

	t.Run("should generate new request id if not present", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		ridHeader := resp.Header.Get(RequestIDHeader)
		assert.NotEmpty(t, ridHeader)

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, ridHeader, buf.String())
	})

	t.Run("should preserve existing request id", func(t *testing.T) {
		existingID := "test-id-123"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set(RequestIDHeader, existingID)

		resp, _ := app.Test(req)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, existingID, resp.Header.Get(RequestIDHeader))

		buf := new(bytes.Buffer)
		buf.ReadFrom(resp.Body)
		assert.Equal(t, existingID, buf.String())
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()

	app.Use(RequestID())
	app.Use(Logger(logging.Setup(&buf, time.UTC, "info")))

	app.Get("/test", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	req := httptest.NewRequest("GET", "/test", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	var logData map[string]any
	err := json.Unmarshal(buf.Bytes(), &logData)
	require.NoError(t, err)

	assert.NotEmpty(t, logData["request_id"])
	assert.Equal(t, "GET", logData["method"])
	assert.Equal(t, "/test", logData["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), logData["status"])
	assert.Equal(t, "info", logData["level"])
	assert.Equal(t, "http_request", logData["message"])
	assert.NotNil(t, logData["latency"])
	assert.NotEmpty(t, logData["ts"])
}

func TestLogger_ErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(Logger(logging.Setup(&buf, time.UTC, "info")))
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "nope")
	})

	resp, _ := app.Test(httptest.NewRequest("GET", "/missing", nil))
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	var logData map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &logData))
	assert.Equal(t, "warn", logData["level"])
	assert.Equal(t, float64(fiber.StatusNotFound), logData["status"])
}

func TestAuth(t *testing.T) {
	issuer, err := security.NewTokenIssuer("secret", time.Hour)
	require.NoError(t, err)

	app := fiber.New()
	app.Use(Auth(issuer))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(CurrentUsername(c) + ":" + string(CurrentRole(c)))
	})
	app.Delete("/admin", RequireRole(model.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	userToken, err := issuer.Issue("alice", model.RoleUser)
	require.NoError(t, err)
	adminToken, err := issuer.Issue("root", model.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		path   string
		header string
		status int
		body   string
	}{
		{"missing header", "GET", "/me", "", fiber.StatusUnauthorized, ""},
		{"wrong scheme", "GET", "/me", "Basic abc", fiber.StatusUnauthorized, ""},
		{"garbage token", "GET", "/me", "Bearer abc.def.ghi", fiber.StatusUnauthorized, ""},
		{"valid token", "GET", "/me", "Bearer " + userToken, fiber.StatusOK, "alice:USER"},
		{"user on admin route", "DELETE", "/admin", "Bearer " + userToken, fiber.StatusForbidden, ""},
		{"admin on admin route", "DELETE", "/admin", "Bearer " + adminToken, fiber.StatusNoContent, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.body != "" {
				buf := new(bytes.Buffer)
				buf.ReadFrom(resp.Body)
				assert.Equal(t, tt.body, buf.String())
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	app := fiber.New()
	app.Post("/register", RateLimit(2, time.Hour), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/register", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{fiber.StatusCreated, fiber.StatusCreated, fiber.StatusTooManyRequests}, codes)
}

func TestRateLimit_Disabled(t *testing.T) {
	app := fiber.New()
	app.Post("/register", RateLimit(0, time.Hour), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	for i := 0; i < 5; i++ {
		resp, _ := app.Test(httptest.NewRequest("POST", "/register", nil))
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}
}
