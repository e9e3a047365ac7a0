package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/observability"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

func testApp(t *testing.T) (*fiber.App, *observability.Metrics) {
	t.Helper()
	app := fiber.New()
	metrics := observability.NewMetrics()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 5*time.Second)
	return app, metrics
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, resp *http.Response) errorEnvelope {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope errorEnvelope
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

func TestErrorHandlerRendersDomainError(t *testing.T) {
	app, _ := testApp(t)
	app.Get("/boom", func(c *fiber.Ctx) error {
		return apperrors.NewValidationError("invalid ticket payload", map[string]any{"subject": "required"})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	envelope := decodeError(t, resp)
	assert.Equal(t, apperrors.CodeValidationFailed, envelope.Error.Code)
	assert.Equal(t, "invalid ticket payload", envelope.Error.Message)
	assert.Equal(t, "required", envelope.Error.Details["subject"])
}

func TestErrorHandlerMasksInternalErrors(t *testing.T) {
	app, _ := testApp(t)
	app.Get("/internal", func(c *fiber.Ctx) error {
		return io.ErrUnexpectedEOF
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/internal", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	envelope := decodeError(t, resp)
	assert.Equal(t, apperrors.CodeInternal, envelope.Error.Code)
	assert.Equal(t, "internal server error", envelope.Error.Message)
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	app, _ := testApp(t)
	app.Get("/panic", func(c *fiber.Ctx) error {
		panic("nope")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/panic", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	envelope := decodeError(t, resp)
	assert.Equal(t, apperrors.CodeInternal, envelope.Error.Code)
}

func TestSuccessPassesThrough(t *testing.T) {
	app, metrics := testApp(t)
	app.Get("/ok", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"data": "fine"})
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1, metrics.RequestTotal("/ok", http.MethodGet, http.StatusOK))
}
