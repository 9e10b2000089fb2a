package serverutils

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatbots-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name      string  `json:"name" validate:"required,max=5"`
	SessionId string  `json:"session_id" validate:"required,min=1,max=50"`
	Title     *string `json:"title" validate:"omitempty,max=3"`
}

func TestValidateRequestReportsJSONFieldNames(t *testing.T) {
	long := "toolong"
	err := ValidateRequest(sampleRequest{Name: "abcdefg", Title: &long})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrValidationFailed)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "name")
	assert.Contains(t, appErr.Fields, "session_id")
	assert.Contains(t, appErr.Fields, "title")
	assert.Equal(t, []string{"session_id is required"}, appErr.Fields["session_id"])
}

func TestValidateRequestPasses(t *testing.T) {
	assert.NoError(t, ValidateRequest(sampleRequest{Name: "bot", SessionId: "s-1"}))
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/missing", func(c *fiber.Ctx) error {
		return apperror.NotFound("Chatbot 9 not found")
	})
	app.Get("/invalid", func(c *fiber.Ctx) error {
		return ValidateRequest(sampleRequest{})
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return io.ErrUnexpectedEOF
	})
	app.Get("/fiber", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusBadRequest, "bad multipart")
	})

	tests := []struct {
		path    string
		status  int
		message string
	}{
		{"/missing", http.StatusNotFound, "Chatbot 9 not found"},
		{"/invalid", http.StatusUnprocessableEntity, "One or more validation errors occurred"},
		{"/boom", http.StatusInternalServerError, "Internal server error"},
		{"/fiber", http.StatusBadRequest, "bad multipart"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)

			var body BaseResponse[any]
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.status, body.Code)
			assert.Equal(t, tt.message, body.Message)
			if tt.path == "/invalid" {
				assert.NotEmpty(t, body.Errors)
			}
		})
	}
}
