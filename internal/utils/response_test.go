package utils

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorResponse_NoMutation(t *testing.T) {
	app := fiber.New()

	assert.Equal(t, fiber.StatusInternalServerError, ErrInternalServer.Status)

	app.Get("/error", func(c *fiber.Ctx) error {
		return ErrorResponse(c, ErrInternalServer, fiber.StatusTeapot)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/error", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)

	assert.Equal(t, fiber.StatusInternalServerError, ErrInternalServer.Status, "ErrInternalServer.Status should NOT be mutated")

	body, _ := io.ReadAll(resp.Body)
	var result struct {
		Success bool     `json:"success"`
		Error   APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	assert.False(t, result.Success)
	assert.Equal(t, ErrInternalServer.Code, result.Error.Code)
}

func TestErrorResponse_DefaultStatus(t *testing.T) {
	app := fiber.New()
	app.Get("/denied", func(c *fiber.Ctx) error {
		return ErrorResponse(c, ErrForbidden)
	})
	app.Get("/nil", func(c *fiber.Ctx) error {
		return ErrorResponse(c, nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/denied", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/nil", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestSuccessResponse(t *testing.T) {
	app := fiber.New()
	app.Post("/created", func(c *fiber.Ctx) error {
		return SuccessResponse(c, fiber.Map{"id": "abc"}, "Created", fiber.StatusCreated)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/created", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var result struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
		Message string            `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Equal(t, "abc", result.Data["id"])
	assert.Equal(t, "Created", result.Message)
}

func TestValidate(t *testing.T) {
	type credentials struct {
		Username string `validate:"required,max=64"`
		Password string `validate:"required"`
	}

	assert.Nil(t, Validate(credentials{Username: "alice", Password: "pw"}))

	apiErr := Validate(credentials{Username: "alice"})
	require.NotNil(t, apiErr)
	assert.Equal(t, ErrValidation.Code, apiErr.Code)
	assert.Nil(t, ErrValidation.Details, "shared error must not carry details")

	fields, ok := apiErr.Details.([]FieldError)
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, FieldError{Field: "password", Rule: "required"}, fields[0])
}
