package utils_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certify-api/internal/utils"
	apperrors "github.com/noah-isme/certify-api/pkg/errors"
)

func TestOKIncludesMetaAndDefaults(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		data := map[string]string{"hello": "world"}
		meta := map[string]int{"processed": 1}
		return utils.OK(c, data, "", meta)
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Data    map[string]string      `json:"data"`
		Meta    map[string]interface{} `json:"meta"`
	}
	decode(t, resp, &payload)

	require.True(t, payload.Success)
	require.Equal(t, "success", payload.Message)
	require.Equal(t, "world", payload.Data["hello"])
	require.Equal(t, float64(1), payload.Meta["processed"])
}

func TestFailIncludesDetails(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		details := map[string]string{"field": "enrollmentId"}
		return utils.Fail(c, fiber.StatusBadRequest, "invalid payload", details)
	})

	resp := performRequest(t, app, http.MethodGet, "/")
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var payload struct {
		Success bool                   `json:"success"`
		Message string                 `json:"message"`
		Details map[string]string      `json:"details"`
		Data    map[string]interface{} `json:"data"`
	}
	decode(t, resp, &payload)

	require.False(t, payload.Success)
	require.Equal(t, "invalid payload", payload.Message)
	require.Equal(t, "enrollmentId", payload.Details["field"])
	require.Nil(t, payload.Data)
}

func TestSendAppErrorMapsKinds(t *testing.T) {
	notCompleted := apperrors.Derive(apperrors.ErrInvalidState, "ENROLLMENT_NOT_COMPLETED", "enrollment is not completed")
	type probe struct {
		Email string `validate:"required,email"`
	}
	validationErr := validator.New().Struct(probe{Email: "nope"})

	cases := []struct {
		name    string
		err     error
		handled bool
		status  int
		code    string
	}{
		{name: "derived invalid state", err: notCompleted, handled: true, status: fiber.StatusConflict, code: "ENROLLMENT_NOT_COMPLETED"},
		{name: "not found kind", err: apperrors.ErrNotFound, handled: true, status: fiber.StatusNotFound, code: "NOT_FOUND"},
		{name: "validation", err: validationErr, handled: true, status: fiber.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "internal", err: apperrors.ErrInternal, handled: false},
		{name: "unknown", err: errors.New("db down"), handled: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				handled, err := utils.SendAppError(c, tc.err)
				if !handled {
					return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
				}
				return err
			})

			resp := performRequest(t, app, http.MethodGet, "/")
			if !tc.handled {
				require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
				return
			}
			require.Equal(t, tc.status, resp.StatusCode)

			var payload struct {
				Success bool   `json:"success"`
				Code    string `json:"code"`
			}
			decode(t, resp, &payload)
			require.False(t, payload.Success)
			require.Equal(t, tc.code, payload.Code)
		})
	}
}

func performRequest(t *testing.T, app *fiber.App, method, path string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
