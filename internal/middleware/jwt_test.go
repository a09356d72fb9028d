package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/certify-api/internal/middleware"
	"github.com/noah-isme/certify-api/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func identityApp(guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Get("/", guard, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"id":   middleware.UserID(c),
			"role": middleware.UserRole(c),
		})
	})
	return app
}

func request(t *testing.T, app *fiber.App, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestJWTProtectedAcceptsKnownRole(t *testing.T) {
	app := identityApp(middleware.JWTProtected(testSecret))
	token := signToken(t, jwt.MapClaims{"sub": "7", "role": "Verifier", "exp": time.Now().Add(time.Hour).Unix()})

	resp := request(t, app, token)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		ID   uint        `json:"id"`
		Role models.Role `json:"role"`
	}
	decodeJSON(t, resp, &payload)
	require.Equal(t, uint(7), payload.ID)
	require.Equal(t, models.RoleVerifier, payload.Role)
}

func TestJWTProtectedRejections(t *testing.T) {
	app := identityApp(middleware.JWTProtected(testSecret))

	require.Equal(t, fiber.StatusUnauthorized, request(t, app, "").StatusCode)
	require.Equal(t, fiber.StatusUnauthorized, request(t, app, "garbage").StatusCode)

	unknownRole := signToken(t, jwt.MapClaims{"sub": 7, "role": "guest"})
	require.Equal(t, fiber.StatusUnauthorized, request(t, app, unknownRole).StatusCode)

	expired := signToken(t, jwt.MapClaims{"sub": 7, "role": "student", "exp": time.Now().Add(-time.Minute).Unix()})
	require.Equal(t, fiber.StatusUnauthorized, request(t, app, expired).StatusCode)

	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": 7, "role": "admin"}).SignedString([]byte("other"))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, request(t, app, wrongKey).StatusCode)
}

func TestJWTOptionalAllowsAnonymous(t *testing.T) {
	app := identityApp(middleware.JWTOptional(testSecret))

	resp := request(t, app, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		ID uint `json:"id"`
	}
	decodeJSON(t, resp, &payload)
	require.Zero(t, payload.ID)

	require.Equal(t, fiber.StatusUnauthorized, request(t, app, "garbage").StatusCode)
}

func decodeJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
