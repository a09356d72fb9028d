package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/certify-api/internal/models"
	"github.com/noah-isme/certify-api/internal/utils"
)

// AuthOptions configures the WithAuth helper.
type AuthOptions struct {
	// Capability, when set, must be granted by the caller's role.
	Capability models.Capability
	// Roles, when set, restricts the handler to these roles.
	Roles       []models.Role
	RequireUser bool
}

// WithAuth wraps a single handler with authentication and authorization
// guards. It is meant for route groups mounted behind JWTOptional where
// anonymous and authenticated routes live side by side.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	requireUser := opts.RequireUser || opts.Capability != "" || len(opts.Roles) > 0

	return func(c *fiber.Ctx) error {
		role := UserRole(c)
		if UserID(c) == 0 || role == "" {
			if requireUser {
				return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
			}
			return handler(c)
		}

		if opts.Capability != "" && !role.Can(opts.Capability) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}
		if len(opts.Roles) > 0 && !hasRole(opts.Roles, role) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}

		return handler(c)
	}
}

func hasRole(roles []models.Role, role models.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
