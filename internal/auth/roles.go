package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-io/helpdesk-service/internal/domain"
)

// RequireRole gates a route on a minimum role using the ordered role ranking.
func RequireRole(min domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !principal.User.Role.AtLeast(min) {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures the caller is logged in, any role.
func RequireAuthenticated() fiber.Handler {
	return RequireRole(domain.RoleEmployee)
}
