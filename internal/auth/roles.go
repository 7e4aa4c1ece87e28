package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/domain"
)

// RequireCitizen ensures a citizen is authenticated.
func RequireCitizen() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeCitizen {
			return fiber.NewError(http.StatusForbidden, "citizen required")
		}
		return c.Next()
	}
}

// RequireOfficerRole ensures the officer principal has one of the allowed roles.
func RequireOfficerRole(allowed ...domain.OfficerRole) fiber.Handler {
	allowedSet := make(map[domain.OfficerRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeOfficer || principal.Officer == nil {
			return fiber.NewError(http.StatusForbidden, "officer role required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Officer.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated (citizen or officer).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
