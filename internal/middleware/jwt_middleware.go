package middleware

import (
	"errors"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/services"
	"storefront/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// ClaimsKey is the fiber.Ctx Locals key holding the verified *services.Claims.
const ClaimsKey = "claims"

// CredentialVerifier decodes the raw credential of a request.
type CredentialVerifier interface {
	VerifyCredential(raw string) (*services.Claims, error)
}

// AuthRequired is a Fiber middleware that verifies the credential sent in
// header and stores the resulting claims for subsequent handlers.
func AuthRequired(verifier CredentialVerifier, header string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := verifier.VerifyCredential(c.Get(header))
		if err != nil {
			if errors.Is(err, apperr.ErrMissingCredential) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"message": "Access denied. No token provided.",
				})
			}
			logger.Debug(c.UserContext()).Err(err).Msg("credential verification failed")
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals(ClaimsKey, claims)
		c.Locals("user_id", claims.UserID)
		c.Locals("username", claims.Username)

		return c.Next()
	}
}

// ClaimsFrom returns the claims stored by AuthRequired.
func ClaimsFrom(c *fiber.Ctx) (*services.Claims, bool) {
	claims, ok := c.Locals(ClaimsKey).(*services.Claims)
	return claims, ok && claims != nil
}

// RequireRole lets the request through only when the verified claims grant
// role. It must run after AuthRequired.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := ClaimsFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Access denied. No token provided.",
			})
		}
		if !claims.HasRole(role) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Access denied.",
			})
		}
		return c.Next()
	}
}

// RequireSeller allows sellers only.
func RequireSeller() fiber.Handler { return RequireRole(models.RoleSeller) }

// RequireAdmin allows admins only.
func RequireAdmin() fiber.Handler { return RequireRole(models.RoleAdmin) }
