package middleware

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/student-portal-api/internal/models"
	"github.com/noah-isme/student-portal-api/internal/service"
	"github.com/noah-isme/student-portal-api/internal/utils"
)

const sessionClaimsKey = "session_claims"

// TokenParser verifies portal session tokens.
type TokenParser interface {
	Enabled() bool
	Parse(token string) (*service.SessionClaims, error)
}

// SessionAuth validates bearer tokens when tokens are enabled and passes every
// request through otherwise.
func SessionAuth(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if parser == nil || !parser.Enabled() {
			return c.Next()
		}

		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if len(authorization) < len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, err := parser.Parse(tokenString)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(sessionClaimsKey, claims)
		c.Locals("user_id", claims.Subject)
		c.Locals("user_role", claims.Role)

		return c.Next()
	}
}

// SessionFromContext returns the verified claims bound by SessionAuth.
func SessionFromContext(c *fiber.Ctx) (*service.SessionClaims, bool) {
	claims, ok := c.Locals(sessionClaimsKey).(*service.SessionClaims)
	return claims, ok && claims != nil
}

// RequireStudentAccess lets teachers through and students only for their own
// record, matched against the named route parameter.
func RequireStudentAccess(parser TokenParser, param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if parser == nil || !parser.Enabled() {
			return c.Next()
		}

		claims, ok := SessionFromContext(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if claims.Role == service.RoleTeacher {
			return c.Next()
		}

		requested := models.NormalizeDisplayName(PathParam(c, param))
		if requested == "" || requested != models.NormalizeDisplayName(claims.Subject) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

// PathParam returns the decoded value of a route parameter.
func PathParam(c *fiber.Ctx, key string) string {
	raw := c.Params(key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// RequireRole rejects sessions whose role is not one of roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		claims, ok := SessionFromContext(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}
		if _, ok := allowed[strings.ToLower(claims.Role)]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
