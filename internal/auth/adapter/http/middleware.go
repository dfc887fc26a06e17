package http

import (
	"strings"

	"docbase/internal/auth/domain/repository"
	"docbase/internal/shared/contextkeys"
	apperrors "docbase/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// ClaimsFrom returns the decoded claims attached to the request, or nil when
// the caller is anonymous.
func ClaimsFrom(c *fiber.Ctx) *repository.Claims {
	claims, _ := c.Locals(string(contextkeys.ClaimsKey)).(*repository.Claims)
	return claims
}

// RequireLogin rejects anonymous callers and callers whose token carries no
// role claim.
func RequireLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := ClaimsFrom(c)
		if claims == nil || claims.Role == nil {
			return apperrors.NewAuthorizationError("please login first")
		}
		return c.Next()
	}
}

// RequireAdmin restricts a route to administrators.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := ClaimsFrom(c)
		if claims == nil || !claims.IsAdmin() {
			return apperrors.NewAuthorizationError("administrator permission required")
		}
		return c.Next()
	}
}

// AuthMiddleware decodes the bearer credential for every request.
type AuthMiddleware struct {
	tokenSvc repository.TokenService
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(tokenSvc repository.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

// DecodeClaims verifies the Authorization header when present and stores the
// claims in the request locals. A request without a token passes through
// anonymously; the guards downstream decide whether that is acceptable. A
// token that is present but invalid is rejected here.
func (m *AuthMiddleware) DecodeClaims() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return c.Next()
		}

		parts := strings.SplitN(authorization, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return c.Next()
		}

		claims, err := m.tokenSvc.ValidateToken(c.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			return apperrors.NewAuthorizationError("token has expired. Please login again").WithCause(err)
		}

		c.Locals(string(contextkeys.ClaimsKey), claims)
		return c.Next()
	}
}
