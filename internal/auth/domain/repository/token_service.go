package repository

import (
	"context"

	"docbase/internal/auth/domain/model"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the verified contents of a bearer credential. Role is a pointer
// on purpose: the login guard requires a non-null role, and an anonymous or
// malformed token must not decay to role 0.
type Claims struct {
	UID  string `json:"uid"`
	Role *int   `json:"role"`
	jwt.RegisteredClaims
}

// HasRole reports whether the claims carry any role, i.e. the caller is
// logged in.
func (c *Claims) HasRole() bool {
	return c != nil && c.Role != nil
}

// IsAdmin reports whether the claims carry the administrator role.
func (c *Claims) IsAdmin() bool {
	return c.HasRole() && *c.Role == model.RoleAdmin
}

// TokenService issues and verifies bearer credentials. The document core
// never touches raw tokens; it only sees Claims.
type TokenService interface {
	GenerateToken(ctx context.Context, uid string, role int) (token string, expiredAt int64, err error)
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}
