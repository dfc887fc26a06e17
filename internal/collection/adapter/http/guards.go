package http

import (
	"context"
	"errors"

	authhttp "docbase/internal/auth/adapter/http"
	"docbase/internal/collection/config"
	"docbase/internal/collection/domain/model"
	apperrors "docbase/internal/shared/errors"
	"docbase/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
)

// OwnerLoader resolves who created a document. The ownership guard needs
// nothing else from the store.
type OwnerLoader interface {
	Owner(ctx context.Context, collection, id string) (string, error)
}

// Guards is the ordered authorization chain in front of every collection
// route. Each guard either passes the request on or rejects it; rejection
// reasons are distinct so callers can tell a closed collection from a
// missing login from a foreign document.
type Guards struct {
	cfg    *config.Config
	owners OwnerLoader
	log    logger.Logger
}

// NewGuards creates the collection guard chain
func NewGuards(cfg *config.Config, owners OwnerLoader, log logger.Logger) *Guards {
	return &Guards{
		cfg:    cfg,
		owners: owners,
		log:    log.WithComponent("guards"),
	}
}

// DenyReserved rejects any access to the built-in reserved collections.
// Those hold credentials and executable code and are only reachable through
// their dedicated modules.
func (g *Guards) DenyReserved() fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("collection")
		if model.IsSensitiveCollection(name) {
			return apperrors.NewAuthorizationError("collection " + name + " is reserved")
		}
		return c.Next()
	}
}

// DenyRestricted rejects access to collections the operator has closed via
// configuration. Administrators are exempt; the denylist constrains regular
// callers only.
func (g *Guards) DenyRestricted() fiber.Handler {
	return func(c *fiber.Ctx) error {
		name := c.Params("collection")
		if claims := authhttp.ClaimsFrom(c); claims != nil && claims.IsAdmin() {
			return c.Next()
		}
		if g.cfg.IsRestricted(name) {
			return apperrors.NewAuthorizationError("collection " + name + " is restricted")
		}
		return c.Next()
	}
}

// RequireLogin rejects anonymous callers and callers whose token carries no
// role claim.
func (g *Guards) RequireLogin() fiber.Handler {
	return authhttp.RequireLogin()
}

// RequireOwner allows a write only to the document's creator or to an
// administrator. A document that cannot be found is reported as such rather
// than as a permission problem.
func (g *Guards) RequireOwner() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := authhttp.ClaimsFrom(c)
		if claims == nil {
			return apperrors.NewAuthorizationError("please login first")
		}
		if claims.IsAdmin() {
			return c.Next()
		}

		collection := c.Params("collection")
		id := c.Params("documentId")
		owner, err := g.owners.Owner(c.Context(), collection, id)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NewNotFoundError("document")
			}
			return apperrors.NewInternalError("failed to load document owner").WithCause(err)
		}
		if owner != claims.UID {
			return apperrors.NewAuthorizationError("only the creator can modify this document")
		}
		return c.Next()
	}
}

// RequireAdmin restricts a route to administrators.
func (g *Guards) RequireAdmin() fiber.Handler {
	return authhttp.RequireAdmin()
}
