package http

import (
	"errors"

	authhttp "docbase/internal/auth/adapter/http"
	"docbase/internal/collection/domain/model"
	"docbase/internal/collection/query"
	"docbase/internal/collection/usecase"
	apperrors "docbase/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson"
)

// CollectionHandler exposes the generic collection surface under
// /collection/:collection. Literal sub-routes (random, count, findDistinct,
// sum, updateMany, createMany) are registered before the :documentId routes
// so they are never shadowed by the parameter match.
type CollectionHandler struct {
	usecase usecase.CollectionUsecaseInterface
	guards  *Guards
}

// NewCollectionHandler creates a new collection HTTP handler
func NewCollectionHandler(uc usecase.CollectionUsecaseInterface, guards *Guards) *CollectionHandler {
	return &CollectionHandler{usecase: uc, guards: guards}
}

// RegisterRoutes mounts the collection routes with their guard chains.
func (h *CollectionHandler) RegisterRoutes(router fiber.Router) {
	reserved := h.guards.DenyReserved()
	restricted := h.guards.DenyRestricted()
	login := h.guards.RequireLogin()
	owner := h.guards.RequireOwner()
	admin := h.guards.RequireAdmin()

	col := router.Group("/collection")

	col.Get("/:collection/random", reserved, h.Random)
	col.Get("/:collection/count", reserved, h.Count)
	col.Get("/:collection/findDistinct", reserved, h.FindDistinct)
	col.Post("/:collection/sum", reserved, login, h.Sum)
	col.Put("/:collection/updateMany", reserved, restricted, login, admin, h.UpdateMany)
	col.Post("/:collection/createMany", reserved, restricted, login, h.CreateMany)
	col.Get("/:collection/:documentId", reserved, h.Find)
	col.Put("/:collection/:documentId", reserved, restricted, login, owner, h.Update)
	col.Delete("/:collection/:documentId", reserved, restricted, login, owner, h.Remove)
	col.Get("/:collection", reserved, h.FindMany)
	col.Post("/:collection", reserved, restricted, login, h.Create)
	col.Delete("/:collection", reserved, restricted, login, admin, h.RemoveMany)
}

// RegisterSuperpowerRoutes mounts the admin-only introspection routes.
func (h *CollectionHandler) RegisterSuperpowerRoutes(router fiber.Router) {
	sp := router.Group("/superpower")
	sp.Get("/getAllCollections", h.guards.RequireAdmin(), h.GetAllCollections)
}

type mutationData struct {
	Set   model.Document `json:"$set"`
	Unset []string       `json:"$unset"`
}

type mutationBody struct {
	Where map[string]interface{} `json:"where"`
	Data  mutationData           `json:"data"`
}

func parseMutation(c *fiber.Ctx) (*mutationBody, error) {
	body := &mutationBody{}
	// A missing body means an empty filter, which the route guards already
	// restrict to admins.
	if len(c.Body()) > 0 {
		if err := c.BodyParser(body); err != nil {
			return nil, apperrors.NewValidationError("request body is not valid JSON").WithCause(err)
		}
	}
	if body.Where == nil {
		body.Where = map[string]interface{}{}
	}
	if body.Data.Set == nil {
		body.Data.Set = model.Document{}
	}
	return body, nil
}

// Create handles POST /collection/:collection
func (h *CollectionHandler) Create(c *fiber.Ctx) error {
	var doc model.Document
	if err := c.BodyParser(&doc); err != nil {
		return apperrors.NewValidationError("request body is not valid JSON").WithCause(err)
	}

	created, err := h.usecase.Create(c.Context(), c.Params("collection"), []model.Document{doc}, authhttp.ClaimsFrom(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created[0])
}

// CreateMany handles POST /collection/:collection/createMany
func (h *CollectionHandler) CreateMany(c *fiber.Ctx) error {
	var docs []model.Document
	if err := c.BodyParser(&docs); err != nil {
		return apperrors.NewValidationError("request body is not a valid JSON array").WithCause(err)
	}
	if len(docs) == 0 {
		return apperrors.NewValidationError("request body must contain at least one document")
	}

	created, err := h.usecase.Create(c.Context(), c.Params("collection"), docs, authhttp.ClaimsFrom(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Find handles GET /collection/:collection/:documentId
func (h *CollectionHandler) Find(c *fiber.Ctx) error {
	populate, err := query.ParsePopulate(c.Query("populate"))
	if err != nil {
		return err
	}
	exclude := query.ParseExclude(c.Query("exclude"))

	doc, err := h.usecase.Get(c.Context(), c.Params("collection"), c.Params("documentId"), exclude, populate)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError("document")
		}
		return err
	}
	return c.JSON(doc)
}

// FindMany handles GET /collection/:collection
func (h *CollectionHandler) FindMany(c *fiber.Ctx) error {
	opts, err := query.ParseList(
		c.Query("where"),
		c.Query("exclude"),
		c.Query("populate"),
		c.QueryInt("pageSize"),
		c.QueryInt("pageNo"),
		c.QueryInt("sortOrder"),
	)
	if err != nil {
		return err
	}

	docs, err := h.usecase.List(c.Context(), c.Params("collection"), opts)
	if err != nil {
		return err
	}
	return c.JSON(docs)
}

// Update handles PUT /collection/:collection/:documentId
func (h *CollectionHandler) Update(c *fiber.Ctx) error {
	body, err := parseMutation(c)
	if err != nil {
		return err
	}

	result, err := h.usecase.Update(c.Context(), c.Params("collection"), c.Params("documentId"), body.Data.Set, body.Data.Unset, authhttp.ClaimsFrom(c))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError("document")
		}
		return err
	}
	return c.JSON(result)
}

// UpdateMany handles PUT /collection/:collection/updateMany
func (h *CollectionHandler) UpdateMany(c *fiber.Ctx) error {
	body, err := parseMutation(c)
	if err != nil {
		return err
	}

	result, err := h.usecase.UpdateMany(c.Context(), c.Params("collection"), bson.M(body.Where), body.Data.Set, body.Data.Unset, authhttp.ClaimsFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// Remove handles DELETE /collection/:collection/:documentId
func (h *CollectionHandler) Remove(c *fiber.Ctx) error {
	if err := h.usecase.Delete(c.Context(), c.Params("collection"), c.Params("documentId")); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NewNotFoundError("document")
		}
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveMany handles DELETE /collection/:collection. An empty filter removes
// every document, which is why the route is admin-gated.
func (h *CollectionHandler) RemoveMany(c *fiber.Ctx) error {
	body, err := parseMutation(c)
	if err != nil {
		return err
	}

	if err := h.usecase.DeleteMany(c.Context(), c.Params("collection"), bson.M(body.Where)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Count handles GET /collection/:collection/count
func (h *CollectionHandler) Count(c *fiber.Ctx) error {
	where, err := query.ParseWhere(c.Query("where"))
	if err != nil {
		return err
	}

	count, err := h.usecase.Count(c.Context(), c.Params("collection"), where)
	if err != nil {
		return err
	}
	return c.JSON(count)
}

// FindDistinct handles GET /collection/:collection/findDistinct
func (h *CollectionHandler) FindDistinct(c *fiber.Ctx) error {
	field := c.Query("distinct")
	if field == "" {
		return apperrors.NewValidationError("required field distinct is not provided")
	}
	where, err := query.ParseWhere(c.Query("where"))
	if err != nil {
		return err
	}

	values, err := h.usecase.Distinct(c.Context(), c.Params("collection"), field, where)
	if err != nil {
		return err
	}
	return c.JSON(values)
}

type sumBody struct {
	Where map[string]interface{} `json:"where"`
	Field string                 `json:"field"`
}

// Sum handles POST /collection/:collection/sum
func (h *CollectionHandler) Sum(c *fiber.Ctx) error {
	var body sumBody
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("request body is not valid JSON").WithCause(err)
	}
	if body.Field == "" {
		return apperrors.NewValidationError("required field field is not provided")
	}

	total, err := h.usecase.Sum(c.Context(), c.Params("collection"), body.Field, query.NormalizeSumWhere(bson.M(body.Where)))
	if err != nil {
		return err
	}
	return c.JSON(total)
}

// Random handles GET /collection/:collection/random
func (h *CollectionHandler) Random(c *fiber.Ctx) error {
	where, err := query.ParseWhere(c.Query("where"))
	if err != nil {
		return err
	}
	size := int64(c.QueryInt("size", query.DefaultPageSize))
	if size <= 0 {
		size = query.DefaultPageSize
	}
	if size > query.MaxPageSize {
		size = query.MaxPageSize
	}

	docs, err := h.usecase.Random(c.Context(), c.Params("collection"), where, size, query.ParseExclude(c.Query("exclude")))
	if err != nil {
		return err
	}
	return c.JSON(docs)
}

// GetAllCollections handles GET /superpower/getAllCollections
func (h *CollectionHandler) GetAllCollections(c *fiber.Ctx) error {
	names, err := h.usecase.ListCollections(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(names)
}
