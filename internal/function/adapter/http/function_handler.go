package http

import (
	"encoding/json"

	authhttp "docbase/internal/auth/adapter/http"
	"docbase/internal/function/usecase"
	apperrors "docbase/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// FunctionHandler exposes the cloud function surface under /cloud/function.
// Invocation requires login; the management routes are admin only.
type FunctionHandler struct {
	usecase usecase.FunctionUsecaseInterface
}

// NewFunctionHandler creates a new function HTTP handler
func NewFunctionHandler(uc usecase.FunctionUsecaseInterface) *FunctionHandler {
	return &FunctionHandler{usecase: uc}
}

// RegisterRoutes mounts the function routes
func (h *FunctionHandler) RegisterRoutes(router fiber.Router) {
	login := authhttp.RequireLogin()
	admin := authhttp.RequireAdmin()

	fn := router.Group("/cloud/function")
	fn.Post("/", admin, h.Create)
	fn.Get("/:name", admin, h.Find)
	fn.Put("/:name", admin, h.Update)
	fn.Delete("/:name", admin, h.Remove)
	fn.Post("/:name", login, h.Invoke)
}

type functionBody struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Create handles POST /cloud/function
func (h *FunctionHandler) Create(c *fiber.Ctx) error {
	var body functionBody
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("request body is not valid JSON").WithCause(err)
	}

	fn, err := h.usecase.Create(c.Context(), body.Name, body.Code, authhttp.ClaimsFrom(c))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fn)
}

// Find handles GET /cloud/function/:name
func (h *FunctionHandler) Find(c *fiber.Ctx) error {
	fn, err := h.usecase.Find(c.Context(), c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(fn)
}

// Update handles PUT /cloud/function/:name
func (h *FunctionHandler) Update(c *fiber.Ctx) error {
	var body functionBody
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("request body is not valid JSON").WithCause(err)
	}
	if body.Code == "" {
		return apperrors.NewValidationError("required field code is not provided")
	}

	if err := h.usecase.Update(c.Context(), c.Params("name"), body.Code, authhttp.ClaimsFrom(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "ok"})
}

// Remove handles DELETE /cloud/function/:name
func (h *FunctionHandler) Remove(c *fiber.Ctx) error {
	if err := h.usecase.Remove(c.Context(), c.Params("name")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Invoke handles POST /cloud/function/:name. The raw JSON body is the
// script's input; the script's return value is the response body.
func (h *FunctionHandler) Invoke(c *fiber.Ctx) error {
	var input interface{}
	if raw := c.Body(); len(raw) > 0 {
		if err := json.Unmarshal(raw, &input); err != nil {
			return apperrors.NewValidationError("request body is not valid JSON").WithCause(err)
		}
	}

	result, err := h.usecase.Invoke(c.Context(), c.Params("name"), input)
	if err != nil {
		return err
	}
	return c.JSON(result)
}
