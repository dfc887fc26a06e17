package http

import (
	"docbase/internal/auth/usecase"
	apperrors "docbase/internal/shared/errors"

	"github.com/gofiber/fiber/v2"
)

// AuthHTTPHandler exposes the identity routes under /user.
type AuthHTTPHandler struct {
	usecase usecase.AuthUsecaseInterface
}

// NewAuthHTTPHandler creates a new auth HTTP handler
func NewAuthHTTPHandler(uc usecase.AuthUsecaseInterface) *AuthHTTPHandler {
	return &AuthHTTPHandler{usecase: uc}
}

// RegisterRoutes mounts the identity routes
func (h *AuthHTTPHandler) RegisterRoutes(router fiber.Router) {
	user := router.Group("/user")
	user.Post("/login", h.Login)
	user.Post("/register", h.Register)
	user.Put("/change", h.ChangePassword)
}

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func parseCredentials(c *fiber.Ctx, requireEmail bool) (*credentialsBody, error) {
	var body credentialsBody
	if err := c.BodyParser(&body); err != nil {
		return nil, apperrors.NewValidationError("request body is not valid JSON").WithCause(err)
	}
	if body.Username == "" {
		return nil, apperrors.NewValidationError("required field username is not provided")
	}
	if body.Password == "" {
		return nil, apperrors.NewValidationError("required field password is not provided")
	}
	if requireEmail && body.Email == "" {
		return nil, apperrors.NewValidationError("required field email is not provided")
	}
	return &body, nil
}

// Register handles POST /user/register
func (h *AuthHTTPHandler) Register(c *fiber.Ctx) error {
	body, err := parseCredentials(c, true)
	if err != nil {
		return err
	}
	if err := h.usecase.Register(c.Context(), body.Username, body.Password, body.Email); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "user " + body.Username + " has successfully registered",
	})
}

// Login handles POST /user/login
func (h *AuthHTTPHandler) Login(c *fiber.Ctx) error {
	body, err := parseCredentials(c, false)
	if err != nil {
		return err
	}
	result, err := h.usecase.Login(c.Context(), body.Username, body.Password)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// ChangePassword handles PUT /user/change
func (h *AuthHTTPHandler) ChangePassword(c *fiber.Ctx) error {
	body, err := parseCredentials(c, true)
	if err != nil {
		return err
	}
	if err := h.usecase.ChangePassword(c.Context(), body.Username, body.Password, body.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "ok"})
}
