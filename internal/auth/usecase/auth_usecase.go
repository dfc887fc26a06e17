package usecase

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"docbase/internal/auth/config"
	"docbase/internal/auth/domain/model"
	"docbase/internal/auth/domain/repository"
	apperrors "docbase/internal/shared/errors"
	"docbase/internal/shared/logger"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// LoginResult is the response shape for a successful login.
type LoginResult struct {
	Token     string                 `json:"token"`
	User      map[string]interface{} `json:"user"`
	ExpiredAt int64                  `json:"expiredAt"`
}

// AuthUsecaseInterface defines the identity operations the HTTP layer uses.
type AuthUsecaseInterface interface {
	Register(ctx context.Context, username, password, email string) error
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	ChangePassword(ctx context.Context, username, password, email string) error
	ValidateToken(ctx context.Context, token string) (*repository.Claims, error)
}

// AuthUsecase implements identity management on top of the user repository
// and the token service.
type AuthUsecase struct {
	repo     repository.UserRepository
	tokenSvc repository.TokenService
	cfg      *config.Config
	log      logger.Logger
}

// NewAuthUsecase creates a new auth usecase instance
func NewAuthUsecase(repo repository.UserRepository, tokenSvc repository.TokenService, cfg *config.Config, log logger.Logger) *AuthUsecase {
	return &AuthUsecase{
		repo:     repo,
		tokenSvc: tokenSvc,
		cfg:      cfg,
		log:      log.WithComponent("auth"),
	}
}

// Register creates a new normal-role user. Registration can be closed by
// configuration.
func (uc *AuthUsecase) Register(ctx context.Context, username, password, email string) error {
	if !uc.cfg.AllowRegister {
		return apperrors.NewAuthorizationError("registration is not open")
	}
	if !emailRe.MatchString(strings.ToLower(email)) {
		return apperrors.NewValidationError("field email is not a valid email address")
	}

	if _, err := uc.repo.GetUserByUsername(ctx, username); err == nil {
		return apperrors.NewAuthorizationError("the username has been taken")
	} else if !apperrors.IsNotFound(err) {
		return apperrors.WrapError(err, "failed to look up username")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return apperrors.WrapError(err, "failed to hash password")
	}

	user := &model.User{
		Username:  strings.ToLower(username),
		Password:  string(hashed),
		Email:     email,
		Role:      model.RoleUser,
		CreatedAt: time.Now().Unix(),
	}
	if err := uc.repo.CreateUser(ctx, user); err != nil {
		return apperrors.WrapError(err, "failed to create user")
	}

	uc.log.WithContext(ctx).Infof("user %s registered", user.Username)
	return nil
}

// Login verifies the password and issues a signed token carrying {role, uid}.
func (uc *AuthUsecase) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := uc.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewAuthorizationError("username and password mismatch")
		}
		return nil, apperrors.WrapError(err, "failed to look up user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, apperrors.NewAuthorizationError("username and password mismatch")
	}

	token, expiredAt, err := uc.tokenSvc.GenerateToken(ctx, user.UID, user.Role)
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to issue token")
	}

	return &LoginResult{
		Token:     token,
		User:      user.Public(),
		ExpiredAt: expiredAt,
	}, nil
}

// ChangePassword replaces the password of the user matching both username
// and email.
func (uc *AuthUsecase) ChangePassword(ctx context.Context, username, password, email string) error {
	if !emailRe.MatchString(strings.ToLower(email)) {
		return apperrors.NewValidationError("field email is not a valid email address")
	}

	user, err := uc.repo.GetUserByUsernameAndEmail(ctx, username, email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewAuthorizationError(
				fmt.Sprintf("user %s is not found or the email given and username mismatch", username))
		}
		return apperrors.WrapError(err, "failed to look up user")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return apperrors.WrapError(err, "failed to hash password")
	}
	if err := uc.repo.UpdatePassword(ctx, user.Username, string(hashed)); err != nil {
		return apperrors.WrapError(err, "failed to update password")
	}
	return nil
}

// ValidateToken decodes a bearer token into claims
func (uc *AuthUsecase) ValidateToken(ctx context.Context, token string) (*repository.Claims, error) {
	return uc.tokenSvc.ValidateToken(ctx, token)
}
