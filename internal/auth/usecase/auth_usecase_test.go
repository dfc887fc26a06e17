package usecase_test

import (
	"context"
	"testing"
	"time"

	"docbase/internal/auth/config"
	"docbase/internal/auth/domain/model"
	"docbase/internal/auth/domain/repository"
	"docbase/internal/auth/usecase"
	apperrors "docbase/internal/shared/errors"
	"docbase/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// Mock repository
type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepository) GetUserByUsernameAndEmail(ctx context.Context, username, email string) (*model.User, error) {
	args := m.Called(ctx, username, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	args := m.Called(ctx, username, passwordHash)
	return args.Error(0)
}

// Mock token service
type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) GenerateToken(ctx context.Context, uid string, role int) (string, int64, error) {
	args := m.Called(ctx, uid, role)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

func (m *mockTokenService) ValidateToken(ctx context.Context, tokenString string) (*repository.Claims, error) {
	args := m.Called(ctx, tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Claims), args.Error(1)
}

func newTestUsecase(t *testing.T) (*usecase.AuthUsecase, *mockUserRepository, *mockTokenService) {
	t.Helper()
	repo := &mockUserRepository{}
	tokenSvc := &mockTokenService{}
	cfg := &config.Config{
		JWTSecretKey:   "test-secret",
		AccessTokenTTL: time.Hour,
		AllowRegister:  true,
	}
	uc := usecase.NewAuthUsecase(repo, tokenSvc, cfg, logger.NewLoggerWithConfig("error", "text"))
	return uc, repo, tokenSvc
}

func TestRegisterStampsNormalRole(t *testing.T) {
	uc, repo, _ := newTestUsecase(t)

	repo.On("GetUserByUsername", mock.Anything, "Alice").Return(nil, apperrors.ErrUserNotFound)
	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Username == "alice" && u.Role == model.RoleUser && u.CreatedAt > 0 && u.Password != "secret"
	})).Return(nil)

	err := uc.Register(context.Background(), "Alice", "secret", "alice@example.com")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRegisterClosed(t *testing.T) {
	repo := &mockUserRepository{}
	tokenSvc := &mockTokenService{}
	cfg := &config.Config{JWTSecretKey: "s", AccessTokenTTL: time.Hour, AllowRegister: false}
	uc := usecase.NewAuthUsecase(repo, tokenSvc, cfg, logger.NewLoggerWithConfig("error", "text"))

	err := uc.Register(context.Background(), "alice", "secret", "alice@example.com")
	assert.True(t, apperrors.IsAuthorization(err))
}

func TestRegisterRejectsBadEmail(t *testing.T) {
	uc, _, _ := newTestUsecase(t)
	err := uc.Register(context.Background(), "alice", "secret", "not-an-email")
	assert.True(t, apperrors.IsValidation(err))
}

func TestRegisterTakenUsername(t *testing.T) {
	uc, repo, _ := newTestUsecase(t)
	repo.On("GetUserByUsername", mock.Anything, "alice").
		Return(&model.User{UID: "u1", Username: "alice"}, nil)

	err := uc.Register(context.Background(), "alice", "secret", "alice@example.com")
	assert.True(t, apperrors.IsAuthorization(err))
}

func TestLoginIssuesToken(t *testing.T) {
	uc, repo, tokenSvc := newTestUsecase(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo.On("GetUserByUsername", mock.Anything, "alice").Return(&model.User{
		UID: "u1", Username: "alice", Password: string(hash), Role: model.RoleUser, CreatedAt: 1700000000,
	}, nil)
	tokenSvc.On("GenerateToken", mock.Anything, "u1", model.RoleUser).
		Return("signed-token", int64(1800000000), nil)

	result, err := uc.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "signed-token", result.Token)
	assert.Equal(t, int64(1800000000), result.ExpiredAt)

	// The client-visible user never carries the password hash.
	_, hasPassword := result.User["password"]
	assert.False(t, hasPassword)
	assert.Equal(t, "u1", result.User["uid"])
}

func TestLoginWrongPassword(t *testing.T) {
	uc, repo, _ := newTestUsecase(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	repo.On("GetUserByUsername", mock.Anything, "alice").Return(&model.User{
		UID: "u1", Username: "alice", Password: string(hash),
	}, nil)

	_, err = uc.Login(context.Background(), "alice", "wrong")
	assert.True(t, apperrors.IsAuthorization(err))
}

func TestLoginUnknownUserSameError(t *testing.T) {
	uc, repo, _ := newTestUsecase(t)
	repo.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, apperrors.ErrUserNotFound)

	_, err := uc.Login(context.Background(), "ghost", "whatever")
	// Unknown user and wrong password are indistinguishable to the caller.
	assert.True(t, apperrors.IsAuthorization(err))
}

func TestChangePasswordRequiresMatchingEmail(t *testing.T) {
	uc, repo, _ := newTestUsecase(t)
	repo.On("GetUserByUsernameAndEmail", mock.Anything, "alice", "other@example.com").
		Return(nil, apperrors.ErrUserNotFound)

	err := uc.ChangePassword(context.Background(), "alice", "newpass", "other@example.com")
	assert.True(t, apperrors.IsAuthorization(err))
}

func TestChangePasswordStoresNewHash(t *testing.T) {
	uc, repo, _ := newTestUsecase(t)
	repo.On("GetUserByUsernameAndEmail", mock.Anything, "alice", "alice@example.com").
		Return(&model.User{UID: "u1", Username: "alice"}, nil)
	repo.On("UpdatePassword", mock.Anything, "alice", mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("newpass")) == nil
	})).Return(nil)

	err := uc.ChangePassword(context.Background(), "alice", "newpass", "alice@example.com")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
