package repository

import (
	"context"

	"docbase/internal/auth/domain/model"
)

// UserRepository persists identity records. Usernames are stored case-folded;
// lookups take the already lowercased form.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByUsernameAndEmail(ctx context.Context, username, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, username, passwordHash string) error
}
