package repository

import (
	"context"
	"errors"

	"docbase/internal/function/domain/model"
)

// ErrFunctionNotFound is returned when no stored script carries the name.
var ErrFunctionNotFound = errors.New("function not found")

// FunctionRepository persists cloud function records in the core database.
type FunctionRepository interface {
	Create(ctx context.Context, fn *model.CloudFunction) error
	// GetByName resolves a name to its newest record.
	GetByName(ctx context.Context, name string) (*model.CloudFunction, error)
	UpdateCode(ctx context.Context, name, code, uid string, at int64) error
	Delete(ctx context.Context, name string) error
}

// CodeCache is an optional read-through cache for function source keyed by
// name. Implementations are best-effort: a cache failure must never fail an
// invocation.
type CodeCache interface {
	Get(ctx context.Context, name string) (string, bool)
	Set(ctx context.Context, name, code string)
	Invalidate(ctx context.Context, name string)
}
