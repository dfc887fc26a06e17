package usecase

import (
	"context"
	"errors"
	"time"

	authrepo "docbase/internal/auth/domain/repository"
	"docbase/internal/function/domain/model"
	"docbase/internal/function/domain/repository"
	apperrors "docbase/internal/shared/errors"
	"docbase/internal/shared/logger"
)

// ScriptExecutor runs a stored script against an input value.
type ScriptExecutor interface {
	Execute(ctx context.Context, code string, input interface{}) (interface{}, error)
}

// FunctionUsecaseInterface is what the HTTP adapter depends on.
type FunctionUsecaseInterface interface {
	Create(ctx context.Context, name, code string, claims *authrepo.Claims) (*model.CloudFunction, error)
	Find(ctx context.Context, name string) (*model.CloudFunction, error)
	Update(ctx context.Context, name, code string, claims *authrepo.Claims) error
	Remove(ctx context.Context, name string) error
	Invoke(ctx context.Context, name string, input interface{}) (interface{}, error)
}

// FunctionUsecase manages stored scripts and their sandboxed invocation.
type FunctionUsecase struct {
	repo     repository.FunctionRepository
	cache    repository.CodeCache
	executor ScriptExecutor
	log      logger.Logger
	now      func() time.Time
}

// NewFunctionUsecase creates a new function usecase
func NewFunctionUsecase(repo repository.FunctionRepository, cache repository.CodeCache, executor ScriptExecutor, log logger.Logger) *FunctionUsecase {
	return &FunctionUsecase{
		repo:     repo,
		cache:    cache,
		executor: executor,
		log:      log.WithComponent("function"),
		now:      time.Now,
	}
}

// Create stores a new function record stamped with the creator.
func (uc *FunctionUsecase) Create(ctx context.Context, name, code string, claims *authrepo.Claims) (*model.CloudFunction, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("required field name is not provided")
	}
	if code == "" {
		return nil, apperrors.NewValidationError("required field code is not provided")
	}

	fn := &model.CloudFunction{
		Name:      name,
		Code:      code,
		CreatedAt: uc.now().Unix(),
	}
	if claims != nil {
		fn.CreatedBy = claims.UID
	}

	if err := uc.repo.Create(ctx, fn); err != nil {
		return nil, err
	}
	// A newer record now shadows any cached older code under this name.
	uc.cache.Invalidate(ctx, name)
	return fn, nil
}

// Find loads the newest record with the name.
func (uc *FunctionUsecase) Find(ctx context.Context, name string) (*model.CloudFunction, error) {
	fn, err := uc.repo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrFunctionNotFound) {
			return nil, apperrors.NewNotFoundError("function " + name)
		}
		return nil, err
	}
	return fn, nil
}

// Update replaces the code of the stored function.
func (uc *FunctionUsecase) Update(ctx context.Context, name, code string, claims *authrepo.Claims) error {
	uid := ""
	if claims != nil {
		uid = claims.UID
	}
	if err := uc.repo.UpdateCode(ctx, name, code, uid, uc.now().Unix()); err != nil {
		if errors.Is(err, repository.ErrFunctionNotFound) {
			return apperrors.NewNotFoundError("function " + name)
		}
		return err
	}
	uc.cache.Invalidate(ctx, name)
	return nil
}

// Remove deletes the stored function.
func (uc *FunctionUsecase) Remove(ctx context.Context, name string) error {
	if err := uc.repo.Delete(ctx, name); err != nil {
		if errors.Is(err, repository.ErrFunctionNotFound) {
			return apperrors.NewNotFoundError("function " + name)
		}
		return err
	}
	uc.cache.Invalidate(ctx, name)
	return nil
}

// Invoke resolves the function source (cache first) and executes it against
// the input. Script failures of any kind surface as a conflict carrying the
// cause message, never as a process failure.
func (uc *FunctionUsecase) Invoke(ctx context.Context, name string, input interface{}) (interface{}, error) {
	code, cached := uc.cache.Get(ctx, name)
	if !cached {
		fn, err := uc.repo.GetByName(ctx, name)
		if err != nil {
			if errors.Is(err, repository.ErrFunctionNotFound) {
				return nil, apperrors.NewNotFoundError("function " + name)
			}
			return nil, err
		}
		code = fn.Code
		uc.cache.Set(ctx, name, code)
	}

	result, err := uc.executor.Execute(ctx, code, input)
	if err != nil {
		uc.log.WithFields(map[string]interface{}{"function": name}).Warnf("invocation failed: %v", err)
		return nil, apperrors.NewConflictError("function " + name + " failed: " + err.Error()).WithCause(err)
	}
	return result, nil
}
