package repository

import (
	"context"
	"errors"

	"account-api/internal/domain"
)

var (
	// ErrNotFound indicates no user row matched the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate indicates a unique constraint rejected the write.
	ErrDuplicate = errors.New("user already exists")
)

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, user *domain.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByMail(ctx context.Context, mail string) (*domain.User, error)
	GetAll(ctx context.Context) ([]domain.User, error)
	// Update overwrites name, mail and pwd of the row with user.ID and
	// returns the number of affected rows.
	Update(ctx context.Context, user *domain.User) (int64, error)
	// Delete removes the row with the given id and returns the number of
	// affected rows.
	Delete(ctx context.Context, id int64) (int64, error)
}
