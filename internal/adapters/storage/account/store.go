package account

import (
	"context"

	domain "outreach/internal/domain/account"
)

// Store persists Account state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	GetByIDNumber(ctx context.Context, idNumber int64) (domain.Account, error)
	// Create inserts a new account and allocates its IDNumber. The returned
	// account carries the allocated number.
	Create(ctx context.Context, value domain.Account) (domain.Account, error)
	Save(ctx context.Context, value domain.Account) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter ListFilter) ([]domain.Account, error)
	Count(ctx context.Context) (int, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Limit  int
	Offset int
	Role   string
}
