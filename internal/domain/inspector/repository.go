package inspector

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for inspector account operations
type Repository interface {
	Create(ctx context.Context, insp *Inspector) error
	GetByID(ctx context.Context, id uuid.UUID) (*Inspector, error)
	GetByEmail(ctx context.Context, email string) (*Inspector, error)
	GetAll(ctx context.Context) ([]*Inspector, error)
	Update(ctx context.Context, insp *Inspector) error
	// UpdatePassword replaces the hash and clears MustChangePassword
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
}
