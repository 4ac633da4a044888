package repository

import (
	"context"
	"errors"

	"authgate/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail is returned when a write violates the unique email index.
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository defines the persistence operations for user documents.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// GetByIdentifier matches the identifier against email or username.
	// The schema defines no username field, so in practice only email matches;
	// the dual lookup is kept for parity with the credential login contract.
	GetByIdentifier(ctx context.Context, identifier string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	// UpsertOAuthUser atomically finds-or-creates a user keyed on the unique
	// email. An existing user's image is overwritten with the provider value.
	UpsertOAuthUser(ctx context.Context, name, email, imageURL string) (*entity.User, error)
}
