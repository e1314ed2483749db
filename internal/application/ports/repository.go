package ports

import (
	"context"

	"github.com/lsfernandes92/user-service-challenge/internal/domain"
)

// UserRepository defines persistence for users. Uniqueness of email, phone number,
// internal key and account key is enforced here, not by callers.
type UserRepository interface {
	// Create persists a new user. Uniqueness violations map to domain errors
	// (ErrEmailTaken, ErrPhoneTaken, ErrKeyTaken).
	Create(ctx context.Context, user *domain.User) error
	// GetByEmail returns nil, nil when no user has the email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByPhone returns nil, nil when no user has the phone number.
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	// ListIDs returns every user id, most recently created first.
	ListIDs(ctx context.Context) ([]domain.UserID, error)
	// FindByIDs loads the users among ids that match filter, in the order of ids.
	FindByIDs(ctx context.Context, ids []domain.UserID, filter domain.ListFilter) ([]*domain.User, error)
	// SetAccountKey stores accountKey only if the user has none yet. It reports
	// false when a key was already present. A key held by another user yields ErrAccountKeyTaken.
	SetAccountKey(ctx context.Context, id domain.UserID, accountKey string) (bool, error)
}
