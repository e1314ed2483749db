package users

import (
	"context"
	"fmt"

	"github.com/lsfernandes92/user-service-challenge/internal/application/ports"
	"github.com/lsfernandes92/user-service-challenge/internal/domain"
)

type ListUsersInput struct {
	Filter domain.ListFilter
}

type ListUsersResult struct {
	Users []*domain.User
}

// ListUsers bounds the result set by the cached id snapshot and loads row data fresh by id.
// Only membership and ordering can be stale, never field values.
type ListUsers struct {
	snapshot ports.ListingSnapshot
	users    ports.UserRepository
}

func NewListUsers(snapshot ports.ListingSnapshot, users ports.UserRepository) *ListUsers {
	return &ListUsers{snapshot: snapshot, users: users}
}

func (uc *ListUsers) Execute(ctx context.Context, input ListUsersInput) (*ListUsersResult, error) {
	ids, err := uc.snapshot.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing snapshot: %w", err)
	}
	if len(ids) == 0 {
		return &ListUsersResult{Users: []*domain.User{}}, nil
	}
	users, err := uc.users.FindByIDs(ctx, ids, input.Filter)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return &ListUsersResult{Users: users}, nil
}
