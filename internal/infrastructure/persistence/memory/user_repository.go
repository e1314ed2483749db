// Package memory holds an in-process UserRepository for single-instance development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/lsfernandes92/user-service-challenge/internal/application/ports"
	"github.com/lsfernandes92/user-service-challenge/internal/domain"
	domerrors "github.com/lsfernandes92/user-service-challenge/internal/domain/errors"
)

// UserRepository keeps users in memory with the same uniqueness rules as the postgres schema.
// Returned users are copies; callers cannot mutate stored state.
type UserRepository struct {
	mu           sync.RWMutex
	byID         map[domain.UserID]*domain.User
	byEmail      map[string]domain.UserID
	byPhone      map[string]domain.UserID
	byKey        map[string]domain.UserID
	byAccountKey map[string]domain.UserID
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:         make(map[domain.UserID]*domain.User),
		byEmail:      make(map[string]domain.UserID),
		byPhone:      make(map[string]domain.UserID),
		byKey:        make(map[string]domain.UserID),
		byAccountKey: make(map[string]domain.UserID),
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[user.Email]; ok {
		return domerrors.ErrEmailTaken
	}
	if _, ok := r.byPhone[user.PhoneNumber]; ok {
		return domerrors.ErrPhoneTaken
	}
	if _, ok := r.byKey[user.InternalKey]; ok {
		return domerrors.ErrKeyTaken
	}
	if user.HasAccountKey() {
		if _, ok := r.byAccountKey[*user.AccountKey]; ok {
			return domerrors.ErrAccountKeyTaken
		}
		r.byAccountKey[*user.AccountKey] = user.ID
	}
	r.byID[user.ID] = clone(user)
	r.byEmail[user.Email] = user.ID
	r.byPhone[user.PhoneNumber] = user.ID
	r.byKey[user.InternalKey] = user.ID
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, nil
	}
	return clone(r.byID[id]), nil
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPhone[phone]
	if !ok {
		return nil, nil
	}
	return clone(r.byID[id]), nil
}

func (r *UserRepository) ListIDs(ctx context.Context) ([]domain.UserID, error) {
	r.mu.RLock()
	users := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		users = append(users, u)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID.String() > users[j].ID.String()
	})
	ids := make([]domain.UserID, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids, nil
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []domain.UserID, filter domain.ListFilter) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		u, ok := r.byID[id]
		if !ok || !filter.Matches(u) {
			continue
		}
		out = append(out, clone(u))
	}
	return out, nil
}

func (r *UserRepository) SetAccountKey(ctx context.Context, id domain.UserID, accountKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok || u.HasAccountKey() {
		return false, nil
	}
	if _, taken := r.byAccountKey[accountKey]; taken {
		return false, domerrors.ErrAccountKeyTaken
	}
	key := accountKey
	u.AccountKey = &key
	r.byAccountKey[accountKey] = id
	return true, nil
}

func clone(u *domain.User) *domain.User {
	c := *u
	if u.AccountKey != nil {
		k := *u.AccountKey
		c.AccountKey = &k
	}
	return &c
}

var _ ports.UserRepository = (*UserRepository)(nil)
