package cache

import (
	"context"
	"sync"
	"time"

	"github.com/lsfernandes92/user-service-challenge/internal/domain"
)

// MemoryStore keeps the snapshot in process. Suitable for single-instance deployment; for multiple
// instances use RedisStore so they share one snapshot.
type MemoryStore struct {
	mu        sync.RWMutex
	ids       []domain.UserID
	expiresAt time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// NewMemoryStoreWithClock is NewMemoryStore with an injected clock.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{now: now}
}

func (s *MemoryStore) Get(ctx context.Context) ([]domain.UserID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ids == nil || !s.now().Before(s.expiresAt) {
		return nil, false, nil
	}
	out := make([]domain.UserID, len(s.ids))
	copy(out, s.ids)
	return out, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, ids []domain.UserID, ttl time.Duration) error {
	cp := make([]domain.UserID, len(ids))
	copy(cp, ids)
	s.mu.Lock()
	s.ids = cp
	s.expiresAt = s.now().Add(ttl)
	s.mu.Unlock()
	return nil
}

var _ SnapshotStore = (*MemoryStore)(nil)
