// Package cache serves the time-bounded listing snapshot.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/lsfernandes92/user-service-challenge/internal/application/ports"
	"github.com/lsfernandes92/user-service-challenge/internal/domain"
)

// DefaultTTL bounds how stale the listing membership and ordering may be.
const DefaultTTL = 5 * time.Second

// Loader recomputes the full id snapshot, most recently created first.
type Loader func(ctx context.Context) ([]domain.UserID, error)

// SnapshotStore holds the last computed snapshot until its TTL elapses.
// Get reports ok=false on a miss or an expired entry.
type SnapshotStore interface {
	Get(ctx context.Context) (ids []domain.UserID, ok bool, err error)
	Set(ctx context.Context, ids []domain.UserID, ttl time.Duration) error
}

// ListingCache returns the cached snapshot while fresh and recomputes it at most once per expiry.
// Writes never invalidate it.
type ListingCache struct {
	load  Loader
	store SnapshotStore
	ttl   time.Duration
	group singleflight.Group
	log   zerolog.Logger
}

// NewListingCache returns a cache over store. ttl <= 0 uses DefaultTTL.
func NewListingCache(load Loader, store SnapshotStore, ttl time.Duration, log zerolog.Logger) *ListingCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ListingCache{load: load, store: store, ttl: ttl, log: log}
}

func (c *ListingCache) Snapshot(ctx context.Context) ([]domain.UserID, error) {
	if ids, ok := c.cached(ctx); ok {
		return ids, nil
	}
	// Waiters share the leader's result, so one caller's cancellation must not fail the rest.
	v, err, _ := c.group.Do("listing", func() (any, error) {
		ctx := context.WithoutCancel(ctx)
		if ids, ok := c.cached(ctx); ok {
			return ids, nil
		}
		ids, err := c.load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load listing snapshot: %w", err)
		}
		if ids == nil {
			ids = []domain.UserID{}
		}
		if err := c.store.Set(ctx, ids, c.ttl); err != nil {
			c.log.Warn().Err(err).Msg("store listing snapshot failed")
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.UserID), nil
}

func (c *ListingCache) cached(ctx context.Context) ([]domain.UserID, bool) {
	ids, ok, err := c.store.Get(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("read listing snapshot failed; recomputing")
		return nil, false
	}
	return ids, ok
}

var _ ports.ListingSnapshot = (*ListingCache)(nil)
