package ports

import (
	"context"

	"github.com/lsfernandes92/user-service-challenge/internal/domain"
)

// ListingSnapshot serves the cached, time-bounded set of user ids used by the listing endpoint.
// Membership and ordering may lag writes by up to the cache TTL.
type ListingSnapshot interface {
	Snapshot(ctx context.Context) ([]domain.UserID, error)
}
