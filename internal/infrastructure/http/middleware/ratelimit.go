package middleware

import (
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlib "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const rateLimitPrefix = "userservice:ratelimit"

// NewIPRateLimiter returns middleware that limits by client IP.
// rateFormatted: "100-M", "1000-H", "50-S"; empty disables. Counters live in Redis when rdb is set,
// so every instance shares them; otherwise in process memory.
func NewIPRateLimiter(rateFormatted string, rdb *redis.Client) (func(next http.Handler) http.Handler, error) {
	if rateFormatted == "" {
		return noopMiddleware, nil
	}
	rate, err := limiter.NewRateFromFormatted(rateFormatted)
	if err != nil {
		return nil, err
	}
	var store limiter.Store
	if rdb != nil {
		store, err = sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: rateLimitPrefix})
		if err != nil {
			return nil, err
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: rateLimitPrefix})
	}
	instance := limiter.New(store, rate)
	mw := stdlib.NewMiddleware(instance, stdlib.WithLimitReachedHandler(limitReached))
	return mw.Handler, nil
}

func limitReached(w http.ResponseWriter, r *http.Request) {
	writeErrors(w, http.StatusTooManyRequests, "rate limit exceeded")
}

func noopMiddleware(next http.Handler) http.Handler {
	return next
}
