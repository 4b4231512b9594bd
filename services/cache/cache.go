package cache

import (
	"errors"
	"strconv"
	"time"

	apperrors "sjsage522/legodealworker/pkg/errors"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error
}

// RateLimitGuard records in the cache that a source asked us to back off, so
// every crawler sharing the cache skips it until the key expires
type RateLimitGuard struct {
	Cache     CacheService
	Key       string
	BlockTime time.Duration
}

// Blocked reports whether the source is currently blocked. A nil guard or a
// guard without a cache never blocks.
func (g *RateLimitGuard) Blocked() bool {
	if g == nil || g.Cache == nil || g.Key == "" {
		return false
	}
	_, err := g.Cache.Get(g.Key)
	return err == nil
}

// Trip blocks the source for BlockTime
func (g *RateLimitGuard) Trip() error {
	if g == nil || g.Cache == nil || g.Key == "" || g.BlockTime <= 0 {
		return nil
	}
	seconds := strconv.Itoa(int(g.BlockTime / time.Second))
	if err := g.Cache.Set(g.Key, []byte(seconds), g.BlockTime); err != nil {
		return apperrors.NewCache(g.Key, "failed to set rate limit block", err)
	}
	return nil
}
