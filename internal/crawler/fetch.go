package crawler

import (
	"context"
	"io"
	"net/url"
	"strconv"

	"sjsage522/legodealworker/helpers"
	"sjsage522/legodealworker/logger"
	apperrors "sjsage522/legodealworker/pkg/errors"
	"sjsage522/legodealworker/services/cache"
)

// HTTPPageFetcher fetches listing pages over HTTP with a shared rate-limit block
type HTTPPageFetcher struct {
	URL      string
	Provider string
	Guard    *cache.RateLimitGuard
	// fetchFunc is swapped in tests
	fetchFunc func(ctx context.Context, target string) (io.Reader, error)
}

// NewHTTPPageFetcher creates a fetcher for the listing at config.URL
func NewHTTPPageFetcher(config CrawlerConfig, cacheSvc cache.CacheService) *HTTPPageFetcher {
	return &HTTPPageFetcher{
		URL:      config.URL,
		Provider: config.Provider,
		Guard: &cache.RateLimitGuard{
			Cache:     cacheSvc,
			Key:       config.CacheKey,
			BlockTime: config.BlockTime,
		},
		fetchFunc: helpers.FetchWithRandomHeaders,
	}
}

// PageURL returns the address of a listing page; page 1 is the bare listing
func (f *HTTPPageFetcher) PageURL(page int) string {
	if page <= 1 {
		return f.URL
	}
	u, err := url.Parse(f.URL)
	if err != nil {
		return f.URL
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// FetchPage fetches one listing page, honoring and tripping the rate-limit block
func (f *HTTPPageFetcher) FetchPage(ctx context.Context, page int) (io.Reader, error) {
	if f.Guard.Blocked() {
		return nil, apperrors.NewRateLimit(f.Provider, f.Guard.BlockTime)
	}

	body, err := f.fetchFunc(ctx, f.PageURL(page))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrorTypeRateLimit) {
			if tripErr := f.Guard.Trip(); tripErr != nil {
				logger.ForCache().Warn().Err(tripErr).Str("key", f.Guard.Key).Msg("Failed to set rate limit block")
			}
		}
		return nil, err
	}
	return body, nil
}
