package crawler

import (
	"context"
	"io"
	"time"

	"sjsage522/legodealworker/internal/models"
)

// Crawler interface defines the contract for all crawler implementations
type Crawler interface {
	// Crawl walks listing pages 1..maxPages and returns the deduplicated deals.
	// It never fails: faults end the run early and are reported in Result.
	Crawl(ctx context.Context, maxPages int) Result

	// GetName returns the crawler's name for logging and identification
	GetName() string

	// GetProvider returns the provider name for the crawler
	GetProvider() string
}

// PageFetcher retrieves the raw document of one listing page
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) (io.Reader, error)
}

// Selectors contains CSS selectors for the listing page
type Selectors struct {
	// DealList matches one listing fragment
	DealList string
	// Payload matches the element(s) carrying the embedded JSON blob
	Payload string
	// PayloadAttr is the attribute holding the blob
	PayloadAttr string
}

// CrawlerConfig contains configuration for a crawler
type CrawlerConfig struct {
	URL       string
	BaseURL   string
	ImageCDN  string
	CacheKey  string
	BlockTime time.Duration
	PageDelay time.Duration
	Provider  string
	Selectors Selectors
}

// RejectReason tells why a fragment produced no deal
type RejectReason string

const (
	ReasonMissingPayload RejectReason = "missing_payload"
	ReasonInvalidPayload RejectReason = "invalid_payload"
	ReasonInvalidID      RejectReason = "invalid_id"
	ReasonEmptyTitle     RejectReason = "empty_title"
	ReasonMissingPrice   RejectReason = "missing_price"
	ReasonInvalidRecord  RejectReason = "invalid_record"
)

// Extraction is the tagged outcome of extracting one fragment: either an
// accepted Deal or a rejection reason
type Extraction struct {
	Deal   *models.Deal
	Reason RejectReason
	Detail string
}

// Accepted builds an accepted extraction
func Accepted(deal models.Deal) Extraction {
	return Extraction{Deal: &deal}
}

// Rejected builds a rejected extraction
func Rejected(reason RejectReason, detail string) Extraction {
	return Extraction{Reason: reason, Detail: detail}
}

// IsAccepted reports whether the extraction produced a deal
func (e Extraction) IsAccepted() bool {
	return e.Deal != nil
}

// StopReason tells why a crawl ended
type StopReason string

const (
	StopMaxPages  StopReason = "max_pages"
	StopStatus    StopReason = "status"
	StopTransport StopReason = "transport"
	StopEmptyPage StopReason = "empty_page"
)

// Page is the outcome of fetching and extracting one listing page
type Page struct {
	Number   int
	Deals    []models.Deal
	Rejected map[RejectReason]int
	Err      error
}

// Result is the outcome of one crawl run
type Result struct {
	Deals    []models.Deal
	Pages    int
	Rejected map[RejectReason]int
	Stop     StopReason
	Err      error
}
