package crawler

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"sjsage522/legodealworker/internal/models"
	"sjsage522/legodealworker/logger"
	apperrors "sjsage522/legodealworker/pkg/errors"
)

// ShouldStop is the stop predicate evaluated after each page, in order:
// non-success status, transport fault, page without accepted deals, last page.
func ShouldStop(page Page, maxPages int) (StopReason, bool) {
	if page.Err != nil {
		switch apperrors.TypeOf(page.Err) {
		case apperrors.ErrorTypeStatus, apperrors.ErrorTypeRateLimit:
			return StopStatus, true
		case apperrors.ErrorTypeParsing:
			return StopEmptyPage, true
		default:
			return StopTransport, true
		}
	}
	if len(page.Deals) == 0 {
		return StopEmptyPage, true
	}
	if page.Number >= maxPages {
		return StopMaxPages, true
	}
	return "", false
}

// Pages iterates listing pages strictly one after another until the stop
// predicate fires
type Pages struct {
	fetcher   PageFetcher
	extractor *Extractor
	dealList  string
	limiter   *rate.Limiter
	maxPages  int
	next      int
	stop      StopReason
}

// Next fetches and extracts the next page. It returns false once the
// previous page triggered a stop condition.
func (p *Pages) Next(ctx context.Context) (Page, bool) {
	if p.stop != "" {
		return Page{}, false
	}
	if p.next > p.maxPages {
		p.stop = StopMaxPages
		return Page{}, false
	}

	page := p.load(ctx, p.next)
	p.next++

	if reason, stop := ShouldStop(page, p.maxPages); stop {
		p.stop = reason
	}
	return page, true
}

// Stop returns why iteration ended, or "" while pages remain
func (p *Pages) Stop() StopReason {
	return p.stop
}

func (p *Pages) load(ctx context.Context, number int) Page {
	page := Page{Number: number, Rejected: map[RejectReason]int{}}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			page.Err = apperrors.NewNetwork("", "waiting for page slot", err)
			return page
		}
	}

	body, err := p.fetcher.FetchPage(ctx, number)
	if err != nil {
		page.Err = err
		return page
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		page.Err = apperrors.NewParsing("", "HTML parsing error", err)
		return page
	}

	doc.Find(p.dealList).Each(func(_ int, s *goquery.Selection) {
		result := p.extractor.Extract(s)
		if result.IsAccepted() {
			page.Deals = append(page.Deals, *result.Deal)
			return
		}
		page.Rejected[result.Reason]++
	})
	return page
}

// Controller drives the extractor across successive listing pages
type Controller struct {
	name      string
	provider  string
	fetcher   PageFetcher
	extractor *Extractor
	dealList  string
	pageDelay time.Duration
	log       *logger.Logger
}

// NewController creates a crawl controller over the given fetcher
func NewController(config CrawlerConfig, fetcher PageFetcher) *Controller {
	return &Controller{
		name:      config.Provider + "Crawler",
		provider:  config.Provider,
		fetcher:   fetcher,
		extractor: NewExtractor(config),
		dealList:  config.Selectors.DealList,
		pageDelay: config.PageDelay,
		log:       logger.ForCrawler(config.Provider),
	}
}

// GetName returns the crawler name
func (c *Controller) GetName() string {
	return c.name
}

// GetProvider returns the provider name
func (c *Controller) GetProvider() string {
	return c.provider
}

// Pages returns a fresh page iterator bounded by maxPages
func (c *Controller) Pages(maxPages int) *Pages {
	limit := rate.Inf
	if c.pageDelay > 0 {
		limit = rate.Every(c.pageDelay)
	}
	return &Pages{
		fetcher:   c.fetcher,
		extractor: c.extractor,
		dealList:  c.dealList,
		limiter:   rate.NewLimiter(limit, 1),
		maxPages:  maxPages,
		next:      1,
	}
}

// Crawl walks pages 1..maxPages and returns the union of accepted deals,
// deduplicated by set id. A later sighting of the same id replaces the
// earlier record but keeps its position.
func (c *Controller) Crawl(ctx context.Context, maxPages int) Result {
	result := Result{Deals: []models.Deal{}, Rejected: map[RejectReason]int{}}
	if maxPages < 1 {
		result.Stop = StopMaxPages
		return result
	}

	seen := make(map[string]int)
	pages := c.Pages(maxPages)

	for {
		page, ok := pages.Next(ctx)
		if !ok {
			break
		}
		result.Pages++

		for reason, n := range page.Rejected {
			result.Rejected[reason] += n
		}
		for _, deal := range page.Deals {
			if idx, dup := seen[deal.ID]; dup {
				result.Deals[idx] = deal
				continue
			}
			seen[deal.ID] = len(result.Deals)
			result.Deals = append(result.Deals, deal)
		}

		var event *zerolog.Event
		if page.Err != nil {
			result.Err = page.Err
			event = c.log.Warn().Err(page.Err)
		} else {
			event = c.log.Debug()
		}
		event.Int("page", page.Number).
			Int("accepted", len(page.Deals)).
			Interface("rejected", page.Rejected).
			Msg("Page crawled")
	}

	result.Stop = pages.Stop()
	c.log.Info().
		Int("pages", result.Pages).
		Int("deals", len(result.Deals)).
		Str("stop", string(result.Stop)).
		Msg("Crawl finished")
	return result
}
