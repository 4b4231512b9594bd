package worker

import (
	"context"
	"os"
	"time"

	"github.com/go-co-op/gocron"
	jsoniter "github.com/json-iterator/go"

	"sjsage522/legodealworker/internal"
	"sjsage522/legodealworker/internal/crawler"
	"sjsage522/legodealworker/internal/models"
	"sjsage522/legodealworker/logger"
	apperrors "sjsage522/legodealworker/pkg/errors"
	"sjsage522/legodealworker/services/publisher"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Options tunes one worker
type Options struct {
	MaxPages      int
	CrawlInterval time.Duration
	// SyncSales fetches resale listings for every crawled set
	SyncSales bool
	// DumpPath, when set, receives the crawled deals as a JSON array
	DumpPath   string
	Production bool
}

// Report summarizes one ingestion run of a crawler
type Report struct {
	Provider    string
	Deals       int
	Pages       int
	Stop        crawler.StopReason
	Stored      bool
	Published   int
	SalesSynced int
}

// Worker handles the crawling, storing and publishing process
type Worker struct {
	crawlers  []crawler.Crawler
	deps      internal.Dependencies
	opts      Options
	scheduler *gocron.Scheduler
	log       *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(crawlers []crawler.Crawler, deps internal.Dependencies, opts Options) *Worker {
	return &Worker{
		crawlers: crawlers,
		deps:     deps,
		opts:     opts,
		log:      logger.ForWorker(),
	}
}

// Start schedules a run every CrawlInterval, the first one immediately, and
// blocks until ctx is done. Runs never overlap.
func (w *Worker) Start(ctx context.Context) error {
	w.scheduler = gocron.NewScheduler(time.UTC)
	w.scheduler.SingletonModeAll()

	_, err := w.scheduler.Every(w.opts.CrawlInterval).StartImmediately().Do(func() {
		w.RunOnce(ctx)
	})
	if err != nil {
		return apperrors.NewConfiguration("failed to schedule crawl", err)
	}

	w.scheduler.StartAsync()
	w.log.Info().Dur("interval", w.opts.CrawlInterval).Int("crawlers", len(w.crawlers)).Msg("Worker started")

	<-ctx.Done()
	w.scheduler.Stop()
	w.log.Info().Msg("Worker stopped")
	return nil
}

// RunOnce runs every crawler one after another, then trims the streams
func (w *Worker) RunOnce(ctx context.Context) []Report {
	start := time.Now()
	reports := make([]Report, 0, len(w.crawlers))
	for _, c := range w.crawlers {
		reports = append(reports, w.crawlAndPublish(ctx, c))
	}

	if w.deps.Publisher != nil {
		if err := w.deps.Publisher.TrimStreams(ctx); err != nil {
			w.log.Error().Err(err).Msg("Stream trimming failed")
		}
	}

	if !w.opts.Production {
		w.log.Info().Dur("elapsed", time.Since(start)).Msg("Crawl run finished")
	}
	return reports
}

func (w *Worker) crawlAndPublish(ctx context.Context, c crawler.Crawler) Report {
	log := w.log.WithFields(logger.Fields{
		"crawler":  c.GetName(),
		"provider": c.GetProvider(),
	})

	result := c.Crawl(ctx, w.opts.MaxPages)
	report := Report{
		Provider: c.GetProvider(),
		Deals:    len(result.Deals),
		Pages:    result.Pages,
		Stop:     result.Stop,
	}
	if len(result.Deals) == 0 {
		log.Warn().Str("stop", string(result.Stop)).Msg("Crawl returned no deals, keeping stored deals")
		return report
	}

	if w.deps.Store != nil {
		if err := w.deps.Store.ReplaceDeals(ctx, result.Deals); err != nil {
			log.Error().Err(err).Msg("Failed to store deals")
		} else {
			report.Stored = true
		}
	}

	report.Published = w.publish(ctx, result.Deals, log)

	if w.opts.DumpPath != "" {
		if err := dump(w.opts.DumpPath, result.Deals); err != nil {
			log.Error().Err(err).Str("path", w.opts.DumpPath).Msg("Failed to dump deals")
		}
	}

	if w.opts.SyncSales {
		report.SalesSynced = w.syncSales(ctx, result.Deals, log)
	}

	if !w.opts.Production {
		log.Info().Str("first", result.Deals[0].DisplayTitle()).Int("deals", len(result.Deals)).Msg("Crawled data")
	}
	return report
}

func (w *Worker) publish(ctx context.Context, deals []models.Deal, log *logger.Logger) int {
	if w.deps.Publisher == nil {
		return 0
	}
	published := 0
	for _, deal := range deals {
		data, err := json.Marshal(deal)
		if err != nil {
			log.Error().Err(err).Str("id", deal.ID).Msg("Failed to encode deal")
			continue
		}
		if err := w.deps.Publisher.Publish(ctx, publisher.DealField, data); err != nil {
			log.Error().Err(err).Str("id", deal.ID).Msg("Failed to publish deal")
			continue
		}
		published++
	}
	return published
}

// syncSales refreshes the stored resale listings of each set. A rate limit or
// a transient fault ends the sync for this run; a failure tied to one set only
// skips that set.
func (w *Worker) syncSales(ctx context.Context, deals []models.Deal, log *logger.Logger) int {
	if w.deps.Sales == nil || w.deps.Store == nil {
		return 0
	}
	synced := 0
	seen := make(map[string]struct{}, len(deals))
	for _, deal := range deals {
		if _, ok := seen[deal.ID]; ok {
			continue
		}
		seen[deal.ID] = struct{}{}

		sales, err := w.deps.Sales.Search(ctx, deal.ID)
		if err != nil {
			log.Warn().Err(err).Str("id", deal.ID).Msg("Failed to fetch sales")
			if apperrors.Is(err, apperrors.ErrorTypeRateLimit) || apperrors.IsRetryable(err) {
				break
			}
			continue
		}
		if err := w.deps.Store.ReplaceSales(ctx, deal.ID, sales); err != nil {
			log.Error().Err(err).Str("id", deal.ID).Msg("Failed to store sales")
			continue
		}
		synced++
	}
	return synced
}

func dump(path string, deals []models.Deal) error {
	data, err := json.MarshalIndent(deals, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
