package crawler

import (
	"sjsage522/legodealworker/config"
	"sjsage522/legodealworker/services/cache"
)

// DealabsConfig returns the crawler configuration for the Dealabs LEGO group
func DealabsConfig(cfg *config.Config) CrawlerConfig {
	return CrawlerConfig{
		URL:       cfg.DealsURL,
		BaseURL:   cfg.DealsBaseURL,
		ImageCDN:  cfg.ImageCDNURL,
		CacheKey:  "dealabs_rate_limited",
		BlockTime: cfg.CrawlBlockTime,
		PageDelay: cfg.CrawlPageDelay,
		Provider:  "Dealabs",
		Selectors: Selectors{
			DealList:    "article.thread",
			Payload:     "div.js-vue3[data-vue3]",
			PayloadAttr: "data-vue3",
		},
	}
}

// CreateCrawlers creates all the crawlers based on the configuration
func CreateCrawlers(cfg *config.Config, cacheSvc cache.CacheService) []Crawler {
	dealabs := DealabsConfig(cfg)
	return []Crawler{
		NewController(dealabs, NewHTTPPageFetcher(dealabs, cacheSvc)),
	}
}
