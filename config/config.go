package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Deals source configuration
	DealsURL     string
	DealsBaseURL string
	ImageCDNURL  string

	// Crawler configuration
	CrawlMaxPages  int
	CrawlInterval  time.Duration
	CrawlPageDelay time.Duration
	CrawlBlockTime time.Duration

	// Resale marketplace configuration
	VintedURL        string
	VintedCookie     string
	SalesSyncEnabled bool

	// DumpPath, when set, receives a JSON copy of every crawl
	DumpPath string

	// MongoDB configuration
	MongoURI    string
	MongoDBName string

	// Redis configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int
	FavoritesKey         string

	// Memcache configuration
	MemcacheAddr string

	// API configuration
	HTTPPort        string
	DefaultPageSize int

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		DealsURL:             getEnv("DEALS_URL", "https://www.dealabs.com/groupe/lego"),
		DealsBaseURL:         getEnv("DEALS_BASE_URL", "https://www.dealabs.com"),
		ImageCDNURL:          getEnv("IMAGE_CDN_URL", "https://static-pepper.dealabs.com"),
		CrawlMaxPages:        getEnvInt("CRAWL_MAX_PAGES", 10),
		CrawlInterval:        time.Duration(getEnvInt("CRAWL_INTERVAL_SECONDS", 3600)) * time.Second,
		CrawlPageDelay:       time.Duration(getEnvInt("CRAWL_PAGE_DELAY_MS", 1500)) * time.Millisecond,
		CrawlBlockTime:       time.Duration(getEnvInt("CRAWL_BLOCK_SECONDS", 500)) * time.Second,
		VintedURL:            getEnv("VINTED_URL", "https://www.vinted.fr/api/v2/catalog/items"),
		VintedCookie:         getEnv("VINTED_COOKIE", ""),
		SalesSyncEnabled:     getEnvBool("SALES_SYNC_ENABLED", false),
		DumpPath:             getEnv("DUMP_PATH", ""),
		MongoURI:             getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDBName:          getEnv("MONGODB_DB_NAME", "lego"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "legodeals"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),
		FavoritesKey:         getEnv("FAVORITES_KEY", "favorites"),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		HTTPPort:             getEnv("HTTP_PORT", "8092"),
		DefaultPageSize:      getEnvInt("DEFAULT_PAGE_SIZE", 6),
		Environment:          getEnv("LEGODEAL_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration can be used to start the worker
func (c *Config) Validate() error {
	var problems []string

	for name, raw := range map[string]string{
		"DEALS_URL":      c.DealsURL,
		"DEALS_BASE_URL": c.DealsBaseURL,
		"IMAGE_CDN_URL":  c.ImageCDNURL,
		"VINTED_URL":     c.VintedURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, fmt.Sprintf("%s must be an absolute URL, got %q", name, raw))
		}
	}

	if c.CrawlMaxPages < 1 {
		problems = append(problems, "CRAWL_MAX_PAGES must be at least 1")
	}
	if c.CrawlInterval <= 0 {
		problems = append(problems, "CRAWL_INTERVAL_SECONDS must be positive")
	}
	if c.CrawlPageDelay < 0 {
		problems = append(problems, "CRAWL_PAGE_DELAY_MS must not be negative")
	}
	if c.RedisStreamCount < 1 {
		problems = append(problems, "REDIS_STREAM_COUNT must be at least 1")
	}
	if c.DefaultPageSize < 1 {
		problems = append(problems, "DEFAULT_PAGE_SIZE must be at least 1")
	}
	if c.MongoURI == "" {
		problems = append(problems, "MONGODB_URI is required")
	}
	if c.FavoritesKey == "" {
		problems = append(problems, "FAVORITES_KEY is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IsProduction reports whether the worker runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an integer environment variable, falling back on parse errors
func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}
