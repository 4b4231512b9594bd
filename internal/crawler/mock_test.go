package crawler

import (
	"context"
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"sjsage522/legodealworker/services/cache"
)

// MockCacheService implements a simple in-memory cache for testing
type MockCacheService struct {
	cache map[string][]byte
}

func NewMockCacheService() *MockCacheService {
	return &MockCacheService{
		cache: make(map[string][]byte),
	}
}

func (m *MockCacheService) Get(key string) ([]byte, error) {
	if val, ok := m.cache[key]; ok {
		return val, nil
	}
	return nil, cache.ErrMiss
}

func (m *MockCacheService) Set(key string, value []byte, expiration time.Duration) error {
	m.cache[key] = value
	return nil
}

// MockFetcher serves canned listing pages and records the order of requests
type MockFetcher struct {
	pages map[int]string
	errs  map[int]error
	calls []int
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{pages: map[int]string{}, errs: map[int]error{}}
}

func (m *MockFetcher) FetchPage(ctx context.Context, page int) (io.Reader, error) {
	m.calls = append(m.calls, page)
	if err, ok := m.errs[page]; ok {
		return nil, err
	}
	return strings.NewReader(m.pages[page]), nil
}

func testConfig() CrawlerConfig {
	return CrawlerConfig{
		URL:       "https://www.dealabs.com/groupe/lego",
		BaseURL:   "https://www.dealabs.com",
		ImageCDN:  "https://static-pepper.dealabs.com",
		CacheKey:  "test_rate_limited",
		BlockTime: time.Minute,
		Provider:  "Dealabs",
		Selectors: Selectors{
			DealList:    "article.thread",
			Payload:     "div.js-vue3[data-vue3]",
			PayloadAttr: "data-vue3",
		},
	}
}

// threadJSON renders a data-vue3 payload for a thread
func threadJSON(threadID, setID, title string, price, nextBest float64) string {
	return fmt.Sprintf(`{"name":"ThreadMainListItemNormalizer","props":{"thread":{`+
		`"threadId":"%s","title":"%s","price":%g,"nextBestPrice":%g,"temperature":152.6,`+
		`"commentCount":18,"publishedAt":1704067200,`+
		`"link":"/bons-plans/lego-%s-%s",`+
		`"mainImage":{"path":"threads/raw/abc12","name":"%s_1","ext":"jpg"}}}}`,
		threadID, title, price, nextBest, setID, threadID, threadID)
}

// article wraps payloads into a listing fragment
func article(payloads ...string) string {
	var b strings.Builder
	b.WriteString(`<article class="thread">`)
	b.WriteString(`<div class="js-vue3" data-vue3="{&quot;name&quot;:&quot;Vote&quot;,&quot;props&quot;:{}}"></div>`)
	for _, p := range payloads {
		b.WriteString(`<div class="js-vue3" data-vue3="` + html.EscapeString(p) + `"></div>`)
	}
	b.WriteString(`</article>`)
	return b.String()
}

func listingPage(articles ...string) string {
	return "<html><body><section>" + strings.Join(articles, "\n") + "</section></body></html>"
}
