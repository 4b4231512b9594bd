package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	mathrand "math/rand"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"time"

	"golang.org/x/net/html/charset"

	apperrors "sjsage522/legodealworker/pkg/errors"
)

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	}

	referers = []string{
		"https://www.google.fr/",
		"https://www.bing.com/",
		"https://duckduckgo.com/",
	}

	// HTTP client with timeout
	client = &http.Client{
		Timeout: 15 * time.Second,
	}
)

// SetHTTPClient replaces the shared client, used by tests to shorten timeouts
func SetHTTPClient(c *http.Client) {
	client = c
}

// FetchWithRandomHeaders sends an HTTP GET request with randomized browser
// headers, converts the response body to UTF-8 (if needed), and returns it as
// an io.Reader. Failures are returned as *errors.CrawlerError so callers can
// tell transport faults from non-success statuses.
func FetchWithRandomHeaders(ctx context.Context, target string) (io.Reader, error) {
	rnd := mathrand.New(mathrand.NewSource(time.Now().UnixNano()))

	headers := http.Header{}
	headers.Set("User-Agent", userAgents[rnd.Intn(len(userAgents))])
	headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	headers.Set("Accept-Language", "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Pragma", "no-cache")
	headers.Set("Referer", referers[rnd.Intn(len(referers))])
	headers.Set("Upgrade-Insecure-Requests", "1")
	headers.Set("Sec-Fetch-Mode", "navigate")
	headers.Set("Sec-Fetch-Site", "cross-site")

	bodyBytes, contentType, err := Fetch(ctx, target, headers)
	if err != nil {
		return nil, err
	}

	// Determine the encoding from Content-Type header and body content
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return bytes.NewReader(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, apperrors.NewParsing(hostOf(target), "failed to read converted UTF-8 body", err)
	}

	return &buf, nil
}

// Fetch performs a GET with the given headers and returns the whole body and
// its Content-Type
func Fetch(ctx context.Context, target string, headers http.Header) ([]byte, string, error) {
	provider := hostOf(target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", apperrors.NewNetwork(provider, "failed to create request", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", apperrors.NewNetwork(provider, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		rl := apperrors.NewRateLimit(provider, time.Duration(retryAfter)*time.Second)
		rl.StatusCode = resp.StatusCode
		return nil, "", rl
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", apperrors.NewStatus(provider, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", apperrors.NewNetwork(provider, "failed to read response body", err)
	}

	return body, resp.Header.Get("Content-Type"), nil
}

func hostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return fmt.Sprintf("%.40s", target)
	}
	return u.Host
}
