// Package sales fetches resale listings for a LEGO set from the Vinted
// catalog API.
package sales

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"sjsage522/legodealworker/helpers"
	"sjsage522/legodealworker/internal/models"
	"sjsage522/legodealworker/logger"
	apperrors "sjsage522/legodealworker/pkg/errors"
)

const (
	provider       = "Vinted"
	defaultPerPage = 96
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type catalogResponse struct {
	Items []catalogItem `json:"items"`
}

type catalogItem struct {
	ID             jsoniter.Number `json:"id"`
	Title          string          `json:"title"`
	URL            string          `json:"url"`
	Price          *money          `json:"price"`
	TotalItemPrice *money          `json:"total_item_price"`
	Photo          *struct {
		HighResolution *struct {
			Timestamp int64 `json:"timestamp"`
		} `json:"high_resolution"`
	} `json:"photo"`
}

type money struct {
	Amount models.Amount `json:"amount"`
}

// VintedClient searches the Vinted catalog
type VintedClient struct {
	BaseURL string
	PerPage int
	Cookie  string
	now     func() time.Time
	log     *logger.Logger
}

// NewVintedClient creates a client for the catalog endpoint at baseURL
func NewVintedClient(baseURL, cookie string) *VintedClient {
	return &VintedClient{
		BaseURL: baseURL,
		PerPage: defaultPerPage,
		Cookie:  cookie,
		now:     time.Now,
		log:     logger.ForSales(),
	}
}

// SearchURL builds the first catalog page query for a set
func (c *VintedClient) SearchURL(productID string) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", apperrors.NewConfiguration("invalid Vinted URL", err)
	}
	q := u.Query()
	q.Set("page", "1")
	q.Set("per_page", strconv.Itoa(c.PerPage))
	q.Set("time", strconv.FormatInt(c.now().Unix(), 10))
	q.Set("search_text", "lego "+productID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Search returns the resale listings matching a set id
func (c *VintedClient) Search(ctx context.Context, productID string) ([]models.Sale, error) {
	target, err := c.SearchURL(productID)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Accept", "application/json, text/plain, */*")
	headers.Set("Accept-Language", "fr")
	headers.Set("X-Money-Object", "true")
	headers.Set("Referer", "https://www.vinted.fr/catalog?search_text="+url.QueryEscape("lego "+productID))
	if c.Cookie != "" {
		headers.Set("Cookie", c.Cookie)
	}

	body, _, err := helpers.Fetch(ctx, target, headers)
	if err != nil {
		return nil, err
	}

	var resp catalogResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apperrors.NewParsing(provider, "unexpected catalog response", err)
	}

	sales := make([]models.Sale, 0, len(resp.Items))
	for _, item := range resp.Items {
		sales = append(sales, toSale(productID, item))
	}

	c.log.Debug().Str("productId", productID).Int("count", len(sales)).Msg("Vinted search finished")
	return sales, nil
}

func toSale(productID string, item catalogItem) models.Sale {
	sale := models.Sale{
		ProductID: productID,
		Title:     strings.TrimSpace(item.Title),
		URL:       item.URL,
	}
	switch {
	case item.TotalItemPrice != nil:
		sale.Price = item.TotalItemPrice.Amount
	case item.Price != nil:
		sale.Price = item.Price.Amount
	}
	if item.Photo != nil && item.Photo.HighResolution != nil && item.Photo.HighResolution.Timestamp > 0 {
		sale.PublishedAt = models.Timestamp(strconv.FormatInt(item.Photo.HighResolution.Timestamp, 10))
	}
	return sale
}
