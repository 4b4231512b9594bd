package crawler

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"sjsage522/legodealworker/helpers"
	"sjsage522/legodealworker/internal/models"
)

var (
	// payloadJSON keeps numbers as json.Number so identifiers survive untouched
	payloadJSON = jsoniter.Config{UseNumber: true}.Froze()

	setNumberInLink = regexp.MustCompile(`(?:^|\D)(\d{5})(?:\D|$)`)
	setNumber       = regexp.MustCompile(`^\d{5}$`)
)

// vuePayload is the blob serialized into a listing's data-vue3 attribute
type vuePayload struct {
	Name  string `json:"name"`
	Props struct {
		Thread *threadPayload `json:"thread"`
	} `json:"props"`
}

type threadPayload struct {
	ThreadID      interface{} `json:"threadId"`
	Title         string      `json:"title"`
	Price         *float64    `json:"price"`
	NextBestPrice *float64    `json:"nextBestPrice"`
	Temperature   *float64    `json:"temperature"`
	CommentCount  *int        `json:"commentCount"`
	PublishedAt   *int64      `json:"publishedAt"`
	Link          string      `json:"link"`
	ShareableLink string      `json:"shareableLink"`
	MainImage     *struct {
		Path string `json:"path"`
		Name string `json:"name"`
		Ext  string `json:"ext"`
	} `json:"mainImage"`
}

// Extractor turns one listing fragment into a normalized Deal
type Extractor struct {
	baseURL   string
	imageCDN  string
	selectors Selectors
	validate  *validator.Validate
}

// NewExtractor creates an extractor for the given crawler configuration
func NewExtractor(config CrawlerConfig) *Extractor {
	return &Extractor{
		baseURL:   config.BaseURL,
		imageCDN:  strings.TrimSuffix(config.ImageCDN, "/"),
		selectors: config.Selectors,
		validate:  validator.New(),
	}
}

// Extract processes a single listing fragment. It has no side effects.
func (e *Extractor) Extract(s *goquery.Selection) Extraction {
	thread, reason, detail := e.findThread(s)
	if thread == nil {
		return Rejected(reason, detail)
	}

	link := thread.Link
	if link == "" {
		link = thread.ShareableLink
	}
	link = helpers.ResolveURL(e.baseURL, link)

	id := extractSetNumber(link)
	if id == "" && thread.ThreadID != nil {
		id = strings.TrimSpace(fmt.Sprint(thread.ThreadID))
	}
	if !setNumber.MatchString(id) {
		return Rejected(ReasonInvalidID, id)
	}

	title := strings.TrimSpace(thread.Title)
	if title == "" {
		return Rejected(ReasonEmptyTitle, id)
	}
	if thread.Price == nil {
		return Rejected(ReasonMissingPrice, id)
	}

	deal := models.Deal{
		ID:            id,
		UUID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String(),
		Title:         title,
		URL:           link,
		Image:         e.imageURL(thread),
		Price:         *thread.Price,
		Discount:      computeDiscount(thread.Price, thread.NextBestPrice),
		Temperature:   nonNegative(thread.Temperature),
		CommentsCount: 0,
	}
	if thread.NextBestPrice != nil && *thread.NextBestPrice > 0 {
		retail := *thread.NextBestPrice
		deal.RetailPrice = &retail
	}
	if thread.CommentCount != nil && *thread.CommentCount > 0 {
		deal.CommentsCount = *thread.CommentCount
	}
	if thread.PublishedAt != nil {
		deal.PublishedAt = time.Unix(*thread.PublishedAt, 0).UTC()
	}

	if err := e.validate.Struct(deal); err != nil {
		return Rejected(ReasonInvalidRecord, err.Error())
	}

	return Accepted(deal)
}

// findThread decodes the first payload element exposing thread data
func (e *Extractor) findThread(s *goquery.Selection) (*threadPayload, RejectReason, string) {
	candidates := s.Find(e.selectors.Payload)
	if candidates.Length() == 0 {
		return nil, ReasonMissingPayload, ""
	}

	var thread *threadPayload
	var lastErr error
	candidates.EachWithBreak(func(_ int, el *goquery.Selection) bool {
		raw, exists := el.Attr(e.selectors.PayloadAttr)
		if !exists || strings.TrimSpace(raw) == "" {
			return true
		}
		var payload vuePayload
		if err := payloadJSON.UnmarshalFromString(raw, &payload); err != nil {
			lastErr = err
			return true
		}
		if payload.Props.Thread != nil {
			thread = payload.Props.Thread
			return false
		}
		return true
	})

	if thread != nil {
		return thread, "", ""
	}
	if lastErr != nil {
		return nil, ReasonInvalidPayload, lastErr.Error()
	}
	return nil, ReasonMissingPayload, ""
}

// imageURL builds the CDN path, or "" when any part of the descriptor is missing
func (e *Extractor) imageURL(thread *threadPayload) string {
	img := thread.MainImage
	if img == nil || img.Path == "" || img.Name == "" || img.Ext == "" || e.imageCDN == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s/re/300x300/qt/60/%s.%s",
		e.imageCDN, strings.Trim(img.Path, "/"), img.Name, img.Name, img.Ext)
}

// extractSetNumber returns the first standalone 5-digit token in link
func extractSetNumber(link string) string {
	if match := setNumberInLink.FindStringSubmatch(link); len(match) > 1 {
		return match[1]
	}
	return ""
}

// computeDiscount returns round(100*(1-price/retail)), or nil when it cannot
// be computed or would be negative
func computeDiscount(price, retail *float64) *int {
	if price == nil || retail == nil || *retail <= 0 {
		return nil
	}
	d := int(math.Round(100 * (1 - *price / *retail)))
	if d < 0 || d > 100 {
		return nil
	}
	return &d
}

func nonNegative(v *float64) int {
	if v == nil || *v <= 0 {
		return 0
	}
	return int(math.Round(*v))
}
