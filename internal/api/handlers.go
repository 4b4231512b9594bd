package api

import (
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"sjsage522/legodealworker/internal/catalog"
	"sjsage522/legodealworker/internal/models"
	"sjsage522/legodealworker/internal/stats"
	"sjsage522/legodealworker/logger"
	apperrors "sjsage522/legodealworker/pkg/errors"
)

var (
	json    = jsoniter.ConfigCompatibleWithStandardLibrary
	setIDRe = regexp.MustCompile(`^\d{5}$`)
)

// DealsResponse is a page of deals with its pagination metadata
type DealsResponse struct {
	Items []models.Deal   `json:"items"`
	Meta  models.PageMeta `json:"meta"`
}

// SalesResponse lists the resale listings of a set with their indicators
type SalesResponse struct {
	Items   []models.Sale `json:"items"`
	Summary stats.Summary `json:"summary"`
}

// ToggleResponse reports the favorite state after a toggle
type ToggleResponse struct {
	UUID     string `json:"uuid"`
	Favorite bool   `json:"favorite"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the query routes
type Handler struct {
	deals           DealQueries
	sales           SalesQueries
	favorites       FavoritesRegistry
	defaultPageSize int
	log             *logger.Logger
}

// NewHandler creates a handler; sales and favorites may be nil
func NewHandler(deals DealQueries, sales SalesQueries, favorites FavoritesRegistry, defaultPageSize int) *Handler {
	if defaultPageSize < 1 {
		defaultPageSize = 6
	}
	return &Handler{
		deals:           deals,
		sales:           sales,
		favorites:       favorites,
		defaultPageSize: defaultPageSize,
		log:             logger.ForAPI(),
	}
}

// RegisterRoutes registers all query routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/deals", h.ListDeals)
		r.Get("/deals/search", h.SearchDeals)
		r.Get("/deals/{id}", h.GetDeal)
		r.Get("/sales", h.ListSales)
		r.Get("/favorites", h.ListFavorites)
		r.Post("/favorites/toggle", h.ToggleFavorite)
	})
}

// ListDeals returns one store-level page
func (h *Handler) ListDeals(w http.ResponseWriter, r *http.Request) {
	page, pageSize := h.window(r)
	snap := h.deals.Page(r.Context(), page, pageSize)
	h.writeJSON(w, http.StatusOK, DealsResponse{Items: snap.Items, Meta: snap.Meta})
}

// SearchDeals filters, sorts and paginates the whole catalog
func (h *Handler) SearchDeals(w http.ResponseWriter, r *http.Request) {
	page, pageSize := h.window(r)
	params := r.URL.Query()

	q := catalog.Query{
		Search:   params.Get("search"),
		Sort:     catalog.ParseSortMode(params.Get("sort")),
		MaxPrice: priceParam(params.Get("price")),
		Since:    dateParam(params.Get("date")),
	}
	for _, raw := range params["filters"] {
		q = q.WithFilters(strings.Split(raw, ",")...)
	}

	snap := h.deals.Search(r.Context(), q, page, pageSize)
	h.writeJSON(w, http.StatusOK, DealsResponse{Items: snap.Items, Meta: snap.Meta})
}

// GetDeal returns one deal by set id
func (h *Handler) GetDeal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !setIDRe.MatchString(id) {
		h.writeError(w, http.StatusNotFound, "deal not found")
		return
	}
	deal, ok := h.deals.Deal(r.Context(), id)
	if !ok {
		h.writeError(w, http.StatusNotFound, "deal not found")
		return
	}
	h.writeJSON(w, http.StatusOK, deal)
}

// ListSales returns the stored resale listings of a set, most recent first,
// and the summary of the returned listings
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	productID := strings.TrimSpace(params.Get("productId"))
	limit := intParam(params.Get("limit"), 0)
	items := []models.Sale{}

	if productID != "" && h.sales != nil {
		sales, err := h.sales.FindSales(r.Context(), productID, limit)
		if err != nil {
			h.log.Error().Err(err).Str("productId", productID).Msg("Failed to load sales")
		} else {
			items = sales
		}
	}

	h.writeJSON(w, http.StatusOK, SalesResponse{Items: items, Summary: stats.Summarize(items)})
}

// ListFavorites returns the favorites
func (h *Handler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	items := []models.Deal{}
	if h.favorites != nil {
		favs, err := h.favorites.List(r.Context())
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to load favorites")
		} else {
			items = favs
		}
	}
	h.writeJSON(w, http.StatusOK, items)
}

// ToggleFavorite adds or removes the posted deal
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	if h.favorites == nil {
		h.writeError(w, http.StatusServiceUnavailable, "favorites are not available")
		return
	}

	var deal models.Deal
	if err := json.NewDecoder(r.Body).Decode(&deal); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid deal")
		return
	}

	favorite, err := h.favorites.Toggle(r.Context(), deal)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrorTypeValidation) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("uuid", deal.UUID).Msg("Failed to toggle favorite")
		h.writeError(w, http.StatusInternalServerError, "failed to update favorites")
		return
	}
	h.writeJSON(w, http.StatusOK, ToggleResponse{UUID: deal.UUID, Favorite: favorite})
}

// window reads page and pageSize, with limit accepted in place of pageSize.
// Missing or non-numeric values fall back to the defaults; out-of-range
// numbers are passed on and yield empty pages.
func (h *Handler) window(r *http.Request) (int, int) {
	params := r.URL.Query()
	size := params.Get("pageSize")
	if size == "" {
		size = params.Get("limit")
	}
	return intParam(params.Get("page"), 1), intParam(size, h.defaultPageSize)
}

// priceParam returns the upper price bound, or nil when raw is not a finite number
func priceParam(raw string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// dateParam reads a YYYY-MM-DD or RFC3339 lower bound; anything else disables it
func dateParam(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func intParam(raw string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return v
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	writeJSON(h.log, w, status, v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(h.log, w, status, errorResponse{Error: message})
}

func writeJSON(log *logger.Logger, w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Int("status", status).Msg("Failed to write response")
	}
}
