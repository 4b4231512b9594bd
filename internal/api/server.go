// Package api exposes the catalog, resale statistics and favorites over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sjsage522/legodealworker/internal/catalog"
	"sjsage522/legodealworker/internal/models"
	"sjsage522/legodealworker/logger"
)

// DealQueries is the catalog read path
type DealQueries interface {
	Page(ctx context.Context, page, pageSize int) models.Snapshot
	Search(ctx context.Context, q catalog.Query, page, pageSize int) models.Snapshot
	Deal(ctx context.Context, id string) (models.Deal, bool)
}

// SalesQueries reads stored resale listings
type SalesQueries interface {
	FindSales(ctx context.Context, productID string, limit int) ([]models.Sale, error)
}

// FavoritesRegistry lists and toggles favorites
type FavoritesRegistry interface {
	List(ctx context.Context) ([]models.Deal, error)
	Toggle(ctx context.Context, deal models.Deal) (bool, error)
}

// Server is the query API
type Server struct {
	*http.Server
	log *logger.Logger
}

// NewServer wires the routes on a chi router listening on port
func NewServer(port string, h *Handler) *Server {
	log := logger.ForAPI()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(LoggingMiddleware(log))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(log, w, http.StatusOK, map[string]string{"status": "ok"})
	})
	h.RegisterRoutes(router)

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		log: log,
	}
}

// Run serves until Shutdown is called
func (s *Server) Run() error {
	s.log.Info().Str("addr", s.Addr).Msg("API listening")
	if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// LoggingMiddleware logs every request once it completes
func LoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("Request completed")
		})
	}
}
