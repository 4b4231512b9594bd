package internal

import (
	"context"

	"sjsage522/legodealworker/internal/models"
	"sjsage522/legodealworker/services/cache"
	"sjsage522/legodealworker/services/publisher"
)

// DealStore is the write side of the document store used by ingestion
type DealStore interface {
	ReplaceDeals(ctx context.Context, deals []models.Deal) error
	ReplaceSales(ctx context.Context, productID string, sales []models.Sale) error
}

// SalesSource looks up resale listings for a set id
type SalesSource interface {
	Search(ctx context.Context, productID string) ([]models.Sale, error)
}

// Dependencies holds all service dependencies
type Dependencies struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Store     DealStore
	Sales     SalesSource
}
