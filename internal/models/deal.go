package models

import (
	"strings"
	"time"
)

// Deal is one normalized promotional listing
type Deal struct {
	ID            string    `json:"id" bson:"id" validate:"required,len=5,numeric"`
	UUID          string    `json:"uuid" bson:"uuid" validate:"required,uuid"`
	Title         string    `json:"title" bson:"title" validate:"required"`
	URL           string    `json:"url" bson:"url" validate:"required,url"`
	Image         string    `json:"image,omitempty" bson:"image,omitempty" validate:"omitempty,url"`
	Price         float64   `json:"price" bson:"price" validate:"gte=0"`
	RetailPrice   *float64  `json:"retailPrice,omitempty" bson:"retailPrice,omitempty" validate:"omitempty,gte=0"`
	Discount      *int      `json:"discount,omitempty" bson:"discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	Temperature   int       `json:"temperature" bson:"temperature" validate:"gte=0"`
	CommentsCount int       `json:"commentsCount" bson:"commentsCount" validate:"gte=0"`
	PublishedAt   time.Time `json:"publishedAt" bson:"publishedAt"`
}

// DiscountOrZero returns the discount, or 0 when it is absent
func (d Deal) DiscountOrZero() int {
	if d.Discount == nil {
		return 0
	}
	return *d.Discount
}

// ImageURL returns the image qualified with domain when it is a relative path
func (d Deal) ImageURL(domain string) string {
	if strings.HasPrefix(d.Image, "/") {
		return strings.TrimSuffix(domain, "/") + d.Image
	}
	return d.Image
}

// DisplayTitle falls back to the set number when the title is empty
func (d Deal) DisplayTitle() string {
	if d.Title != "" {
		return d.Title
	}
	return "Lego #" + d.ID
}
