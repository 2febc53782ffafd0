package model

import "time"

// RecentlyViewedEntry is one product in the recently-viewed list.
type RecentlyViewedEntry struct {
	ProductID string    `json:"productId"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Image     string    `json:"image,omitempty"`
	Price     float64   `json:"price"`
	ViewedAt  time.Time `json:"viewedAt"`
}
