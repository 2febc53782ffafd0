package model

import "time"

// Product represents a product in the storefront catalogue.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Image       string    `json:"image,omitempty"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
	IsNew       bool      `json:"isNew"`
	CreatedAt   time.Time `json:"createdAt"`
}
