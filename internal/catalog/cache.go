// Package catalog caches the product list for reuse across views. The
// featured and similar selections are pure functions over the cache,
// recomputed on read.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"kart-storefront/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	featuredLimit      = 6
	featuredMinRating  = 4.5
	featuredMinReviews = 10
	similarLimit       = 4
)

// ProductFetcher fetches the product list from the remote API.
type ProductFetcher interface {
	FetchProducts(ctx context.Context) ([]model.Product, error)
}

// Cache holds the product list fetched from the remote API. Refresh
// replaces the cached list; concurrent refreshes share one in-flight
// request instead of each hitting the API.
type Cache struct {
	mu       sync.Mutex
	products []model.Product
	loading  bool
	fetcher  ProductFetcher
	group    singleflight.Group
	logger   zerolog.Logger
}

// NewCache creates an empty product cache.
func NewCache(fetcher ProductFetcher, logger zerolog.Logger) *Cache {
	return &Cache{
		fetcher: fetcher,
		logger:  logger.With().Str("component", "catalog").Logger(),
	}
}

// Products returns the cached product list, possibly empty before the
// first successful Refresh.
func (c *Cache) Products() []model.Product {
	c.mu.Lock()
	defer c.mu.Unlock()

	products := make([]model.Product, len(c.products))
	copy(products, c.products)
	return products
}

// Loading reports whether a fetch is currently in flight.
func (c *Cache) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Refresh re-fetches the product list, replacing the cache. A Refresh
// issued while another is pending attaches to the pending request rather
// than issuing a duplicate.
func (c *Cache) Refresh(ctx context.Context) ([]model.Product, error) {
	result, err, shared := c.group.Do("products", func() (interface{}, error) {
		c.setLoading(true)
		defer c.setLoading(false)

		products, err := c.fetcher.FetchProducts(ctx)
		if err != nil {
			c.logger.Error().Err(err).Msg("failed to fetch products")
			return nil, fmt.Errorf("fetch products: %w", err)
		}

		c.mu.Lock()
		c.products = products
		c.mu.Unlock()

		c.logger.Debug().Int("count", len(products)).Msg("product cache refreshed")
		return products, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		c.logger.Debug().Msg("refresh attached to pending request")
	}

	return result.([]model.Product), nil
}

// Featured returns up to six products that are highly rated, well
// reviewed, or new.
func (c *Cache) Featured() []model.Product {
	featured := make([]model.Product, 0, featuredLimit)
	for _, p := range c.Products() {
		if p.Rating >= featuredMinRating || p.ReviewCount >= featuredMinReviews || p.IsNew {
			featured = append(featured, p)
			if len(featured) == featuredLimit {
				break
			}
		}
	}
	return featured
}

// Similar returns up to four products in the same category as the given
// product, excluding the product itself.
func (c *Cache) Similar(product model.Product) []model.Product {
	similar := make([]model.Product, 0, similarLimit)
	for _, p := range c.Products() {
		if p.Category == product.Category && p.ID != product.ID {
			similar = append(similar, p)
			if len(similar) == similarLimit {
				break
			}
		}
	}
	return similar
}

func (c *Cache) setLoading(loading bool) {
	c.mu.Lock()
	c.loading = loading
	c.mu.Unlock()
}
