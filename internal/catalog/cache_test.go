package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kart-storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingFetcher counts fetches and optionally blocks until released.
type blockingFetcher struct {
	products []model.Product
	err      error
	calls    atomic.Int32
	release  chan struct{}
}

func (f *blockingFetcher) FetchProducts(ctx context.Context) ([]model.Product, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.products, f.err
}

func testProducts() []model.Product {
	return []model.Product{
		{ID: "p1", Name: "Shirt", Category: "clothing", Rating: 4.8, ReviewCount: 3},
		{ID: "p2", Name: "Hat", Category: "clothing", Rating: 3.0, ReviewCount: 25},
		{ID: "p3", Name: "Mug", Category: "kitchen", Rating: 2.0, ReviewCount: 1, IsNew: true},
		{ID: "p4", Name: "Plate", Category: "kitchen", Rating: 3.5, ReviewCount: 2},
		{ID: "p5", Name: "Socks", Category: "clothing", Rating: 4.0, ReviewCount: 4},
	}
}

func TestCache_RefreshReplacesCache(t *testing.T) {
	fetcher := &blockingFetcher{products: testProducts()}
	cache := NewCache(fetcher, zerolog.Nop())

	assert.Empty(t, cache.Products(), "cache is empty before first load")

	products, err := cache.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 5)
	assert.Len(t, cache.Products(), 5)
	assert.False(t, cache.Loading())
}

func TestCache_RefreshError(t *testing.T) {
	fetcher := &blockingFetcher{err: errors.New("connection refused")}
	cache := NewCache(fetcher, zerolog.Nop())

	_, err := cache.Refresh(context.Background())
	require.Error(t, err)
	assert.Empty(t, cache.Products(), "a failed refresh leaves the cache unchanged")
}

func TestCache_ConcurrentRefreshCoalesces(t *testing.T) {
	fetcher := &blockingFetcher{
		products: testProducts(),
		release:  make(chan struct{}),
	}
	cache := NewCache(fetcher, zerolog.Nop())

	var wg sync.WaitGroup
	refresh := func() {
		defer wg.Done()
		products, err := cache.Refresh(context.Background())
		assert.NoError(t, err)
		assert.Len(t, products, 5)
	}

	wg.Add(1)
	go refresh()

	// Wait for the first fetch to be in flight, pile more refreshes onto
	// it, then let it complete.
	for fetcher.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go refresh()
	}
	time.Sleep(50 * time.Millisecond)

	close(fetcher.release)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load(), "concurrent refreshes share one in-flight request")
}

func TestCache_Featured(t *testing.T) {
	fetcher := &blockingFetcher{products: testProducts()}
	cache := NewCache(fetcher, zerolog.Nop())
	_, err := cache.Refresh(context.Background())
	require.NoError(t, err)

	featured := cache.Featured()

	// p1 by rating, p2 by review count, p3 by newness.
	ids := make([]string, 0, len(featured))
	for _, p := range featured {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"p1", "p2", "p3"}, ids)
}

func TestCache_FeaturedCap(t *testing.T) {
	products := make([]model.Product, 0, 10)
	for i := 0; i < 10; i++ {
		products = append(products, model.Product{ID: string(rune('a' + i)), Rating: 5.0})
	}

	fetcher := &blockingFetcher{products: products}
	cache := NewCache(fetcher, zerolog.Nop())
	_, err := cache.Refresh(context.Background())
	require.NoError(t, err)

	assert.Len(t, cache.Featured(), featuredLimit)
}

func TestCache_Similar(t *testing.T) {
	fetcher := &blockingFetcher{products: testProducts()}
	cache := NewCache(fetcher, zerolog.Nop())
	_, err := cache.Refresh(context.Background())
	require.NoError(t, err)

	similar := cache.Similar(model.Product{ID: "p1", Category: "clothing"})

	ids := make([]string, 0, len(similar))
	for _, p := range similar {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"p2", "p5"}, ids, "same category, excluding the product itself")
}

func TestCache_SimilarEmptyForUnknownCategory(t *testing.T) {
	fetcher := &blockingFetcher{products: testProducts()}
	cache := NewCache(fetcher, zerolog.Nop())
	_, err := cache.Refresh(context.Background())
	require.NoError(t, err)

	assert.Empty(t, cache.Similar(model.Product{ID: "x", Category: "garden"}))
}
