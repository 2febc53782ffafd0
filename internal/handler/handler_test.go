package handler

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kart-storefront/internal/carousel"
	"kart-storefront/internal/catalog"
	"kart-storefront/internal/model"
	"kart-storefront/internal/storage"
	"kart-storefront/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// stubFetcher serves a fixed product list to the catalog cache.
type stubFetcher struct {
	products []model.Product
	err      error
}

func (f *stubFetcher) FetchProducts(ctx context.Context) ([]model.Product, error) {
	return f.products, f.err
}

// noopFetcher satisfies the session store's dependency in page tests that
// never refresh the customer.
type noopFetcher struct{}

func (noopFetcher) FetchCustomer(ctx context.Context, token string) (*model.Customer, error) {
	return &model.Customer{ID: "c1"}, nil
}

// testEnv wires real stores over temp storage for handler tests.
type testEnv struct {
	pages    *PageHandler
	cart     *store.Cart
	session  *store.Session
	recent   *store.RecentlyViewed
	catalog  *catalog.Cache
	carousel *carousel.Carousel
	renderer *Renderer
}

func newTestEnv(t *testing.T, products []model.Product) *testEnv {
	t.Helper()

	st, err := storage.Open(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	renderer, err := NewRenderer(zerolog.Nop())
	require.NoError(t, err)

	cart := store.NewCart(st, zerolog.Nop())
	session := store.NewSession(st, noopFetcher{}, zerolog.Nop())
	recent := store.NewRecentlyViewed(st, 8, zerolog.Nop())
	cache := catalog.NewCache(&stubFetcher{products: products}, zerolog.Nop())

	car := carousel.New(time.Hour, time.Hour, zerolog.Nop())
	car.SetBanners([]model.Banner{
		{ID: "b1", Title: "Summer Sale", ImageURL: "/img/sale.jpg"},
		{ID: "b2", Title: "New Arrivals", ImageURL: "/img/new.jpg"},
	})
	t.Cleanup(car.Stop)

	pages := NewPageHandler(cache, car, cart, session, recent, renderer, zerolog.Nop())

	return &testEnv{
		pages:    pages,
		cart:     cart,
		session:  session,
		recent:   recent,
		catalog:  cache,
		carousel: car,
		renderer: renderer,
	}
}

func catalogProducts() []model.Product {
	return []model.Product{
		{ID: "p1", Name: "Shirt", Slug: "shirt", Price: 100, Category: "clothing", Rating: 4.9},
		{ID: "p2", Name: "Hat", Slug: "hat", Price: 50, Category: "clothing", Rating: 4.7},
		{ID: "p3", Name: "Mug", Slug: "mug", Price: 20, Category: "kitchen", IsNew: true},
	}
}

// form builds an url-encoded request body.
func form(values map[string]string) *strings.Reader {
	data := url.Values{}
	for k, v := range values {
		data.Set(k, v)
	}
	return strings.NewReader(data.Encode())
}
