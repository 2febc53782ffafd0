package handler

import (
	"net/http"
	"strconv"

	"kart-storefront/internal/carousel"
	"kart-storefront/internal/catalog"
	"kart-storefront/internal/model"
	"kart-storefront/internal/store"

	"github.com/rs/zerolog"
)

// PageHandler renders the storefront pages.
type PageHandler struct {
	catalog  *catalog.Cache
	carousel *carousel.Carousel
	cart     *store.Cart
	session  *store.Session
	recent   *store.RecentlyViewed
	renderer *Renderer
	logger   zerolog.Logger
}

// NewPageHandler creates a new page handler.
func NewPageHandler(
	cache *catalog.Cache,
	car *carousel.Carousel,
	cart *store.Cart,
	session *store.Session,
	recent *store.RecentlyViewed,
	renderer *Renderer,
	logger zerolog.Logger,
) *PageHandler {
	return &PageHandler{
		catalog:  cache,
		carousel: car,
		cart:     cart,
		session:  session,
		recent:   recent,
		renderer: renderer,
		logger:   logger.With().Str("handler", "pages").Logger(),
	}
}

// page builds the context fields shared by every template.
func (h *PageHandler) page(title string) pageContext {
	session := h.session.Snapshot()
	return pageContext{
		Title:         title,
		Authenticated: session.Authenticated(),
		Customer:      session.Customer,
		CartCount:     h.cart.ItemCount(),
		CartTotal:     h.cart.Total(),
	}
}

type homeData struct {
	pageContext
	Carousel       carousel.State
	Featured       []model.Product
	Loading        bool
	RecentlyViewed []model.RecentlyViewedEntry
}

// Home handles GET /.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.ensureCatalog(r)

	h.renderer.Render(w, http.StatusOK, "home.html", homeData{
		pageContext:    h.page("Home"),
		Carousel:       h.carousel.Snapshot(),
		Featured:       h.catalog.Featured(),
		Loading:        h.catalog.Loading(),
		RecentlyViewed: h.recent.Entries(),
	})
}

type productData struct {
	pageContext
	Product model.Product
	Similar []model.Product
}

// Product handles GET /products/{slug}. Viewing a product records it in
// the recently-viewed list.
func (h *PageHandler) Product(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		h.NotFound(w, r)
		return
	}

	h.ensureCatalog(r)

	var product *model.Product
	for _, p := range h.catalog.Products() {
		if p.Slug == slug {
			product = &p
			break
		}
	}
	if product == nil {
		h.NotFound(w, r)
		return
	}

	h.recent.RecordView(*product)

	h.renderer.Render(w, http.StatusOK, "product.html", productData{
		pageContext: h.page(product.Name),
		Product:     *product,
		Similar:     h.catalog.Similar(*product),
	})
}

type dashboardData struct {
	pageContext
	Cart           model.CartState
	RecentlyViewed []model.RecentlyViewedEntry
}

// Dashboard handles GET /dashboard. Reached only through the session gate.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "dashboard.html", dashboardData{
		pageContext:    h.page("Dashboard"),
		Cart:           h.cart.Snapshot(),
		RecentlyViewed: h.recent.Entries(),
	})
}

// Help handles GET /help.
func (h *PageHandler) Help(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "help.html", h.page("Help"))
}

// Blog handles GET /blog.
func (h *PageHandler) Blog(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "blog.html", h.page("Blog"))
}

type errorData struct {
	pageContext
	Message string
}

// NotFound renders the error page with a 404 status.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusNotFound, "error.html", errorData{
		pageContext: h.page("Not found"),
		Message:     "The page you were looking for does not exist.",
	})
}

// CarouselNext handles POST /carousel/next.
func (h *PageHandler) CarouselNext(w http.ResponseWriter, r *http.Request) {
	h.carousel.Next()
	redirectBack(w, r)
}

// CarouselPrev handles POST /carousel/prev.
func (h *PageHandler) CarouselPrev(w http.ResponseWriter, r *http.Request) {
	h.carousel.Prev()
	redirectBack(w, r)
}

// CarouselGoTo handles POST /carousel/goto, jumping straight to the slide
// picked by a dot indicator.
func (h *PageHandler) CarouselGoTo(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PostFormValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid slide index", h.logger)
		return
	}

	h.carousel.GoTo(index)
	redirectBack(w, r)
}

// ClearRecentlyViewed handles POST /recently-viewed/clear.
func (h *PageHandler) ClearRecentlyViewed(w http.ResponseWriter, r *http.Request) {
	h.recent.ClearAll()
	redirectBack(w, r)
}

// ensureCatalog lazily loads the product list when the cache is still
// empty. A failed fetch renders the loading/placeholder state rather than
// an error page; the next request retries.
func (h *PageHandler) ensureCatalog(r *http.Request) {
	if len(h.catalog.Products()) > 0 || h.catalog.Loading() {
		return
	}
	if _, err := h.catalog.Refresh(r.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("product fetch failed, rendering placeholder")
	}
}

// redirectBack sends the browser to the page it came from, falling back to
// the home page.
func redirectBack(w http.ResponseWriter, r *http.Request) {
	target := r.Referer()
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
