package router

import (
	"net/http"

	"kart-storefront/internal/handler"
	"kart-storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates the storefront router with all routes and middleware configured.
func New(
	pages *handler.PageHandler,
	auth *handler.AuthHandler,
	cart *handler.CartHandler,
	session middleware.SessionChecker,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Embedded assets
	mux.Handle("GET /static/", handler.Static())

	// Browsing pages
	mux.HandleFunc("GET /{$}", pages.Home)
	mux.HandleFunc("GET /products/{slug}", pages.Product)
	mux.HandleFunc("GET /help", pages.Help)
	mux.HandleFunc("GET /blog", pages.Blog)
	mux.HandleFunc("POST /carousel/next", pages.CarouselNext)
	mux.HandleFunc("POST /carousel/prev", pages.CarouselPrev)
	mux.HandleFunc("POST /carousel/goto", pages.CarouselGoTo)
	mux.HandleFunc("POST /recently-viewed/clear", pages.ClearRecentlyViewed)

	// Authentication
	mux.HandleFunc("GET /login", auth.LoginForm)
	mux.HandleFunc("POST /login", auth.Login)
	mux.HandleFunc("POST /logout", auth.Logout)

	// Account pages behind the session gate
	gate := middleware.RequireSession(session, logger)
	mux.Handle("GET /dashboard", gate(http.HandlerFunc(pages.Dashboard)))
	mux.Handle("GET /profile", gate(http.HandlerFunc(auth.Profile)))
	mux.Handle("POST /profile", gate(http.HandlerFunc(auth.UpdateProfile)))

	// Cart drawer and mutations
	mux.HandleFunc("GET /cart", cart.Drawer)
	mux.HandleFunc("GET /cart/events", cart.Events)
	mux.HandleFunc("POST /cart/items", cart.Add)
	mux.HandleFunc("POST /cart/items/update", cart.UpdateQuantity)
	mux.HandleFunc("POST /cart/items/remove", cart.Remove)
	mux.HandleFunc("POST /cart/clear", cart.Clear)
	mux.HandleFunc("POST /cart/close", cart.Close)

	// Unmatched paths fall through to the 404 page
	mux.HandleFunc("/", pages.NotFound)

	// Apply middleware in order: Recovery -> Logging -> CORS
	var h http.Handler = mux
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
