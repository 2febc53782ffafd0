package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kart-storefront/internal/api"
	"kart-storefront/internal/carousel"
	"kart-storefront/internal/catalog"
	"kart-storefront/internal/config"
	"kart-storefront/internal/handler"
	"kart-storefront/internal/router"
	"kart-storefront/internal/storage"
	"kart-storefront/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting kart storefront")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open durable local storage
	st, err := storage.Open(cfg.Storage.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open local storage: %w", err)
	}
	defer st.Close()

	// Initialize the remote API client
	client := api.New(cfg.API.BaseURL, time.Duration(cfg.API.TimeoutSeconds)*time.Second, logger)

	// Initialize state stores from persisted state
	cart := store.NewCart(st, logger)
	session := store.NewSession(st, client, logger)
	recent := store.NewRecentlyViewed(st, cfg.Recent.MaxEntries, logger)

	// Initialize the product cache and banner carousel
	cache := catalog.NewCache(client, logger)
	car := carousel.New(
		time.Duration(cfg.Carousel.AdvanceSeconds)*time.Second,
		time.Duration(cfg.Carousel.ResumeSeconds)*time.Second,
		logger,
	)
	defer car.Stop()

	// Fetch the initial banner set and product list in the background;
	// pages render placeholder states until the data arrives, and a
	// failed product fetch is retried lazily on the next page view.
	go func() {
		fetchCtx, fetchCancel := context.WithTimeout(ctx, time.Duration(cfg.API.TimeoutSeconds)*time.Second)
		defer fetchCancel()

		if banners, err := client.FetchBanners(fetchCtx); err != nil {
			logger.Warn().Err(err).Msg("initial banner fetch failed, carousel renders placeholder")
		} else {
			car.SetBanners(banners)
		}

		if _, err := cache.Refresh(fetchCtx); err != nil {
			logger.Warn().Err(err).Msg("initial product fetch failed")
		}
	}()

	// Refresh the customer profile when a session survived the restart,
	// so a revoked token is noticed before the first gated page.
	if session.Authenticated() {
		go func() {
			refreshCtx, refreshCancel := context.WithTimeout(ctx, time.Duration(cfg.API.TimeoutSeconds)*time.Second)
			defer refreshCancel()

			if err := session.RefreshCustomer(refreshCtx); err != nil {
				logger.Warn().Err(err).Msg("startup session refresh failed")
			}
		}()
	}

	// Initialize HTTP handlers
	renderer, err := handler.NewRenderer(logger)
	if err != nil {
		return fmt.Errorf("failed to initialize renderer: %w", err)
	}
	pages := handler.NewPageHandler(cache, car, cart, session, recent, renderer, logger)
	auth := handler.NewAuthHandler(client, session, pages, renderer, logger)
	cartHandler := handler.NewCartHandler(cart, pages, renderer, logger)

	// Initialize router
	mux := router.New(pages, auth, cartHandler, session, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the cart event stream writes for the connection lifetime
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("storefront server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
