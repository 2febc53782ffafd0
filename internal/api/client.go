// Package api is the HTTP client for the remote commerce API. It owns none
// of the data shapes it consumes; it fetches banners, products and customer
// profiles and exchanges credentials for a bearer token.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kart-storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Error represents a failed API call.
type Error struct {
	StatusCode    int
	Message       string
	CorrelationID string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api: %s (status %d)", e.Message, e.StatusCode)
}

// Unauthorized reports whether the API rejected the bearer token.
func (e *Error) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// LoginResult is the response to a successful authentication.
type LoginResult struct {
	Token    string         `json:"token"`
	Customer model.Customer `json:"customer"`
}

// CustomerPatch carries the profile fields a customer may update.
// Nil fields are left unchanged by the API.
type CustomerPatch struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// Client calls the remote commerce API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates an API client for the given base URL.
func New(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "api-client").Logger(),
	}
}

// FetchBanners retrieves the banner list for the home-page carousel.
func (c *Client) FetchBanners(ctx context.Context) ([]model.Banner, error) {
	var banners []model.Banner
	if err := c.do(ctx, http.MethodGet, "/banners", "", nil, &banners); err != nil {
		return nil, err
	}
	return banners, nil
}

// FetchProducts retrieves the full product list.
func (c *Client) FetchProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := c.do(ctx, http.MethodGet, "/products", "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// FetchCustomer retrieves the profile for the given bearer token.
func (c *Client) FetchCustomer(ctx context.Context, token string) (*model.Customer, error) {
	var customer model.Customer
	if err := c.do(ctx, http.MethodGet, "/customers/me", token, nil, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpdateCustomer patches the profile for the given bearer token and
// returns the updated record.
func (c *Client) UpdateCustomer(ctx context.Context, token string, patch CustomerPatch) (*model.Customer, error) {
	var customer model.Customer
	if err := c.do(ctx, http.MethodPatch, "/customers/me", token, patch, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// Login exchanges credentials for a bearer token and profile. The API
// responds with a single shape: {token, customer}.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}

	var result LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &result); err != nil {
		return nil, err
	}
	if result.Token == "" {
		return nil, &Error{StatusCode: http.StatusOK, Message: "login response missing token"}
	}
	return &result, nil
}

// do issues one request. A bearer token is attached when present, every
// request carries a correlation ID, non-2xx responses become *Error, and
// an undecodable success body is reported as a malformed-response failure.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	correlationID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Correlation-ID", correlationID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("method", method).
			Str("path", path).
			Str("correlation_id", correlationID).
			Msg("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("correlation_id", correlationID).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			StatusCode:    resp.StatusCode,
			Message:       apiErrorMessage(resp),
			CorrelationID: correlationID,
		}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error().
			Err(err).
			Str("path", path).
			Str("correlation_id", correlationID).
			Msg("malformed response body")
		return &Error{
			StatusCode:    resp.StatusCode,
			Message:       "malformed response body",
			CorrelationID: correlationID,
		}
	}

	return nil
}

// apiErrorMessage extracts the error message from a failed response,
// falling back to the HTTP status text.
func apiErrorMessage(resp *http.Response) string {
	var payload model.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return http.StatusText(resp.StatusCode)
}
