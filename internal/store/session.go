package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kart-storefront/internal/api"
	"kart-storefront/internal/model"
	"kart-storefront/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// CustomerFetcher fetches the latest customer profile for a bearer token.
type CustomerFetcher interface {
	FetchCustomer(ctx context.Context, token string) (*model.Customer, error)
}

// Session holds the authenticated customer session. Token and customer are
// set and cleared together; dependent views never observe one without the
// other. RefreshCustomer is the only network-bound operation.
type Session struct {
	mu      sync.Mutex
	session model.Session
	storage *storage.Store
	fetcher CustomerFetcher
	logger  zerolog.Logger
	subs    subscribers
}

// NewSession creates a session store, loading any prior session from
// durable storage. A missing or unparsable record starts unauthenticated.
func NewSession(st *storage.Store, fetcher CustomerFetcher, logger zerolog.Logger) *Session {
	s := &Session{
		storage: st,
		fetcher: fetcher,
		logger:  logger.With().Str("store", "session").Logger(),
	}

	var record model.Session
	found, err := st.Get(storage.KeySession, &record)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load persisted session, starting unauthenticated")
	} else if found && record.Authenticated() {
		s.session = record
		s.logger.Debug().Str("customer_id", record.Customer.ID).Msg("loaded persisted session")
	}

	return s
}

// Snapshot returns a copy of the current session.
func (s *Session) Snapshot() model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := model.Session{Token: s.session.Token}
	if s.session.Customer != nil {
		customer := *s.session.Customer
		snapshot.Customer = &customer
	}
	return snapshot
}

// Token returns the current bearer token, or empty when unauthenticated.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Token
}

// Authenticated reports whether a customer session is active.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session.Authenticated()
}

// Login sets the token and customer atomically, persists and notifies.
func (s *Session) Login(token string, customer model.Customer) {
	s.mu.Lock()
	s.session = model.Session{Token: token, Customer: &customer}
	s.persistLocked()
	s.mu.Unlock()

	s.logger.Info().Str("customer_id", customer.ID).Msg("customer logged in")
	s.subs.notify()
}

// Logout clears the token and customer atomically, persists and notifies.
func (s *Session) Logout() {
	s.mu.Lock()
	s.session = model.Session{}
	s.persistLocked()
	s.mu.Unlock()

	s.logger.Info().Msg("customer logged out")
	s.subs.notify()
}

// RefreshCustomer fetches the latest profile for the current token and
// replaces the stored customer, keeping the token. A token whose expiry
// claim has already passed is logged out without a round trip. A 401 from
// the API means the session is no longer valid and triggers Logout. Any
// other failure leaves the session intact and is returned to the caller;
// stale customer data paired with a valid token is an acceptable transient
// state.
func (s *Session) RefreshCustomer(ctx context.Context) error {
	s.mu.Lock()
	token := s.session.Token
	s.mu.Unlock()

	if token == "" {
		return model.ErrNotAuthenticated
	}

	if s.TokenExpired(time.Now()) {
		s.logger.Warn().Msg("bearer token expired, logging out")
		s.Logout()
		return model.ErrSessionExpired
	}

	customer, err := s.fetcher.FetchCustomer(ctx, token)
	if err != nil {
		var apiErr *api.Error
		if errors.As(err, &apiErr) && apiErr.Unauthorized() {
			s.logger.Warn().Msg("token rejected by API, logging out")
			s.Logout()
			return model.ErrSessionExpired
		}
		s.logger.Error().Err(err).Msg("failed to refresh customer profile")
		return fmt.Errorf("refresh customer: %w", err)
	}

	s.mu.Lock()
	// The session may have been logged out while the request was in
	// flight; a late response must not resurrect it.
	if s.session.Token != token {
		s.mu.Unlock()
		s.logger.Debug().Msg("session changed during refresh, discarding response")
		return nil
	}
	s.session.Customer = customer
	s.persistLocked()
	s.mu.Unlock()

	s.logger.Debug().Str("customer_id", customer.ID).Msg("customer profile refreshed")
	s.subs.notify()
	return nil
}

// TokenExpiresAt returns the bearer token's expiry claim, when present.
// The claim is read without signature verification: this client only
// consumes tokens, it never vouches for them.
func (s *Session) TokenExpiresAt() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TokenExpired reports whether the bearer token carries an expiry claim in
// the past. Tokens without an expiry claim are treated as unexpired.
func (s *Session) TokenExpired(now time.Time) bool {
	exp, ok := s.TokenExpiresAt()
	return ok && exp.Before(now)
}

// Subscribe registers a state-changed callback and returns an unsubscribe
// function.
func (s *Session) Subscribe(fn func()) func() {
	return s.subs.subscribe(fn)
}

// persistLocked writes the current session to durable storage. Callers
// hold s.mu. Write failures are logged and swallowed.
func (s *Session) persistLocked() {
	var err error
	if s.session.Authenticated() {
		err = s.storage.Put(storage.KeySession, s.session)
	} else {
		err = s.storage.Delete(storage.KeySession)
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to persist session, in-memory state remains authoritative")
	}
}
