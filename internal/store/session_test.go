package store

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"kart-storefront/internal/api"
	"kart-storefront/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCustomerFetcher is a mock implementation of CustomerFetcher.
type MockCustomerFetcher struct {
	mock.Mock
}

func (m *MockCustomerFetcher) FetchCustomer(ctx context.Context, token string) (*model.Customer, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func testCustomer() model.Customer {
	return model.Customer{
		ID:        "c1",
		Email:     "jo@example.com",
		FirstName: "Jo",
		LastName:  "Doe",
	}
}

func TestSession_LoginLogout(t *testing.T) {
	session := NewSession(openTestStorage(t), new(MockCustomerFetcher), zerolog.Nop())

	assert.False(t, session.Authenticated())

	session.Login("token-1", testCustomer())
	snapshot := session.Snapshot()
	assert.True(t, snapshot.Authenticated())
	assert.Equal(t, "token-1", snapshot.Token)
	require.NotNil(t, snapshot.Customer)
	assert.Equal(t, "c1", snapshot.Customer.ID)

	session.Logout()
	snapshot = session.Snapshot()
	assert.Empty(t, snapshot.Token)
	assert.Nil(t, snapshot.Customer)
}

func TestSession_PersistsAcrossReload(t *testing.T) {
	st := openTestStorage(t)

	session := NewSession(st, new(MockCustomerFetcher), zerolog.Nop())
	session.Login("token-1", testCustomer())

	reloaded := NewSession(st, new(MockCustomerFetcher), zerolog.Nop())
	assert.True(t, reloaded.Authenticated())
	assert.Equal(t, "token-1", reloaded.Token())
}

func TestSession_LogoutClearsPersistedRecord(t *testing.T) {
	st := openTestStorage(t)

	session := NewSession(st, new(MockCustomerFetcher), zerolog.Nop())
	session.Login("token-1", testCustomer())
	session.Logout()

	reloaded := NewSession(st, new(MockCustomerFetcher), zerolog.Nop())
	assert.False(t, reloaded.Authenticated())
}

func TestSession_RefreshCustomerSuccess(t *testing.T) {
	fetcher := new(MockCustomerFetcher)
	session := NewSession(openTestStorage(t), fetcher, zerolog.Nop())
	session.Login("token-1", testCustomer())

	updated := testCustomer()
	updated.FirstName = "Joanna"
	fetcher.On("FetchCustomer", mock.Anything, "token-1").Return(&updated, nil)

	require.NoError(t, session.RefreshCustomer(context.Background()))

	snapshot := session.Snapshot()
	assert.Equal(t, "token-1", snapshot.Token, "token is kept on refresh")
	require.NotNil(t, snapshot.Customer)
	assert.Equal(t, "Joanna", snapshot.Customer.FirstName)
	fetcher.AssertExpectations(t)
}

func TestSession_RefreshCustomerUnauthorizedTriggersLogout(t *testing.T) {
	fetcher := new(MockCustomerFetcher)
	session := NewSession(openTestStorage(t), fetcher, zerolog.Nop())
	session.Login("token-1", testCustomer())

	fetcher.On("FetchCustomer", mock.Anything, "token-1").
		Return(nil, &api.Error{StatusCode: http.StatusUnauthorized, Message: "token expired"})

	err := session.RefreshCustomer(context.Background())
	assert.ErrorIs(t, err, model.ErrSessionExpired)

	snapshot := session.Snapshot()
	assert.Empty(t, snapshot.Token)
	assert.Nil(t, snapshot.Customer)
}

func TestSession_RefreshCustomerTransientFailureKeepsSession(t *testing.T) {
	fetcher := new(MockCustomerFetcher)
	session := NewSession(openTestStorage(t), fetcher, zerolog.Nop())
	session.Login("token-1", testCustomer())

	fetcher.On("FetchCustomer", mock.Anything, "token-1").
		Return(nil, errors.New("connection refused"))

	err := session.RefreshCustomer(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrSessionExpired)
	assert.True(t, session.Authenticated(), "transient failures leave the session intact")
}

func TestSession_RefreshCustomerWithoutToken(t *testing.T) {
	session := NewSession(openTestStorage(t), new(MockCustomerFetcher), zerolog.Nop())

	err := session.RefreshCustomer(context.Background())
	assert.ErrorIs(t, err, model.ErrNotAuthenticated)
}

func TestSession_RefreshCustomerExpiredTokenSkipsRoundTrip(t *testing.T) {
	fetcher := new(MockCustomerFetcher)
	session := NewSession(openTestStorage(t), fetcher, zerolog.Nop())

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "c1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("remote-secret"))
	require.NoError(t, err)
	session.Login(token, testCustomer())

	refreshErr := session.RefreshCustomer(context.Background())
	assert.ErrorIs(t, refreshErr, model.ErrSessionExpired)
	assert.False(t, session.Authenticated(), "an expired token ends the session locally")
	fetcher.AssertNotCalled(t, "FetchCustomer")
}

func TestSession_LateRefreshResponseIsDiscarded(t *testing.T) {
	fetcher := new(MockCustomerFetcher)
	session := NewSession(openTestStorage(t), fetcher, zerolog.Nop())
	session.Login("token-1", testCustomer())

	updated := testCustomer()
	fetcher.On("FetchCustomer", mock.Anything, "token-1").
		Run(func(mock.Arguments) { session.Logout() }).
		Return(&updated, nil)

	require.NoError(t, session.RefreshCustomer(context.Background()))
	assert.False(t, session.Authenticated(), "a late response must not resurrect a defunct session")
}

func TestSession_SubscribeNotifies(t *testing.T) {
	session := NewSession(openTestStorage(t), new(MockCustomerFetcher), zerolog.Nop())

	notifications := 0
	unsubscribe := session.Subscribe(func() { notifications++ })

	session.Login("token-1", testCustomer())
	session.Logout()
	assert.Equal(t, 2, notifications)

	unsubscribe()
	session.Login("token-2", testCustomer())
	assert.Equal(t, 2, notifications)
}

func TestSession_TokenExpiry(t *testing.T) {
	session := NewSession(openTestStorage(t), new(MockCustomerFetcher), zerolog.Nop())

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "c1",
		"exp": exp.Unix(),
	}).SignedString([]byte("remote-secret"))
	require.NoError(t, err)

	session.Login(token, testCustomer())

	got, ok := session.TokenExpiresAt()
	require.True(t, ok)
	assert.Equal(t, exp.Unix(), got.Unix())
	assert.False(t, session.TokenExpired(time.Now()))
	assert.True(t, session.TokenExpired(exp.Add(time.Minute)))
}

func TestSession_TokenExpiryOpaqueToken(t *testing.T) {
	session := NewSession(openTestStorage(t), new(MockCustomerFetcher), zerolog.Nop())
	session.Login("not-a-jwt", testCustomer())

	_, ok := session.TokenExpiresAt()
	assert.False(t, ok)
	assert.False(t, session.TokenExpired(time.Now()), "tokens without an expiry claim are treated as unexpired")
}
