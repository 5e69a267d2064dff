package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/usecase"
)

type recorded struct {
	path    string
	headers http.Header
	body    map[string]any
}

type backend struct {
	mu       sync.Mutex
	requests []recorded
	handle   func(w http.ResponseWriter, path string, body map[string]any, r *http.Request)
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	b.mu.Lock()
	b.requests = append(b.requests, recorded{path: r.URL.Path, headers: r.Header.Clone(), body: body})
	b.mu.Unlock()
	b.handle(w, r.URL.Path, body, r)
}

func (b *backend) paths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.requests))
	for _, r := range b.requests {
		out = append(out, r.path)
	}
	return out
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": 0, "msg": "", "data": data})
}

func writeFail(w http.ResponseWriter, status, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg})
}

func newTestClient(t *testing.T, b *backend) *Client {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, "key-1", 7, 5*time.Second, nil)
	return c
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}).SignedString([]byte("test"))
	require.NoError(t, err)
	return tok
}

func TestGetBasketRequestShape(t *testing.T) {
	b := &backend{handle: func(w http.ResponseWriter, _ string, _ map[string]any, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]any{
			"basketToken":      "tok-1",
			"storeId":          42,
			"fulfilmentMethod": map[string]any{"type": "delivery", "cost": "2.50"},
			"items":            []any{map[string]any{"basketLineId": 3, "menuItem": map[string]any{"id": 7}, "quantity": 1, "price": "9.99"}},
			"orderTotal":       "12.49",
		})
	}}
	c := newTestClient(t, b)

	got, err := c.GetBasket(context.Background(), usecase.GetBasketRequest{
		StoreID:            42,
		FulfilmentMethod:   domain.FulfilmentDelivery,
		FulfilmentLocation: &domain.FulfilmentLocation{Postcode: "BN1 1AA"},
		IsFirstOrder:       true,
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.Token)
	assert.Equal(t, "12.49", got.Total.StringFixed(2))
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].LineID)

	require.Len(t, b.requests, 1)
	req := b.requests[0]
	assert.Equal(t, "/en_GB/basket/getBasket.json", req.path)
	assert.Equal(t, "key-1", req.headers.Get("X-API-Key"))
	assert.NotEmpty(t, req.headers.Get("X-Request-ID"))
	assert.Empty(t, req.headers.Get("Idempotency-Key"))
	assert.Empty(t, req.headers.Get("Authorization"))
	assert.EqualValues(t, 7, req.body["businessId"])
	assert.EqualValues(t, 42, req.body["storeId"])
	assert.Equal(t, true, req.body["isFirstOrder"])
	assert.NotContains(t, req.body, "basketToken")
}

func TestErrorsAreTyped(t *testing.T) {
	b := &backend{handle: func(w http.ResponseWriter, path string, _ map[string]any, _ *http.Request) {
		switch path {
		case "/en_GB/member/profile.json":
			writeFail(w, http.StatusUnauthorized, 401, "token expired")
		case "/en_GB/basket/applyCoupon.json":
			writeFail(w, http.StatusOK, 3001, "coupon not valid")
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down"))
		}
	}}
	c := newTestClient(t, b)
	ctx := context.Background()

	_, err := c.GetProfile(ctx, 1)
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "token expired", apiErr.Message)

	_, err = c.ApplyCoupon(ctx, "tok-1", "NOPE")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 3001, apiErr.Code)
	assert.NotErrorIs(t, err, usecase.ErrUnauthorized)

	_, err = c.SearchStores(ctx, "BN1")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream down", apiErr.Message)
}

func TestCreateDraftOrderOutcomes(t *testing.T) {
	var reply any
	b := &backend{handle: func(w http.ResponseWriter, _ string, _ map[string]any, _ *http.Request) {
		writeData(w, http.StatusOK, reply)
	}}
	c := newTestClient(t, b)
	ctx := context.Background()
	req := domain.DraftOrderRequest{BasketToken: "tok-1", StoreID: 42, PaymentGateway: domain.GatewayCash}

	reply = map[string]any{"draftOrderId": 555, "businessOrderId": 9001}
	out, err := c.CreateDraftOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderConfirmed{BusinessOrderID: 9001}, out)

	reply = map[string]any{"draftOrderId": 555, "businessOrderId": nil, "paymentMethods": []any{map[string]any{"id": "card_1"}}}
	out, err = c.CreateDraftOrder(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, domain.AwaitingPayment{DraftOrderID: 555, SavedCards: []domain.SavedCard{{ID: "card_1"}}}, out)

	reply = map[string]any{}
	_, err = c.CreateDraftOrder(ctx, req)
	assert.Error(t, err)

	last := b.requests[len(b.requests)-1]
	assert.Equal(t, "tok-1", last.body["basketToken"])
	assert.Equal(t, "cash", last.body["paymentGateway"])
	assert.NotEmpty(t, last.headers.Get("Idempotency-Key"))
}

func TestPaymentCalls(t *testing.T) {
	b := &backend{handle: func(w http.ResponseWriter, path string, _ map[string]any, _ *http.Request) {
		if path == "/en_GB/checkout/getRealexHPPProducerData.json" {
			writeData(w, http.StatusOK, map[string]any{"ORDER_ID": "abc"})
			return
		}
		writeData(w, http.StatusOK, map[string]any{"status": "success", "businessOrderId": 9001})
	}}
	c := newTestClient(t, b)
	ctx := context.Background()

	producer, err := c.GetHostedPageProducerData(ctx, 555)
	require.NoError(t, err)
	assert.Equal(t, 555, producer.DraftOrderID)
	assert.JSONEq(t, `{"ORDER_ID":"abc"}`, string(producer.Payload))

	res, err := c.ConfirmPayment(ctx, 555)
	require.NoError(t, err)
	assert.Equal(t, 9001, res.BusinessOrderID)

	_, err = c.MakePayment(ctx, domain.MakePaymentRequest{DraftOrderID: 555, Type: domain.PaymentByToken, Method: "applepay", Token: "t"})
	require.NoError(t, err)
	last := b.requests[len(b.requests)-1]
	assert.Equal(t, "token", last.body["type"])
	assert.EqualValues(t, 555, last.body["draftOrderId"])
}

func TestExpiringTokenRefreshedBeforeCall(t *testing.T) {
	fresh := signedToken(t, time.Now().Add(time.Hour))
	b := &backend{handle: func(w http.ResponseWriter, path string, body map[string]any, _ *http.Request) {
		if path == "/en_GB/oauth/token" {
			writeData(w, http.StatusOK, map[string]any{"access_token": fresh})
			return
		}
		writeData(w, http.StatusOK, map[string]any{"uuid": "m-1"})
	}}
	c := newTestClient(t, b)
	c.Session.SetTokens(domain.AuthTokens{AccessToken: signedToken(t, time.Now().Add(10*time.Second)), RefreshToken: "r-1"})
	require.True(t, c.Session.Expiring(time.Now()))

	p, err := c.GetProfile(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, "m-1", p.UUID)
	assert.Equal(t, []string{"/en_GB/oauth/token", "/en_GB/member/profile.json"}, b.paths())
	assert.Equal(t, "refresh_token", b.requests[0].body["grant_type"])
	assert.Equal(t, "Bearer "+fresh, b.requests[1].headers.Get("Authorization"))
	assert.Equal(t, "r-1", c.Session.RefreshToken())
}

func TestUnauthorizedRetriedOnceAfterRefresh(t *testing.T) {
	stale := signedToken(t, time.Now().Add(time.Hour))
	fresh := "opaque-fresh"
	b := &backend{handle: func(w http.ResponseWriter, path string, _ map[string]any, r *http.Request) {
		switch {
		case path == "/en_GB/oauth/token":
			writeData(w, http.StatusOK, map[string]any{"access_token": fresh, "refresh_token": "r-2"})
		case r.Header.Get("Authorization") == "Bearer "+fresh:
			writeData(w, http.StatusOK, map[string]any{"businessOrderId": 1, "status": "in_progress"})
		default:
			writeFail(w, http.StatusUnauthorized, 401, "revoked")
		}
	}}
	c := newTestClient(t, b)
	c.Session.SetTokens(domain.AuthTokens{AccessToken: stale, RefreshToken: "r-1"})

	st, err := c.GetPlacedOrderStatus(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusInProgress, st.Status)
	assert.Equal(t, []string{"/en_GB/order/status.json", "/en_GB/oauth/token", "/en_GB/order/status.json"}, b.paths())
	assert.Equal(t, "r-2", c.Session.RefreshToken())
	assert.False(t, c.Session.Expiring(time.Now()))
}

func TestFailedRefreshSurfacesUnauthorized(t *testing.T) {
	b := &backend{handle: func(w http.ResponseWriter, _ string, _ map[string]any, _ *http.Request) {
		writeFail(w, http.StatusUnauthorized, 401, "nope")
	}}
	c := newTestClient(t, b)
	c.Session.SetTokens(domain.AuthTokens{AccessToken: "a", RefreshToken: "r"})

	_, err := c.GetDriverLocation(context.Background(), 1)
	assert.True(t, errors.Is(err, usecase.ErrUnauthorized))
}

func TestSessionTokens(t *testing.T) {
	var s Session
	assert.False(t, s.SignedIn())
	s.SetTokens(domain.AuthTokens{AccessToken: "not-a-jwt", RefreshToken: "r"})
	assert.True(t, s.SignedIn())
	assert.False(t, s.Expiring(time.Now()))

	s.SetTokens(domain.AuthTokens{AccessToken: signedToken(t, time.Now().Add(-time.Minute)), RefreshToken: "r"})
	assert.True(t, s.Expiring(time.Now()))
	s.Clear()
	assert.False(t, s.SignedIn())
	assert.False(t, s.Expiring(time.Now()))
}

func TestLoginDoesNotTouchSession(t *testing.T) {
	b := &backend{handle: func(w http.ResponseWriter, _ string, body map[string]any, _ *http.Request) {
		assert.Equal(t, "password", body["grant_type"])
		writeData(w, http.StatusOK, map[string]any{"access_token": "a", "refresh_token": "r"})
	}}
	c := newTestClient(t, b)
	tokens, err := c.Login(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.AuthTokens{AccessToken: "a", RefreshToken: "r"}, tokens)
	assert.False(t, c.Session.SignedIn())
}

func TestFindAddresses(t *testing.T) {
	b := &backend{handle: func(w http.ResponseWriter, _ string, _ map[string]any, _ *http.Request) {
		writeData(w, http.StatusOK, map[string]any{"addresses": []any{map[string]any{"addressLine1": "1 Marine Parade"}}})
	}}
	c := newTestClient(t, b)
	out, err := c.FindAddresses(context.Background(), "BN2 1TL", "GB")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1 Marine Parade", out[0].AddressLine1)
}
