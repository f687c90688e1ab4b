package billing_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	billingmod "github.com/dmitrymomot/subsync/modules/billing"
	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/billing/stripe"
	"github.com/dmitrymomot/subsync/pkg/checkout"
	"github.com/dmitrymomot/subsync/pkg/gate"
	"github.com/dmitrymomot/subsync/pkg/identity"
	"github.com/dmitrymomot/subsync/pkg/profile"
	"github.com/dmitrymomot/subsync/pkg/reconcile"
)

const webhookSecret = "whsec_module_test"

type lookupFunc func(ctx context.Context, subscriptionID string) (billing.Correlation, error)

func (f lookupFunc) Correlation(ctx context.Context, id string) (billing.Correlation, error) {
	return f(ctx, id)
}

type mockCreator struct{ mock.Mock }

func (m *mockCreator) CreateCheckout(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutLink, error) {
	args := m.Called(ctx, req)
	link, _ := args.Get(0).(*billing.CheckoutLink)
	return link, args.Error(1)
}

type env struct {
	store   *profile.MemoryStore
	creator *mockCreator
	handler http.Handler
}

func newEnv(t *testing.T, secret string, lookup billing.SubscriptionLookup) *env {
	t.Helper()

	store := profile.NewMemoryStore()
	if lookup == nil {
		lookup = lookupFunc(func(context.Context, string) (billing.Correlation, error) {
			return billing.Correlation{}, billing.ErrSubscriptionMissing
		})
	}
	d := reconcile.NewDispatcher()
	reconcile.New(store, lookup).Register(d)

	creator := new(mockCreator)
	initiator := checkout.New(creator,
		billing.Catalog{profile.TierWeek: "price_w", profile.TierMonth: "price_m", profile.TierYear: "price_y"},
		checkout.Config{BaseURL: "https://app.example.com", SuccessPath: "/", CancelPath: "/subscribe"},
	)

	router := billingmod.Router(billingmod.RouterOptions{
		Providers:  []billing.Provider{stripe.New(stripe.Config{WebhookSecret: secret})},
		Dispatcher: d,
		Store:      store,
		Checkout:   initiator,
	})

	withUser := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get("X-Test-User"); id != "" {
				r = r.WithContext(identity.WithUserID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}

	return &env{store: store, creator: creator, handler: withUser(router)}
}

func (e *env) do(r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

func signedWebhook(t *testing.T, path, payload string) *http.Request {
	t.Helper()
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    webhookSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(string(signed.Payload)))
	r.Header.Set("Stripe-Signature", signed.Header)
	return r
}

const purchasePayload = `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","customer_email":"a@example.com","subscription":"sub_1","metadata":{"clerkUserId":"user_1","planType":"month"}}}}`

func TestWebhook(t *testing.T) {
	t.Parallel()

	t.Run("purchase activates profile", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, webhookSecret, nil)

		rec := e.do(signedWebhook(t, "/webhook", purchasePayload))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())

		p, err := e.store.Get(context.Background(), "user_1")
		require.NoError(t, err)
		assert.True(t, p.SubscriptionActive)
		assert.Equal(t, profile.TierMonth, p.SubscriptionTier)
	})

	t.Run("provider route", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, webhookSecret, nil)

		rec := e.do(signedWebhook(t, "/webhook/stripe", purchasePayload))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = e.do(signedWebhook(t, "/webhook/paypal", purchasePayload))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid signature", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, webhookSecret, nil)

		r := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(purchasePayload))
		r.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
		rec := e.do(r)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"error":"invalid signature"}`, rec.Body.String())
		assert.Zero(t, e.store.Len())
	})

	t.Run("missing secret", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, "", nil)

		rec := e.do(signedWebhook(t, "/webhook", purchasePayload))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Zero(t, e.store.Len())
	})

	t.Run("ignored and skipped events are acknowledged", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, webhookSecret, nil)

		for _, payload := range []string{
			`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`,
			`{"id":"evt_3","object":"event","type":"customer.subscription.deleted","data":{"object":{"id":"sub_1","status":"canceled","metadata":{}}}}`,
		} {
			rec := e.do(signedWebhook(t, "/webhook", payload))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"received":true}`, rec.Body.String())
		}
	})

	t.Run("transient failure asks for retry", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, webhookSecret, lookupFunc(func(context.Context, string) (billing.Correlation, error) {
			return billing.Correlation{}, errors.Join(billing.ErrProviderUnavailable, errors.New("timeout"))
		}))

		rec := e.do(signedWebhook(t, "/webhook", `{"id":"evt_4","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","subscription":"sub_1"}}}`))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestCheckSubscription(t *testing.T) {
	t.Parallel()

	e := newEnv(t, webhookSecret, nil)
	require.NoError(t, e.store.UpsertActive(context.Background(), "user_1", profile.ActiveFields{Tier: profile.TierWeek, SubscriptionID: "sub_1"}))

	tests := []struct {
		query  string
		status int
		body   string
	}{
		{query: "", status: http.StatusBadRequest, body: `{"error":"Missing userId"}`},
		{query: "?userId=user_1", status: http.StatusOK, body: `{"subscriptionActive":true}`},
		{query: "?userId=user_2", status: http.StatusOK, body: `{"subscriptionActive":false}`},
	}
	for _, tt := range tests {
		rec := e.do(httptest.NewRequest(http.MethodGet, "/check-subscription"+tt.query, nil))
		assert.Equal(t, tt.status, rec.Code, tt.query)
		assert.JSONEq(t, tt.body, rec.Body.String(), tt.query)
	}
}

func TestSubscriptionStatus(t *testing.T) {
	t.Parallel()

	e := newEnv(t, webhookSecret, nil)
	ctx := context.Background()
	require.NoError(t, e.store.UpsertActive(ctx, "user_1", profile.ActiveFields{Tier: profile.TierYear, SubscriptionID: "sub_1"}))
	_, err := e.store.UpdateActiveIfExists(ctx, "user_1", false)
	require.NoError(t, err)

	rec := e.do(httptest.NewRequest(http.MethodGet, "/profile/subscription-status", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	r := httptest.NewRequest(http.MethodGet, "/profile/subscription-status", nil)
	r.Header.Set("X-Test-User", "user_new")
	rec = e.do(r)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subscription":{"subscription_tier":null,"subscription_active":false}}`, rec.Body.String())

	r = httptest.NewRequest(http.MethodGet, "/profile/subscription-status", nil)
	r.Header.Set("X-Test-User", "user_1")
	rec = e.do(r)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subscription":{"subscription_tier":"year","subscription_active":false}}`, rec.Body.String())
}

func TestCheckout(t *testing.T) {
	t.Parallel()

	post := func(body, user, contentType string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
		r.Header.Set("Content-Type", contentType)
		if user != "" {
			r.Header.Set("X-Test-User", user)
		}
		return r
	}

	t.Run("returns url", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, webhookSecret, nil)
		e.creator.On("CreateCheckout", mock.Anything, mock.MatchedBy(func(req billing.CheckoutRequest) bool {
			return req.PriceID == "price_m" && req.Correlation.UserID == "user_1" && req.Correlation.Plan == "month"
		})).Return(&billing.CheckoutLink{ID: "cs_1", URL: "https://checkout.example.com/cs_1"}, nil)

		rec := e.do(post(`{"planType":"month","userId":"user_1","email":"a@example.com"}`, "", "application/json"))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"url":"https://checkout.example.com/cs_1"}`, rec.Body.String())
	})

	t.Run("session user fills user id", func(t *testing.T) {
		t.Parallel()
		e := newEnv(t, webhookSecret, nil)
		e.creator.On("CreateCheckout", mock.Anything, mock.MatchedBy(func(req billing.CheckoutRequest) bool {
			return req.Correlation.UserID == "user_7"
		})).Return(&billing.CheckoutLink{URL: "https://checkout.example.com/x"}, nil)

		rec := e.do(post(`{"planType":"week","email":"a@example.com"}`, "user_7", "application/json; charset=utf-8"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	errorCases := []struct {
		name        string
		body        string
		user        string
		contentType string
		status      int
	}{
		{name: "wrong content type", body: `{}`, contentType: "text/plain", status: http.StatusUnsupportedMediaType},
		{name: "bad json", body: `{"planType":`, contentType: "application/json", status: http.StatusBadRequest},
		{name: "unknown field", body: `{"planType":"week","userId":"u","email":"a@example.com","coupon":"x"}`, contentType: "application/json", status: http.StatusBadRequest},
		{name: "missing email", body: `{"planType":"week","userId":"u"}`, contentType: "application/json", status: http.StatusBadRequest},
		{name: "unknown plan", body: `{"planType":"decade","userId":"u","email":"a@example.com"}`, contentType: "application/json", status: http.StatusBadRequest},
		{name: "other user", body: `{"planType":"week","userId":"user_2","email":"a@example.com"}`, user: "user_1", contentType: "application/json", status: http.StatusForbidden},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := newEnv(t, webhookSecret, nil)

			rec := e.do(post(tt.body, tt.user, tt.contentType))
			assert.Equal(t, tt.status, rec.Code)
			e.creator.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything)
		})
	}
}

func TestForwardAuth(t *testing.T) {
	t.Parallel()

	store := profile.NewMemoryStore()
	require.NoError(t, store.UpsertActive(context.Background(), "user_paid", profile.ActiveFields{Tier: profile.TierMonth, SubscriptionID: "sub_1"}))
	g := gate.New(gate.DefaultPolicy(), gate.NewStoreChecker(store))
	res := identity.ResolverFunc(func(r *http.Request) (string, error) {
		if id := r.Header.Get("X-Test-User"); id != "" {
			return id, nil
		}
		return "", identity.ErrUnauthenticated
	})
	h := billingmod.ForwardAuthHandler(g, res)

	tests := []struct {
		name     string
		uri      string
		user     string
		status   int
		location string
	}{
		{name: "paid user", uri: "/mealplan?day=1", user: "user_paid", status: http.StatusOK},
		{name: "free user", uri: "/mealplan", user: "user_free", status: http.StatusFound, location: "/subscribe"},
		{name: "anonymous page", uri: "/mealplan", status: http.StatusFound, location: "/sign-up"},
		{name: "anonymous api", uri: "/api/profile/subscription-status", status: http.StatusUnauthorized},
		{name: "public", uri: "/subscribe", status: http.StatusOK},
		{name: "no forwarded uri", status: http.StatusUnauthorized},
		{name: "unparseable forwarded uri", uri: "::bad uri::", status: http.StatusUnauthorized},
		{name: "relative forwarded uri", uri: "mealplan", user: "user_free", status: http.StatusUnauthorized},
		{name: "double slash", uri: "//mealplan", user: "user_free", status: http.StatusFound, location: "/subscribe"},
		{name: "dot segments", uri: "/x/../mealplan", user: "user_free", status: http.StatusFound, location: "/subscribe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/gate/verify", nil)
			if tt.uri != "" {
				r.Header.Set("X-Forwarded-Uri", tt.uri)
			}
			if tt.user != "" {
				r.Header.Set("X-Test-User", tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
			if tt.status == http.StatusOK && tt.user != "" {
				assert.Equal(t, tt.user, rec.Header().Get(billingmod.UserHeader))
			}
		})
	}
}

func TestRouter_RateLimitSkipsWebhooks(t *testing.T) {
	t.Parallel()

	var limited []string
	limit := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limited = append(limited, r.URL.Path)
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}

	d := reconcile.NewDispatcher()
	router := billingmod.Router(billingmod.RouterOptions{
		Providers:  []billing.Provider{stripe.New(stripe.Config{WebhookSecret: webhookSecret})},
		Dispatcher: d,
		Store:      profile.NewMemoryStore(),
		RateLimit:  limit,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check-subscription?userId=u", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, signedWebhook(t, "/webhook", `{"id":"evt_x","object":"event","type":"customer.created","data":{"object":{}}}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"/check-subscription"}, limited)
}
