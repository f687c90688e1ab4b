package paddle_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	paddlesdk "github.com/PaddleHQ/paddle-go-sdk/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/billing/paddle"
	"github.com/dmitrymomot/subsync/pkg/profile"
)

const testSecret = "pdl_ntfset_secret"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sign(payload string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	fmt.Fprintf(mac, "%d:%s", ts.Unix(), payload)
	return fmt.Sprintf("ts=%d;h1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

type mockTransactions struct{ mock.Mock }

func (m *mockTransactions) CreateTransaction(ctx context.Context, req *paddlesdk.CreateTransactionRequest) (*paddlesdk.Transaction, error) {
	args := m.Called(ctx, req)
	tx, _ := args.Get(0).(*paddlesdk.Transaction)
	return tx, args.Error(1)
}

type mockSubscriptions struct{ mock.Mock }

func (m *mockSubscriptions) GetSubscription(ctx context.Context, req *paddlesdk.GetSubscriptionRequest) (*paddlesdk.Subscription, error) {
	args := m.Called(ctx, req)
	sub, _ := args.Get(0).(*paddlesdk.Subscription)
	return sub, args.Error(1)
}

// transaction decodes an API response the way the SDK client does.
func transaction(t *testing.T, raw string) *paddlesdk.Transaction {
	t.Helper()
	var tx paddlesdk.Transaction
	require.NoError(t, json.Unmarshal([]byte(raw), &tx))
	return &tx
}

func subscription(t *testing.T, raw string) *paddlesdk.Subscription {
	t.Helper()
	var sub paddlesdk.Subscription
	require.NoError(t, json.Unmarshal([]byte(raw), &sub))
	return &sub
}

func newProvider(t *testing.T, opts ...paddle.Option) *paddle.Provider {
	t.Helper()
	opts = append([]paddle.Option{paddle.WithClock(func() time.Time { return fixedNow })}, opts...)
	p, err := paddle.New(paddle.Config{WebhookSecret: testSecret}, opts...)
	require.NoError(t, err)
	return p
}

func TestVerifyEvent_Decoding(t *testing.T) {
	t.Parallel()

	occurred := time.Date(2026, 3, 1, 11, 59, 0, 0, time.UTC)
	meta := func(id, typ string) billing.EventMeta {
		return billing.EventMeta{Provider: "paddle", ID: id, Type: typ, OccurredAt: occurred}
	}

	tests := []struct {
		name    string
		payload string
		want    billing.Event
	}{
		{
			name:    "first transaction is a purchase",
			payload: `{"event_id":"evt_1","event_type":"transaction.completed","occurred_at":"2026-03-01T11:59:00Z","data":{"id":"txn_1","status":"completed","origin":"web","subscription_id":"sub_1","custom_data":{"clerkUserId":"user_1","planType":"month","email":"a@example.com"}}}`,
			want: billing.PurchaseCompleted{
				EventMeta:      meta("evt_1", "transaction.completed"),
				Correlation:    billing.Correlation{UserID: "user_1", Plan: "month"},
				Email:          "a@example.com",
				SubscriptionID: "sub_1",
			},
		},
		{
			name:    "renewal transaction is an invoice payment",
			payload: `{"event_id":"evt_2","event_type":"transaction.completed","occurred_at":"2026-03-01T11:59:00Z","data":{"id":"txn_2","origin":"subscription_recurring","subscription_id":"sub_1"}}`,
			want: billing.InvoicePaid{
				EventMeta:      meta("evt_2", "transaction.completed"),
				SubscriptionID: "sub_1",
			},
		},
		{
			name:    "subscription past due",
			payload: `{"event_id":"evt_3","event_type":"subscription.past_due","occurred_at":"2026-03-01T11:59:00Z","data":{"id":"sub_1","status":"past_due","custom_data":{"clerkUserId":"user_1"}}}`,
			want: billing.SubscriptionStatusChanged{
				EventMeta:      meta("evt_3", "subscription.past_due"),
				Correlation:    billing.Correlation{UserID: "user_1"},
				SubscriptionID: "sub_1",
				Status:         "past_due",
			},
		},
		{
			name:    "subscription canceled",
			payload: `{"event_id":"evt_4","event_type":"subscription.canceled","occurred_at":"2026-03-01T11:59:00Z","data":{"id":"sub_1","status":"canceled","custom_data":{"clerkUserId":"user_1","planType":"month"}}}`,
			want: billing.SubscriptionCanceled{
				EventMeta:      meta("evt_4", "subscription.canceled"),
				Correlation:    billing.Correlation{UserID: "user_1", Plan: "month"},
				SubscriptionID: "sub_1",
			},
		},
		{
			name:    "unknown type is ignored",
			payload: `{"event_id":"evt_5","event_type":"customer.created","occurred_at":"2026-03-01T11:59:00Z","data":{}}`,
			want:    billing.Ignored{EventMeta: meta("evt_5", "customer.created")},
		},
	}

	p := newProvider(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ev, err := p.VerifyEvent(t.Context(), []byte(tt.payload), sign(tt.payload, fixedNow))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestVerifyEvent_Rejections(t *testing.T) {
	t.Parallel()

	payload := `{"event_id":"evt_1","event_type":"subscription.canceled","data":{"id":"sub_1"}}`

	t.Run("missing secret", func(t *testing.T) {
		t.Parallel()

		p, err := paddle.New(paddle.Config{})
		require.NoError(t, err)
		_, err = p.VerifyEvent(t.Context(), []byte(payload), sign(payload, time.Now()))
		assert.ErrorIs(t, err, billing.ErrMissingSecret)
	})

	tests := []struct {
		name   string
		header string
		body   string
	}{
		{name: "empty header", header: "", body: payload},
		{name: "garbage header", header: "nonsense", body: payload},
		{name: "tampered body", header: sign(payload, fixedNow), body: payload + " "},
		{name: "stale timestamp", header: sign(payload, fixedNow.Add(-time.Hour)), body: payload},
		{name: "future timestamp", header: sign(payload, fixedNow.Add(time.Hour)), body: payload},
	}

	p := newProvider(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ev, err := p.VerifyEvent(t.Context(), []byte(tt.body), tt.header)
			assert.ErrorIs(t, err, billing.ErrInvalidSignature)
			assert.Nil(t, ev)
		})
	}

	t.Run("malformed json with valid signature", func(t *testing.T) {
		t.Parallel()

		body := `{"event_id":`
		_, err := p.VerifyEvent(t.Context(), []byte(body), sign(body, fixedNow))
		assert.ErrorIs(t, err, billing.ErrMalformedEvent)
	})
}

func TestNew_InvalidEnvironment(t *testing.T) {
	t.Parallel()

	_, err := paddle.New(paddle.Config{APIKey: "pdl_key", Environment: "staging"})
	assert.ErrorIs(t, err, billing.ErrConfiguration)
}

func TestCorrelation(t *testing.T) {
	t.Parallel()

	t.Run("reads custom data", func(t *testing.T) {
		t.Parallel()

		subs := new(mockSubscriptions)
		subs.On("GetSubscription", mock.Anything, &paddlesdk.GetSubscriptionRequest{SubscriptionID: "sub_1"}).
			Return(subscription(t, `{"id":"sub_1","status":"active","custom_data":{"clerkUserId":"user_1","planType":"year"}}`), nil)

		p := newProvider(t, paddle.WithSubscriptionGetter(subs))
		corr, err := p.Correlation(t.Context(), "sub_1")
		require.NoError(t, err)
		assert.Equal(t, billing.Correlation{UserID: "user_1", Plan: "year"}, corr)
		subs.AssertExpectations(t)
	})

	t.Run("api failure is unavailable", func(t *testing.T) {
		t.Parallel()

		subs := new(mockSubscriptions)
		subs.On("GetSubscription", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

		p := newProvider(t, paddle.WithSubscriptionGetter(subs))
		_, err := p.Correlation(t.Context(), "sub_1")
		assert.ErrorIs(t, err, billing.ErrProviderUnavailable)
	})

	t.Run("no api key", func(t *testing.T) {
		t.Parallel()

		_, err := newProvider(t).Correlation(t.Context(), "sub_1")
		assert.ErrorIs(t, err, billing.ErrConfiguration)
	})
}

func TestCreateCheckout(t *testing.T) {
	t.Parallel()

	req := billing.CheckoutRequest{
		PriceID:     "pri_month",
		Tier:        profile.TierMonth,
		Email:       "a@example.com",
		Correlation: billing.Correlation{UserID: "user_1", Plan: "month"},
		SuccessURL:  "https://app.example.com/",
	}

	t.Run("returns checkout url", func(t *testing.T) {
		t.Parallel()

		txs := new(mockTransactions)
		txs.On("CreateTransaction", mock.Anything, mock.MatchedBy(func(r *paddlesdk.CreateTransactionRequest) bool {
			return len(r.Items) == 1 &&
				r.CustomData["clerkUserId"] == "user_1" &&
				r.CustomData["planType"] == "month" &&
				r.CustomData["email"] == "a@example.com" &&
				r.Checkout != nil && *r.Checkout.URL == "https://app.example.com/"
		})).Return(transaction(t, `{"id":"txn_1","checkout":{"url":"https://pay.paddle.io/txn_1"}}`), nil)

		p := newProvider(t, paddle.WithTransactionCreator(txs))
		link, err := p.CreateCheckout(t.Context(), req)
		require.NoError(t, err)
		assert.Equal(t, &billing.CheckoutLink{ID: "txn_1", URL: "https://pay.paddle.io/txn_1"}, link)
		txs.AssertExpectations(t)
	})

	t.Run("missing url is unavailable", func(t *testing.T) {
		t.Parallel()

		txs := new(mockTransactions)
		txs.On("CreateTransaction", mock.Anything, mock.Anything).Return(&paddlesdk.Transaction{ID: "txn_2"}, nil)

		p := newProvider(t, paddle.WithTransactionCreator(txs))
		_, err := p.CreateCheckout(t.Context(), req)
		assert.ErrorIs(t, err, billing.ErrProviderUnavailable)
	})

	t.Run("no api key", func(t *testing.T) {
		t.Parallel()

		_, err := newProvider(t).CreateCheckout(t.Context(), req)
		assert.ErrorIs(t, err, billing.ErrConfiguration)
	})
}
