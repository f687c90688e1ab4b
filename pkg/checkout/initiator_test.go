package checkout_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subsync/pkg/billing"
	"github.com/dmitrymomot/subsync/pkg/checkout"
	"github.com/dmitrymomot/subsync/pkg/profile"
)

type mockCreator struct{ mock.Mock }

func (m *mockCreator) CreateCheckout(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutLink, error) {
	args := m.Called(ctx, req)
	link, _ := args.Get(0).(*billing.CheckoutLink)
	return link, args.Error(1)
}

var catalog = billing.Catalog{
	profile.TierWeek:  "price_week",
	profile.TierMonth: "price_month",
	profile.TierYear:  "price_year",
}

var cfg = checkout.Config{
	BaseURL:     "https://app.example.com/",
	SuccessPath: "/?session_id={CHECKOUT_SESSION_ID}",
	CancelPath:  "/subscribe",
}

func TestCreate_Success(t *testing.T) {
	t.Parallel()

	creator := new(mockCreator)
	creator.On("CreateCheckout", mock.Anything, billing.CheckoutRequest{
		PriceID:     "price_month",
		Tier:        profile.TierMonth,
		Email:       "a@example.com",
		Correlation: billing.Correlation{UserID: "user_1", Plan: "month"},
		SuccessURL:  "https://app.example.com/?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   "https://app.example.com/subscribe",
	}).Return(&billing.CheckoutLink{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}, nil)

	link, err := checkout.New(creator, catalog, cfg).Create(context.Background(), checkout.Request{
		Plan:   " month ",
		UserID: "user_1",
		Email:  "a@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", link.URL)
	creator.AssertExpectations(t)
}

func TestCreate_Errors(t *testing.T) {
	t.Parallel()

	valid := checkout.Request{Plan: "week", UserID: "user_1", Email: "a@example.com"}

	tests := []struct {
		name    string
		req     checkout.Request
		catalog billing.Catalog
		cfg     checkout.Config
		wantErr error
	}{
		{name: "missing user", req: checkout.Request{Plan: "week", Email: "a@example.com"}, catalog: catalog, cfg: cfg, wantErr: checkout.ErrInvalidRequest},
		{name: "missing plan", req: checkout.Request{UserID: "user_1", Email: "a@example.com"}, catalog: catalog, cfg: cfg, wantErr: checkout.ErrInvalidRequest},
		{name: "bad email", req: checkout.Request{Plan: "week", UserID: "user_1", Email: "nope"}, catalog: catalog, cfg: cfg, wantErr: checkout.ErrInvalidRequest},
		{name: "unknown plan", req: checkout.Request{Plan: "lifetime", UserID: "user_1", Email: "a@example.com"}, catalog: catalog, cfg: cfg, wantErr: billing.ErrUnknownPlan},
		{name: "plan is case sensitive", req: checkout.Request{Plan: "Week", UserID: "user_1", Email: "a@example.com"}, catalog: catalog, cfg: cfg, wantErr: billing.ErrUnknownPlan},
		{name: "missing base url", req: valid, catalog: catalog, cfg: checkout.Config{}, wantErr: billing.ErrConfiguration},
		{name: "relative base url", req: valid, catalog: catalog, cfg: checkout.Config{BaseURL: "app.example.com"}, wantErr: billing.ErrConfiguration},
		{name: "missing price", req: valid, catalog: billing.Catalog{profile.TierMonth: "price_month"}, cfg: cfg, wantErr: billing.ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			creator := new(mockCreator)
			link, err := checkout.New(creator, tt.catalog, tt.cfg).Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, link)
			creator.AssertNotCalled(t, "CreateCheckout", mock.Anything, mock.Anything)
		})
	}
}

func TestCreate_ProviderFailure(t *testing.T) {
	t.Parallel()

	creator := new(mockCreator)
	creator.On("CreateCheckout", mock.Anything, mock.Anything).
		Return(nil, errors.Join(billing.ErrProviderUnavailable, errors.New("rate limited")))

	_, err := checkout.New(creator, catalog, cfg).Create(context.Background(), checkout.Request{
		Plan: "year", UserID: "user_1", Email: "a@example.com",
	})
	assert.ErrorIs(t, err, billing.ErrProviderUnavailable)
}

func TestNew_PanicsWithoutCreator(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { checkout.New(nil, catalog, cfg) })
}
