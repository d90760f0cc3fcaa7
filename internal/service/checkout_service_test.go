package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront-checkout/internal/core/domain"
	"storefront-checkout/internal/core/money"
	"storefront-checkout/internal/core/ports"
	"storefront-checkout/internal/core/ports/mocks"
	"storefront-checkout/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type checkoutTestDeps struct {
	svc     *CheckoutService
	baskets *mocks.MockBasketService
	orders  *mocks.MockOrderRepository
	gateway *mocks.MockPaymentGateway
}

func setupCheckoutService(t *testing.T) *checkoutTestDeps {
	ctrl := gomock.NewController(t)
	d := &checkoutTestDeps{
		baskets: mocks.NewMockBasketService(ctrl),
		orders:  mocks.NewMockOrderRepository(ctrl),
		gateway: mocks.NewMockPaymentGateway(ctrl),
	}
	d.svc = NewCheckoutService(d.baskets, d.orders, d.gateway, "EUR", zerolog.Nop())
	d.svc.now = func() time.Time { return fixedNow }
	return d
}

// scenarioBasket holds 10.00 EUR x 2 and 5.00 USD x 1.
func scenarioBasket(t *testing.T) *domain.Basket {
	t.Helper()
	b, err := domain.NewBasket("EUR", 6)
	require.NoError(t, err)
	b.UseRates(func() (money.Rates, error) { return money.Rates{"EUR": 1, "USD": 1.089158}, nil })
	_, err = b.Add(domain.BasketItem{Amount: decimal.RequireFromString("10.00"), Count: 2, Description: "Cookbook", SKU: "CB-1"})
	require.NoError(t, err)
	_, err = b.Add(domain.BasketItem{Amount: decimal.RequireFromString("5.00"), Currency: "USD", Description: "Spice box"})
	require.NoError(t, err)
	return b
}

func TestCheckoutService_CreatePaymentIntent(t *testing.T) {
	d := setupCheckoutService(t)
	ctx := context.Background()
	req := ports.CheckoutRequest{Email: "ada@example.com", Address: "12 Analytical Row, London"}
	orderNum := domain.GenerateOrderNum(testSession, fixedNow)

	d.baskets.EXPECT().Get(ctx, testSession).Return(scenarioBasket(t), nil)
	d.orders.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, o *domain.Order) error {
		assert.Equal(t, orderNum, o.OrderNum)
		assert.Equal(t, domain.OrderStatusInProgress, o.Status)
		assert.Equal(t, "24.59", o.Amount.String())
		assert.Equal(t, "EUR", o.Currency)
		assert.Equal(t, "24.59", o.AmountBase.String())
		assert.Equal(t, "ada@example.com", o.Email)
		assert.Len(t, o.Items, 2)
		return nil
	})
	d.gateway.EXPECT().CreatePaymentIntent(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, r ports.PaymentIntentRequest) (*ports.PaymentIntentResult, error) {
			assert.Equal(t, int64(2459), r.Amount)
			assert.Equal(t, "eur", r.Currency)
			assert.Equal(t, orderNum, r.OrderNum)
			assert.Equal(t, orderNum, r.Metadata["order_num"])
			assert.Equal(t, "€24.59", r.Metadata["total"])
			assert.Equal(t, "[CB-1] 2 x Cookbook @ 10.00 EUR = €20.00", r.Metadata["item_1"])
			assert.Equal(t, "1 x Spice box @ 5.00 USD = €4.59", r.Metadata["item_2"])
			return &ports.PaymentIntentResult{ID: "pi_1", ClientSecret: "pi_1_secret_x", Amount: r.Amount, Currency: r.Currency}, nil
		})

	res, err := d.svc.CreatePaymentIntent(ctx, testSession, req)
	require.NoError(t, err)
	assert.Equal(t, orderNum, res.OrderNum)
	assert.Equal(t, "pi_1_secret_x", res.ClientSecret)
	assert.Equal(t, int64(2459), res.Amount)
	assert.Equal(t, "EUR", res.Currency)
	assert.Equal(t, "€24.59", res.Total)
}

func TestCheckoutService_EmptyBasket(t *testing.T) {
	d := setupCheckoutService(t)
	ctx := context.Background()
	empty, err := domain.NewBasket("EUR", 6)
	require.NoError(t, err)

	d.baskets.EXPECT().Get(ctx, testSession).Return(empty, nil)

	_, err = d.svc.CreatePaymentIntent(ctx, testSession, ports.CheckoutRequest{Email: "a@b.c"})
	assert.True(t, apperror.HasCode(err, "BSK_001"))
}

func TestCheckoutService_GatewayFailureKeepsOrder(t *testing.T) {
	d := setupCheckoutService(t)
	ctx := context.Background()

	d.baskets.EXPECT().Get(ctx, testSession).Return(scenarioBasket(t), nil)
	d.orders.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	d.gateway.EXPECT().CreatePaymentIntent(ctx, gomock.Any()).Return(nil, errors.New("card network unreachable"))

	_, err := d.svc.CreatePaymentIntent(ctx, testSession, ports.CheckoutRequest{Email: "a@b.c"})
	assert.True(t, apperror.HasCode(err, "EXT_002"))
}

func TestCheckoutService_OrderCreateFailure(t *testing.T) {
	d := setupCheckoutService(t)
	ctx := context.Background()

	d.baskets.EXPECT().Get(ctx, testSession).Return(scenarioBasket(t), nil)
	d.orders.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("unique violation"))

	_, err := d.svc.CreatePaymentIntent(ctx, testSession, ports.CheckoutRequest{Email: "a@b.c"})
	assert.True(t, apperror.HasCode(err, "SYS_001"))
}

func TestCheckoutService_Complete(t *testing.T) {
	d := setupCheckoutService(t)
	ctx := context.Background()
	orderNum := domain.GenerateOrderNum(testSession, fixedNow)

	d.orders.EXPECT().GetByOrderNum(ctx, orderNum).Return(&domain.Order{OrderNum: orderNum, Status: domain.OrderStatusPaid}, nil)
	d.baskets.EXPECT().Discard(ctx, testSession).Return(nil)

	order, err := d.svc.Complete(ctx, testSession, orderNum)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPaid, order.Status)
}

func TestCheckoutService_CompleteForeignOrder(t *testing.T) {
	d := setupCheckoutService(t)
	ctx := context.Background()
	other := domain.GenerateOrderNum("someone-else", fixedNow)

	_, err := d.svc.Complete(ctx, testSession, other)
	assert.True(t, apperror.HasCode(err, "ORD_001"))

	mine := domain.GenerateOrderNum(testSession, fixedNow)
	d.orders.EXPECT().GetByOrderNum(ctx, mine).Return(nil, nil)
	_, err = d.svc.Complete(ctx, testSession, mine)
	assert.True(t, apperror.HasCode(err, "ORD_001"))
}
