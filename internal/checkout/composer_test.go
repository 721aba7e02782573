package checkout_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/cart"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/catalog"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/checkout"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/session"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/store"
)

type mockCatalogClient struct {
	createOrderFunc func(ctx context.Context, draft *catalog.OrderDraft) (*catalog.CreateOrderResult, error)
}

func (m *mockCatalogClient) GoodsDetail(ctx context.Context, id int64) (*catalog.Goods, error) {
	return nil, nil
}

func (m *mockCatalogClient) GoodsList(ctx context.Context, categoryID int64, keyword string) ([]catalog.Goods, error) {
	return nil, nil
}

func (m *mockCatalogClient) AddressList(ctx context.Context) ([]catalog.Address, error) {
	return nil, nil
}

func (m *mockCatalogClient) AddressDetail(ctx context.Context, id int64) (*catalog.Address, error) {
	return nil, nil
}

func (m *mockCatalogClient) CreateAddress(ctx context.Context, in *catalog.AddressInput) error {
	return nil
}

func (m *mockCatalogClient) UpdateAddress(ctx context.Context, id int64, in *catalog.AddressInput) error {
	return nil
}

func (m *mockCatalogClient) DeliveryConfig(ctx context.Context) (*catalog.DeliveryConfig, error) {
	return nil, nil
}

func (m *mockCatalogClient) UserPoints(ctx context.Context) (*catalog.PointsBalance, error) {
	return nil, nil
}

func (m *mockCatalogClient) PointsHistory(ctx context.Context, page, pageSize int) ([]catalog.PointsRecord, error) {
	return nil, nil
}

func (m *mockCatalogClient) SignIn(ctx context.Context) (*catalog.SignInResult, error) {
	return nil, nil
}

func (m *mockCatalogClient) CreateOrder(ctx context.Context, draft *catalog.OrderDraft) (*catalog.CreateOrderResult, error) {
	return m.createOrderFunc(ctx, draft)
}

func (m *mockCatalogClient) OrderList(ctx context.Context) ([]catalog.OrderSummary, error) {
	return nil, nil
}

func (m *mockCatalogClient) OrderDetail(ctx context.Context, id int64) (*catalog.OrderDetail, error) {
	return nil, nil
}

func (m *mockCatalogClient) CancelOrder(ctx context.Context, id int64) error {
	return nil
}

// seedCart puts goods 1, 2 and 3 into the cart and a checkout set of 1 and 2.
func seedCart(t *testing.T, ctx context.Context, st store.Store, composer *checkout.Composer) {
	t.Helper()

	ledger, err := cart.Load(ctx, st)
	require.NoError(t, err)
	for _, id := range []int64{1, 2, 3} {
		_, err = ledger.AddOrIncrement(ctx, cart.AddInput{
			GoodsID: id, Name: "goods", UnitPrice: 1000, Stock: 10, Quantity: 1,
		})
		require.NoError(t, err)
	}

	lines := ledger.SelectedLines()[:2]
	require.NoError(t, composer.PrepareCheckout(ctx, st, lines))
}

func dineInInput() checkout.DraftInput {
	return checkout.DraftInput{
		Fulfillment: catalog.FulfillmentDineIn,
		TableNo:     "A7",
		PeopleCount: 2,
	}
}

func TestComposer_PrepareCheckout_Empty(t *testing.T) {
	ctx := context.Background()
	composer := checkout.NewComposer(&mockCatalogClient{}, session.New())

	err := composer.PrepareCheckout(ctx, store.NewMemory(), nil)
	assert.ErrorIs(t, err, checkout.ErrEmptyCheckoutSet)
}

func TestComposer_Submit_Success(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	var sentDraft *catalog.OrderDraft
	client := &mockCatalogClient{
		createOrderFunc: func(ctx context.Context, draft *catalog.OrderDraft) (*catalog.CreateOrderResult, error) {
			sentDraft = draft
			return &catalog.CreateOrderResult{OrderID: 1001, PaymentURL: "https://pay.example.com/1001"}, nil
		},
	}
	composer := checkout.NewComposer(client, session.New())
	seedCart(t, ctx, st, composer)

	result, err := composer.Submit(ctx, st, dineInInput())
	require.NoError(t, err)
	assert.Equal(t, int64(1001), result.OrderID)
	assert.Equal(t, "https://pay.example.com/1001", result.PaymentURL)
	assert.Equal(t, checkout.StateSucceeded, composer.State())

	require.NotNil(t, sentDraft)
	assert.Equal(t, "A7", sentDraft.TableNo)
	assert.Equal(t, int64(2000), sentDraft.GoodsAmount)
	assert.Equal(t, int64(2000), sentDraft.TotalAmount)

	// Only the submitted goods are gone; goods 3 survives.
	ledger, err := cart.Load(ctx, st)
	require.NoError(t, err)
	lines := ledger.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(3), lines[0].GoodsID)

	// The checkout set is cleared.
	remaining, err := composer.LoadCheckoutSet(ctx, st)
	require.NoError(t, err)
	assert.Empty(t, remaining)

	// The table number got cached for the next order.
	cached, err := st.Get(ctx, checkout.TableNoKey)
	require.NoError(t, err)
	assert.Equal(t, "A7", string(cached))
}

func TestComposer_Submit_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		input   checkout.DraftInput
		seed    bool
		wantErr error
	}{
		{
			name:    "empty_checkout_set",
			input:   dineInInput(),
			seed:    false,
			wantErr: checkout.ErrEmptyCheckoutSet,
		},
		{
			name:    "dine_in_without_table",
			input:   checkout.DraftInput{Fulfillment: catalog.FulfillmentDineIn},
			seed:    true,
			wantErr: checkout.ErrMissingTableNumber,
		},
		{
			name:    "delivery_without_address",
			input:   checkout.DraftInput{Fulfillment: catalog.FulfillmentDelivery},
			seed:    true,
			wantErr: checkout.ErrMissingAddress,
		},
		{
			name:    "unknown_fulfillment",
			input:   checkout.DraftInput{Fulfillment: 7},
			seed:    true,
			wantErr: checkout.ErrInvalidFulfillment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st := store.NewMemory()

			var calls atomic.Int32
			client := &mockCatalogClient{
				createOrderFunc: func(ctx context.Context, draft *catalog.OrderDraft) (*catalog.CreateOrderResult, error) {
					calls.Add(1)
					return &catalog.CreateOrderResult{OrderID: 1}, nil
				},
			}
			composer := checkout.NewComposer(client, session.New())
			if tt.seed {
				seedCart(t, ctx, st, composer)
			}

			_, err := composer.Submit(ctx, st, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, int32(0), calls.Load())
			assert.Equal(t, checkout.StateFailed, composer.State())
		})
	}
}

func TestComposer_Submit_FailureKeepsState(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	rejected := &catalog.BusinessError{Code: 50001, Msg: "kitchen is closed"}
	client := &mockCatalogClient{
		createOrderFunc: func(ctx context.Context, draft *catalog.OrderDraft) (*catalog.CreateOrderResult, error) {
			return nil, rejected
		},
	}
	composer := checkout.NewComposer(client, session.New())
	seedCart(t, ctx, st, composer)

	_, err := composer.Submit(ctx, st, dineInInput())
	require.Error(t, err)

	var bizErr *catalog.BusinessError
	require.True(t, errors.As(err, &bizErr))
	assert.Equal(t, "kitchen is closed", bizErr.Error())
	assert.Equal(t, checkout.StateFailed, composer.State())

	// Cart and checkout set are untouched so the user can retry.
	ledger, err := cart.Load(ctx, st)
	require.NoError(t, err)
	assert.Len(t, ledger.Lines(), 3)

	lines, err := composer.LoadCheckoutSet(ctx, st)
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	// The latch was released: a retry goes through.
	client.createOrderFunc = func(ctx context.Context, draft *catalog.OrderDraft) (*catalog.CreateOrderResult, error) {
		return &catalog.CreateOrderResult{OrderID: 2002}, nil
	}
	result, err := composer.Submit(ctx, st, dineInInput())
	require.NoError(t, err)
	assert.Equal(t, int64(2002), result.OrderID)
}

func TestComposer_Submit_DuplicateIsNoOp(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	var calls atomic.Int32
	release := make(chan struct{})
	client := &mockCatalogClient{
		createOrderFunc: func(ctx context.Context, draft *catalog.OrderDraft) (*catalog.CreateOrderResult, error) {
			calls.Add(1)
			<-release
			return &catalog.CreateOrderResult{OrderID: 3003}, nil
		},
	}
	composer := checkout.NewComposer(client, session.New())
	seedCart(t, ctx, st, composer)

	firstDone := make(chan error, 1)
	go func() {
		_, err := composer.Submit(ctx, st, dineInInput())
		firstDone <- err
	}()

	// Wait until the first submission is inside CreateOrder.
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	_, err := composer.Submit(ctx, st, dineInInput())
	assert.ErrorIs(t, err, checkout.ErrSubmissionInFlight)

	close(release)
	require.NoError(t, <-firstDone)

	// Exactly one order reached the service.
	assert.Equal(t, int32(1), calls.Load())
}

func TestComposer_Submit_DeliveryDraftFields(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	var sentDraft *catalog.OrderDraft
	client := &mockCatalogClient{
		createOrderFunc: func(ctx context.Context, draft *catalog.OrderDraft) (*catalog.CreateOrderResult, error) {
			sentDraft = draft
			return &catalog.CreateOrderResult{OrderID: 4004}, nil
		},
	}
	composer := checkout.NewComposer(client, session.New())
	seedCart(t, ctx, st, composer)

	input := checkout.DraftInput{
		Fulfillment: catalog.FulfillmentDelivery,
		Address: &catalog.Address{
			ID:      5,
			Name:    "Ivan",
			Phone:   "+70000000000",
			Region:  "Moscow",
			Address: "Tverskaya 1",
		},
		DeliveryTime:   "as soon as possible",
		Tableware:      2,
		DeliveryFee:    300,
		PackingFee:     200,
		CouponID:       9,
		CouponDiscount: 500,
		Remark:         "no onions",
	}

	_, err := composer.Submit(ctx, st, input)
	require.NoError(t, err)

	require.NotNil(t, sentDraft)
	assert.Equal(t, catalog.FulfillmentDelivery, sentDraft.Type)
	assert.Equal(t, int64(5), sentDraft.AddressID)
	assert.Equal(t, "Ivan", sentDraft.ReceiverName)
	assert.Equal(t, "Moscow Tverskaya 1", sentDraft.Address)
	assert.Equal(t, "as soon as possible", sentDraft.DeliveryTime)
	assert.Equal(t, 2, sentDraft.Tableware)
	assert.Equal(t, int64(300), sentDraft.DeliveryFee)
	assert.Equal(t, int64(200), sentDraft.PackingFee)
	assert.Equal(t, int64(9), sentDraft.CouponID)
	assert.Equal(t, int64(500), sentDraft.CouponDiscount)
	assert.Equal(t, "no onions", sentDraft.Remark)
	// 2000 goods + 300 + 200 - 500.
	assert.Equal(t, int64(2000), sentDraft.TotalAmount)
	assert.Empty(t, sentDraft.TableNo)
}

func TestComposer_PrepareBuyNow(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	composer := checkout.NewComposer(&mockCatalogClient{}, session.New())

	goods := &catalog.Goods{
		ID:     42,
		Name:   "Braised Pork Rice",
		Images: []string{"/img/42.jpg"},
		Price:  2800,
		Stock:  3,
	}

	err := composer.PrepareBuyNow(ctx, st, goods, 4, nil)
	assert.ErrorIs(t, err, cart.ErrOutOfStock)

	err = composer.PrepareBuyNow(ctx, st, goods, 0, nil)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

	require.NoError(t, composer.PrepareBuyNow(ctx, st, goods, 2, map[string]string{"size": "large"}))

	lines, err := composer.LoadCheckoutSet(ctx, st)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(42), lines[0].GoodsID)
	assert.Equal(t, "/img/42.jpg", lines[0].Image)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, lines[0].Selected)

	// Buy-now does not touch the cart.
	ledger, err := cart.Load(ctx, st)
	require.NoError(t, err)
	assert.Empty(t, ledger.Lines())
}
