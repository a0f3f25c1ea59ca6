package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dwikikusuma/atelier/internal/order/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	orders    map[string]domain.Order
	createErr error
	creates   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[string]domain.Order)}
}

func (f *fakeRepo) CreateOrderTx(ctx context.Context, o domain.Order) (domain.Order, error) {
	f.creates++
	if f.createErr != nil {
		return domain.Order{}, f.createErr
	}
	o.ID = "ord-" + o.PaymentSessionID
	f.orders[o.PaymentSessionID] = o
	return o, nil
}

func (f *fakeRepo) MarkCartCleared(ctx context.Context, orderID string) error {
	for id, o := range f.orders {
		if o.ID == orderID {
			if !o.CartCleared() {
				o.CartClearedAt = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
				f.orders[id] = o
			}
			return nil
		}
	}
	return ErrNotFound
}

func (f *fakeRepo) GetByPaymentSession(ctx context.Context, id string) (domain.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

type fakeSales struct {
	sold map[string]int
	err  error
}

func (f *fakeSales) RecordSale(ctx context.Context, artworkID string, qty int) error {
	if f.err != nil {
		return f.err
	}
	f.sold[artworkID] += qty
	return nil
}

func request() domain.CreateOrderRequest {
	return domain.CreateOrderRequest{
		SessionID:        "sess-1",
		PaymentSessionID: "cs_1",
		Currency:         "USD",
		Items: []domain.OrderItemRequest{
			{ArtworkID: "a1", Size: "A4", Title: "Dawn", UnitAmount: 5000, Quantity: 2},
			{ArtworkID: "a2", Size: "A3", Title: "Dusk", UnitAmount: 4500, Quantity: 1},
		},
	}
}

func TestCreateOrder(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	sales := &fakeSales{sold: map[string]int{}}
	svc := NewService(repo, sales, nil)

	o, err := svc.CreateOrder(ctx, request())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, o.Status)
	assert.Equal(t, "usd", o.Currency)
	assert.Equal(t, int64(14500), o.SubTotalAmount)
	assert.Equal(t, int64(14500), o.TotalAmount)
	assert.Equal(t, int64(10000), o.OrderItems[0].LineTotalAmount)
	assert.Equal(t, map[string]int{"a1": 2, "a2": 1}, sales.sold)

	t.Run("idempotent per payment session", func(t *testing.T) {
		again, err := svc.CreateOrder(ctx, request())
		require.NoError(t, err)
		assert.Equal(t, o.ID, again.ID)
		assert.Equal(t, 1, repo.creates)
		assert.Equal(t, map[string]int{"a1": 2, "a2": 1}, sales.sold)
	})
}

func TestCreateOrderValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *domain.CreateOrderRequest)
	}{
		{name: "no payment session", modify: func(r *domain.CreateOrderRequest) { r.PaymentSessionID = " " }},
		{name: "no currency", modify: func(r *domain.CreateOrderRequest) { r.Currency = "" }},
		{name: "no items", modify: func(r *domain.CreateOrderRequest) { r.Items = nil }},
		{name: "zero quantity", modify: func(r *domain.CreateOrderRequest) { r.Items[0].Quantity = 0 }},
		{name: "negative price", modify: func(r *domain.CreateOrderRequest) { r.Items[1].UnitAmount = -1 }},
		{name: "missing artwork", modify: func(r *domain.CreateOrderRequest) { r.Items[0].ArtworkID = "" }},
		{name: "negative total", modify: func(r *domain.CreateOrderRequest) { r.TotalAmount = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newFakeRepo(), nil, nil)
			req := request()
			tt.modify(&req)
			_, err := svc.CreateOrder(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateOrderSaleFailureIsNotFatal(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeSales{err: errors.New("sold out")}, nil)
	o, err := svc.CreateOrder(context.Background(), request())
	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
}

func TestCreateOrderLostRace(t *testing.T) {
	repo := newFakeRepo()
	repo.orders["cs_1"] = domain.Order{ID: "ord-winner", PaymentSessionID: "cs_1"}
	repo.createErr = ErrDuplicate

	// Simulate the row appearing between the lookup and the insert.
	racing := &racingRepo{fakeRepo: repo}
	svc := NewService(racing, nil, nil)

	o, err := svc.CreateOrder(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "ord-winner", o.ID)
}

type racingRepo struct {
	*fakeRepo
	looked bool
}

func (r *racingRepo) GetByPaymentSession(ctx context.Context, id string) (domain.Order, error) {
	if !r.looked {
		r.looked = true
		return domain.Order{}, ErrNotFound
	}
	return r.fakeRepo.GetByPaymentSession(ctx, id)
}

func TestMarkCartCleared(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil)

	o, err := svc.CreateOrder(ctx, request())
	require.NoError(t, err)
	assert.False(t, o.CartCleared())

	require.NoError(t, svc.MarkCartCleared(ctx, " "+o.ID+" "))
	got, err := svc.GetByPaymentSession(ctx, "cs_1")
	require.NoError(t, err)
	assert.True(t, got.CartCleared())

	assert.ErrorIs(t, svc.MarkCartCleared(ctx, ""), ErrInvalidInput)
	assert.ErrorIs(t, svc.MarkCartCleared(ctx, "ord-missing"), ErrNotFound)
}
