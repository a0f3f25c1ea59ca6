package adapter

import (
	"context"
	"errors"

	checkoutapp "github.com/dwikikusuma/atelier/internal/checkout/app"
	orderapp "github.com/dwikikusuma/atelier/internal/order/app"
	"github.com/dwikikusuma/atelier/internal/order/domain"
)

type OrderServiceRecorder struct {
	svc *orderapp.Service
}

func NewOrderServiceRecorder(svc *orderapp.Service) *OrderServiceRecorder {
	return &OrderServiceRecorder{svc: svc}
}

func (r *OrderServiceRecorder) RecordPaidOrder(ctx context.Context, o checkoutapp.PaidOrder) (string, error) {
	items := make([]domain.OrderItemRequest, 0, len(o.Lines))
	for _, ln := range o.Lines {
		items = append(items, domain.OrderItemRequest{
			ArtworkID:  ln.ArtworkID,
			Size:       ln.Size,
			Title:      ln.Title,
			UnitAmount: ln.UnitPriceCents,
			Quantity:   ln.Quantity,
		})
	}

	created, err := r.svc.CreateOrder(ctx, domain.CreateOrderRequest{
		SessionID:        o.SessionID,
		PaymentSessionID: o.PaymentSessionID,
		Currency:         o.Currency,
		CustomerEmail:    o.CustomerEmail,
		TotalAmount:      o.TotalCents,
		Items:            items,
	})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (r *OrderServiceRecorder) FindByPaymentSession(ctx context.Context, paymentSessionID string) (checkoutapp.RecordedOrder, bool, error) {
	o, err := r.svc.GetByPaymentSession(ctx, paymentSessionID)
	if errors.Is(err, orderapp.ErrNotFound) {
		return checkoutapp.RecordedOrder{}, false, nil
	}
	if err != nil {
		return checkoutapp.RecordedOrder{}, false, err
	}
	return checkoutapp.RecordedOrder{ID: o.ID, CartCleared: o.CartCleared()}, true, nil
}

func (r *OrderServiceRecorder) MarkCartCleared(ctx context.Context, orderID string) error {
	return r.svc.MarkCartCleared(ctx, orderID)
}
