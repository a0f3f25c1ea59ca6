package app

import (
	"context"

	"github.com/dwikikusuma/atelier/internal/order/domain"
)

type OrderRepo interface {
	CreateOrderTx(ctx context.Context, order domain.Order) (domain.Order, error)
	GetByPaymentSession(ctx context.Context, paymentSessionID string) (domain.Order, error)
	// MarkCartCleared stamps the order once; later calls keep the first
	// timestamp.
	MarkCartCleared(ctx context.Context, orderID string) error
}

// SaleRecorder counts sold editions in the catalog.
type SaleRecorder interface {
	RecordSale(ctx context.Context, artworkID string, qty int) error
}
