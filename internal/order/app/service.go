package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dwikikusuma/atelier/internal/order/domain"
	"go.uber.org/zap"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	// ErrDuplicate is returned by an OrderRepo when an order for the
	// payment session already exists.
	ErrDuplicate = errors.New("duplicate order")
)

type Service struct {
	repo  OrderRepo
	sales SaleRecorder
	log   *zap.Logger
}

func NewService(repo OrderRepo, sales SaleRecorder, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, sales: sales, log: log}
}

// CreateOrder records a paid order. It is idempotent per payment session:
// a repeated call returns the order created first and records no sales.
func (s *Service) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	req.PaymentSessionID = strings.TrimSpace(req.PaymentSessionID)
	if req.PaymentSessionID == "" || strings.TrimSpace(req.Currency) == "" {
		return domain.Order{}, fmt.Errorf("%w: payment session and currency are required", ErrInvalidInput)
	}
	if len(req.Items) == 0 {
		return domain.Order{}, fmt.Errorf("%w: order has no items", ErrInvalidInput)
	}
	if req.TotalAmount < 0 {
		return domain.Order{}, fmt.Errorf("%w: total amount cannot be negative, got %d", ErrInvalidInput, req.TotalAmount)
	}

	existing, err := s.repo.GetByPaymentSession(ctx, req.PaymentSessionID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return domain.Order{}, err
	}

	orderItems := make([]domain.OrderItem, 0, len(req.Items))
	var subTotalAmount int64

	for i, item := range req.Items {
		if strings.TrimSpace(item.ArtworkID) == "" {
			return domain.Order{}, fmt.Errorf("%w: item %d has no artwork", ErrInvalidInput, i)
		}
		if item.Quantity <= 0 {
			return domain.Order{}, fmt.Errorf("%w: item %d: quantity must be positive, got %d", ErrInvalidInput, i, item.Quantity)
		}
		if item.UnitAmount < 0 {
			return domain.Order{}, fmt.Errorf("%w: item %d: unit amount cannot be negative, got %d", ErrInvalidInput, i, item.UnitAmount)
		}

		orderItems = append(orderItems, domain.OrderItem{
			ArtworkID:       item.ArtworkID,
			Size:            item.Size,
			Title:           item.Title,
			UnitAmount:      item.UnitAmount,
			Quantity:        item.Quantity,
			LineTotalAmount: item.UnitAmount * int64(item.Quantity),
		})

		subTotalAmount += item.UnitAmount * int64(item.Quantity)
	}

	total := req.TotalAmount
	if total == 0 {
		total = subTotalAmount
	}

	order := domain.Order{
		SessionID:        req.SessionID,
		PaymentSessionID: req.PaymentSessionID,
		Status:           domain.StatusPaid,
		Currency:         strings.ToLower(req.Currency),
		SubTotalAmount:   subTotalAmount,
		TotalAmount:      total,
		CustomerEmail:    req.CustomerEmail,
		OrderItems:       orderItems,
	}

	created, err := s.repo.CreateOrderTx(ctx, order)
	if errors.Is(err, ErrDuplicate) {
		// Lost a race with a concurrent completion of the same session.
		return s.repo.GetByPaymentSession(ctx, req.PaymentSessionID)
	}
	if err != nil {
		return domain.Order{}, err
	}

	s.recordSales(ctx, created)
	s.log.Info("order recorded",
		zap.String("order_id", created.ID),
		zap.String("payment_session_id", created.PaymentSessionID),
		zap.Int64("total_amount", created.TotalAmount),
	)
	return created, nil
}

func (s *Service) GetByPaymentSession(ctx context.Context, paymentSessionID string) (domain.Order, error) {
	if strings.TrimSpace(paymentSessionID) == "" {
		return domain.Order{}, ErrInvalidInput
	}
	return s.repo.GetByPaymentSession(ctx, strings.TrimSpace(paymentSessionID))
}

// MarkCartCleared records that the cart which paid for the order has been
// emptied, so a repeated completion leaves the shopper's new cart alone.
func (s *Service) MarkCartCleared(ctx context.Context, orderID string) error {
	if strings.TrimSpace(orderID) == "" {
		return ErrInvalidInput
	}
	return s.repo.MarkCartCleared(ctx, strings.TrimSpace(orderID))
}

// recordSales logs failures instead of returning them. The payment is
// already taken; an oversold edition is resolved by hand.
func (s *Service) recordSales(ctx context.Context, o domain.Order) {
	if s.sales == nil {
		return
	}
	for _, item := range o.OrderItems {
		if err := s.sales.RecordSale(ctx, item.ArtworkID, item.Quantity); err != nil {
			s.log.Warn("record sale failed",
				zap.String("order_id", o.ID),
				zap.String("artwork_id", item.ArtworkID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
		}
	}
}
