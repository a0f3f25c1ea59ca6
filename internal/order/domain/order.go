package domain

import "time"

const StatusPaid = "PAID"

type Order struct {
	ID               string
	SessionID        string
	PaymentSessionID string
	Status           string
	Currency         string
	SubTotalAmount   int64
	TotalAmount      int64
	CustomerEmail    string
	OrderItems       []OrderItem
	// CartClearedAt is zero until the shopper's cart was emptied for
	// this order.
	CartClearedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (o Order) CartCleared() bool { return !o.CartClearedAt.IsZero() }

type OrderItem struct {
	ID              string
	OrderID         string
	ArtworkID       string
	Size            string
	Title           string
	UnitAmount      int64
	Quantity        int
	LineTotalAmount int64
}

// CreateOrderRequest describes a checkout the payment gateway confirmed.
type CreateOrderRequest struct {
	SessionID        string
	PaymentSessionID string
	Currency         string
	CustomerEmail    string
	// TotalAmount is what the gateway charged; zero means the subtotal.
	TotalAmount int64
	Items       []OrderItemRequest
}

type OrderItemRequest struct {
	ArtworkID  string
	Size       string
	Title      string
	UnitAmount int64
	Quantity   int
}

type OrderResponse struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	Currency    string    `json:"currency"`
	TotalAmount int64     `json:"total_amount"`
	CreatedAt   time.Time `json:"created_at"`
}

func (o Order) Response() OrderResponse {
	return OrderResponse{
		ID:          o.ID,
		Status:      o.Status,
		Currency:    o.Currency,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
	}
}
