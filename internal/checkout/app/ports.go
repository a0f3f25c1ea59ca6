package app

import (
	"context"
	"errors"

	"github.com/dwikikusuma/atelier/internal/checkout/domain"
)

// ErrArtworkNotFound is returned by a CatalogReader for deleted artworks.
var ErrArtworkNotFound = errors.New("artwork not found")

type CartItem struct {
	ArtworkID      string
	Size           string
	Title          string
	ImageURL       string
	UnitPriceCents int64
	Quantity       int
}

// CartStore reads and edits the cart of one storefront session.
type CartStore interface {
	Items(ctx context.Context, sessionID string) ([]CartItem, error)
	Reprice(ctx context.Context, sessionID, artworkID, size string, unitPriceCents int64) error
	SetQuantity(ctx context.Context, sessionID, artworkID, size string, quantity int) error
	Remove(ctx context.Context, sessionID, artworkID, size string) error
	Clear(ctx context.Context, sessionID string) error
}

type Artwork struct {
	ID          string
	Title       string
	Published   bool
	Prices      map[string]int64
	OpenEdition bool
	Remaining   int
}

type CatalogReader interface {
	GetArtwork(ctx context.Context, artworkID string) (Artwork, error)
}

// PaymentError is a payment provider failure. Its message is the
// provider's own and is shown to the shopper unchanged.
type PaymentError struct {
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return "payment provider error"
}

func (e *PaymentError) Unwrap() error { return e.Err }

// paymentErr makes sure a gateway failure reaches callers as a *PaymentError.
func paymentErr(err error) error {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return err
	}
	return &PaymentError{Err: err}
}

type CreateSessionRequest struct {
	ClientReference string
	Currency        string
	Lines           []domain.QuoteLine
	SuccessURL      string
	CancelURL       string
}

// PaymentGateway creates and inspects hosted checkout sessions.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (domain.PaymentSession, error)
	GetSession(ctx context.Context, paymentSessionID string) (domain.PaymentSession, error)
}

type PaidOrder struct {
	SessionID        string
	PaymentSessionID string
	Currency         string
	CustomerEmail    string
	TotalCents       int64
	Lines            []domain.QuoteLine
}

// RecordedOrder is an order already stored for a payment session.
type RecordedOrder struct {
	ID          string
	CartCleared bool
}

// OrderRecorder records paid orders, idempotently per payment session.
type OrderRecorder interface {
	RecordPaidOrder(ctx context.Context, o PaidOrder) (orderID string, err error)
	FindByPaymentSession(ctx context.Context, paymentSessionID string) (RecordedOrder, bool, error)
	MarkCartCleared(ctx context.Context, orderID string) error
}
