// Package stripe opens hosted checkout sessions on Stripe.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dwikikusuma/atelier/internal/checkout/app"
	"github.com/dwikikusuma/atelier/internal/checkout/domain"
	stripeapi "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const (
	metaArtworkID = "artwork_id"
	metaSize      = "size"
	metaTitle     = "title"
)

type Gateway struct {
	api *client.API
}

// New builds a gateway for secretKey. backends is nil outside tests.
func New(secretKey string, backends *stripeapi.Backends) *Gateway {
	return &Gateway{api: client.New(secretKey, backends)}
}

func (g *Gateway) CreateSession(ctx context.Context, req app.CreateSessionRequest) (domain.PaymentSession, error) {
	params := &stripeapi.CheckoutSessionParams{
		Mode:              stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		SuccessURL:        stripeapi.String(req.SuccessURL),
		CancelURL:         stripeapi.String(req.CancelURL),
		ClientReferenceID: stripeapi.String(req.ClientReference),
	}
	params.Context = ctx

	for _, ln := range req.Lines {
		title := ln.Title
		if title == "" {
			title = ln.ArtworkID
		}

		product := &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripeapi.String(fmt.Sprintf("%s (%s)", title, ln.Size)),
			Metadata: map[string]string{
				metaArtworkID: ln.ArtworkID,
				metaSize:      ln.Size,
				metaTitle:     ln.Title,
			},
		}
		if strings.HasPrefix(ln.ImageURL, "https://") {
			product.Images = []*string{stripeapi.String(ln.ImageURL)}
		}

		params.LineItems = append(params.LineItems, &stripeapi.CheckoutSessionLineItemParams{
			PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripeapi.String(req.Currency),
				UnitAmount:  stripeapi.Int64(ln.UnitPriceCents),
				ProductData: product,
			},
			Quantity: stripeapi.Int64(int64(ln.Quantity)),
		})
	}

	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return domain.PaymentSession{}, wrapErr(err)
	}
	return toSession(s), nil
}

// GetSession fetches a session; the charged lines are included once paid.
func (g *Gateway) GetSession(ctx context.Context, paymentSessionID string) (domain.PaymentSession, error) {
	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.api.CheckoutSessions.Get(paymentSessionID, params)
	if err != nil {
		return domain.PaymentSession{}, wrapErr(err)
	}

	ps := toSession(s)
	if ps.Status != domain.PaymentPaid {
		return ps, nil
	}

	ps.Lines, err = g.lineItems(ctx, s.ID)
	if err != nil {
		return domain.PaymentSession{}, wrapErr(err)
	}
	return ps, nil
}

func (g *Gateway) lineItems(ctx context.Context, sessionID string) ([]domain.QuoteLine, error) {
	params := &stripeapi.CheckoutSessionListLineItemsParams{Session: stripeapi.String(sessionID)}
	params.Context = ctx
	params.AddExpand("data.price.product")

	var lines []domain.QuoteLine
	it := g.api.CheckoutSessions.ListLineItems(params)
	for it.Next() {
		li := it.LineItem()
		line := domain.QuoteLine{
			Title:          li.Description,
			Quantity:       int(li.Quantity),
			LineTotalCents: li.AmountTotal,
		}
		if li.Price != nil {
			line.UnitPriceCents = li.Price.UnitAmount
			if p := li.Price.Product; p != nil {
				line.ArtworkID = p.Metadata[metaArtworkID]
				line.Size = p.Metadata[metaSize]
				if t := p.Metadata[metaTitle]; t != "" {
					line.Title = t
				}
			}
		}
		if line.ArtworkID == "" {
			// Not created by this storefront; fall back to the cart.
			return nil, nil
		}
		lines = append(lines, line)
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func toSession(s *stripeapi.CheckoutSession) domain.PaymentSession {
	ps := domain.PaymentSession{
		ID:              s.ID,
		URL:             s.URL,
		Status:          statusOf(s),
		ClientReference: s.ClientReferenceID,
		Currency:        string(s.Currency),
		AmountTotal:     s.AmountTotal,
	}
	if s.CustomerDetails != nil {
		ps.CustomerEmail = s.CustomerDetails.Email
	}
	return ps
}

func statusOf(s *stripeapi.CheckoutSession) domain.PaymentStatus {
	switch {
	case s.PaymentStatus == stripeapi.CheckoutSessionPaymentStatusPaid,
		s.PaymentStatus == stripeapi.CheckoutSessionPaymentStatusNoPaymentRequired:
		return domain.PaymentPaid
	case s.Status == stripeapi.CheckoutSessionStatusExpired:
		return domain.PaymentExpired
	default:
		return domain.PaymentPending
	}
}

// wrapErr keeps stripe's human readable message; the raw error stays
// reachable through Unwrap.
func wrapErr(err error) error {
	var se *stripeapi.Error
	if errors.As(err, &se) && se.Msg != "" {
		return &app.PaymentError{Message: se.Msg, Err: err}
	}
	return &app.PaymentError{Err: err}
}
