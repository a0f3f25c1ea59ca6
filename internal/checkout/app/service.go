package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dwikikusuma/atelier/internal/checkout/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrEmptyCart    = errors.New("cart is empty")
	ErrInvalidInput = errors.New("invalid input")
	// ErrForeignSession is returned when a payment session was started by
	// another storefront session.
	ErrForeignSession = errors.New("payment session belongs to another cart")
)

type Config struct {
	Currency      string
	MaxConcurrent int
	// SuccessURL may carry the gateway's session id placeholder.
	SuccessURL string
	CancelURL  string
}

type Service struct {
	Cart     CartStore
	Catalog  CatalogReader
	Payments PaymentGateway
	Orders   OrderRecorder

	cfg     Config
	log     *zap.Logger
	tracer  trace.Tracer
	metrics checkoutMetrics
}

func NewService(cart CartStore, catalog CatalogReader, payments PaymentGateway, orders OrderRecorder, cfg Config, log *zap.Logger) *Service {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		Cart:     cart,
		Catalog:  catalog,
		Payments: payments,
		Orders:   orders,
		cfg:      cfg,
		log:      log,
		tracer:   otel.Tracer(meterName),
		metrics:  newCheckoutMetrics(log),
	}
}

// Validate re-reads every line from the catalog and quotes the cart at the
// prices it holds. Issues come back in cart order; the quote is only
// chargeable when there are none.
func (s *Service) Validate(ctx context.Context, items []CartItem) (domain.Quote, []domain.Issue, error) {
	lines := make([]domain.QuoteLine, len(items))
	perLine := make([][]domain.Issue, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrent)

	for idx := range items {
		g.Go(func() error {
			it := items[idx]
			if it.Quantity <= 0 {
				return fmt.Errorf("%w: quantity must be greater than zero: %d", ErrInvalidInput, it.Quantity)
			}

			art, err := s.Catalog.GetArtwork(gctx, it.ArtworkID)
			if err != nil && !errors.Is(err, ErrArtworkNotFound) {
				return fmt.Errorf("failed to get artwork %s: %w", it.ArtworkID, err)
			}
			if errors.Is(err, ErrArtworkNotFound) {
				art = Artwork{}
			}

			perLine[idx] = checkLine(it, art)
			lines[idx] = domain.QuoteLine{
				ArtworkID:      it.ArtworkID,
				Size:           it.Size,
				Title:          it.Title,
				ImageURL:       it.ImageURL,
				Quantity:       it.Quantity,
				UnitPriceCents: it.UnitPriceCents,
				LineTotalCents: it.UnitPriceCents * int64(it.Quantity),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Quote{}, nil, err
	}

	var (
		issues []domain.Issue
		total  int64
	)
	for i, line := range lines {
		issues = append(issues, perLine[i]...)
		total += line.LineTotalCents
	}

	return domain.Quote{Lines: lines, Currency: s.cfg.Currency, TotalCents: total}, issues, nil
}

// checkLine compares a cart line with the artwork's catalog entry. A zero
// Artwork means the artwork is gone.
func checkLine(it CartItem, art Artwork) []domain.Issue {
	issue := func(kind domain.IssueKind) domain.Issue {
		return domain.Issue{
			ArtworkID:      it.ArtworkID,
			Size:           it.Size,
			Title:          it.Title,
			Kind:           kind,
			CartPriceCents: it.UnitPriceCents,
			Quantity:       it.Quantity,
		}
	}

	if art.ID == "" || !art.Published {
		return []domain.Issue{issue(domain.IssueUnavailable)}
	}
	price, ok := art.Prices[it.Size]
	if !ok {
		return []domain.Issue{issue(domain.IssueSizeUnavailable)}
	}
	if !art.OpenEdition && art.Remaining <= 0 {
		return []domain.Issue{issue(domain.IssueSoldOut)}
	}

	var out []domain.Issue
	if price != it.UnitPriceCents {
		is := issue(domain.IssuePriceChanged)
		is.CurrentPriceCents = price
		out = append(out, is)
	}
	if !art.OpenEdition && it.Quantity > art.Remaining {
		is := issue(domain.IssueInsufficientEditions)
		is.Remaining = art.Remaining
		out = append(out, is)
	}
	return out
}

// Begin validates the session's cart and opens a hosted payment session.
// Flagged lines block checkout with a *ValidationError; nothing is changed
// in the cart.
func (s *Service) Begin(ctx context.Context, sessionID string) (domain.PaymentSession, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Begin")
	defer span.End()

	ps, err := s.begin(ctx, sessionID)
	s.metrics.begin(ctx, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.PaymentSession{}, err
	}
	span.SetAttributes(attribute.String("payment.session_id", ps.ID))
	return ps, nil
}

func (s *Service) begin(ctx context.Context, sessionID string) (domain.PaymentSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return domain.PaymentSession{}, ErrInvalidInput
	}

	items, err := s.Cart.Items(ctx, sessionID)
	if err != nil {
		return domain.PaymentSession{}, err
	}
	if len(items) == 0 {
		return domain.PaymentSession{}, ErrEmptyCart
	}

	quote, issues, err := s.Validate(ctx, items)
	if err != nil {
		return domain.PaymentSession{}, err
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("cart.lines", len(quote.Lines)),
		attribute.Int64("cart.total_cents", quote.TotalCents),
		attribute.Int("cart.issues", len(issues)),
	)
	if len(issues) > 0 {
		return domain.PaymentSession{}, &domain.ValidationError{Issues: issues}
	}

	ps, err := s.Payments.CreateSession(ctx, CreateSessionRequest{
		ClientReference: sessionID,
		Currency:        quote.Currency,
		Lines:           quote.Lines,
		SuccessURL:      s.cfg.SuccessURL,
		CancelURL:       s.cfg.CancelURL,
	})
	if err != nil {
		return domain.PaymentSession{}, paymentErr(err)
	}

	s.log.Info("checkout started",
		zap.String("payment_session_id", ps.ID),
		zap.Int("lines", len(quote.Lines)),
		zap.Int64("total_cents", quote.TotalCents),
	)
	return ps, nil
}

// AcceptLine applies the catalog's current values to one cart line: the
// line is repriced, capped to the remaining editions, or removed when it
// can no longer be bought. An absent line is a no-op.
func (s *Service) AcceptLine(ctx context.Context, sessionID, artworkID, size string) error {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(artworkID) == "" {
		return ErrInvalidInput
	}

	items, err := s.Cart.Items(ctx, sessionID)
	if err != nil {
		return err
	}

	var (
		line  CartItem
		found bool
	)
	for _, it := range items {
		if it.ArtworkID == artworkID && it.Size == size {
			line, found = it, true
			break
		}
	}
	if !found {
		return nil
	}

	art, err := s.Catalog.GetArtwork(ctx, artworkID)
	if err != nil && !errors.Is(err, ErrArtworkNotFound) {
		return err
	}
	if errors.Is(err, ErrArtworkNotFound) {
		art = Artwork{}
	}

	for _, is := range checkLine(line, art) {
		switch is.Kind {
		case domain.IssueUnavailable, domain.IssueSizeUnavailable, domain.IssueSoldOut:
			return s.Cart.Remove(ctx, sessionID, artworkID, size)
		case domain.IssuePriceChanged:
			if err := s.Cart.Reprice(ctx, sessionID, artworkID, size, is.CurrentPriceCents); err != nil {
				return err
			}
		case domain.IssueInsufficientEditions:
			if err := s.Cart.SetQuantity(ctx, sessionID, artworkID, size, is.Remaining); err != nil {
				return err
			}
		}
	}
	return nil
}

// Complete settles a payment session. Only a paid session records an order
// and clears the cart; gateway errors are returned as they are and leave
// the cart untouched.
func (s *Service) Complete(ctx context.Context, sessionID, paymentSessionID string) (domain.Completion, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.Complete",
		trace.WithAttributes(attribute.String("payment.session_id", paymentSessionID)))
	defer span.End()

	c, err := s.complete(ctx, sessionID, paymentSessionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Completion{}, err
	}
	span.SetAttributes(attribute.String("payment.status", string(c.Status)))
	return c, nil
}

func (s *Service) complete(ctx context.Context, sessionID, paymentSessionID string) (domain.Completion, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(paymentSessionID) == "" {
		return domain.Completion{}, ErrInvalidInput
	}

	ps, err := s.Payments.GetSession(ctx, paymentSessionID)
	if err != nil {
		return domain.Completion{}, paymentErr(err)
	}
	if ps.ID == "" {
		ps.ID = paymentSessionID
	}
	if ps.ClientReference != "" && ps.ClientReference != sessionID {
		return domain.Completion{}, ErrForeignSession
	}

	done := domain.Completion{Status: ps.Status, Currency: ps.Currency, TotalCents: ps.AmountTotal}
	if ps.Status != domain.PaymentPaid {
		s.metrics.complete(ctx, done, false)
		return done, nil
	}

	rec, found, err := s.Orders.FindByPaymentSession(ctx, ps.ID)
	if err != nil {
		return domain.Completion{}, err
	}
	// A reloaded success page must not clear items added since.
	if found && rec.CartCleared {
		done.OrderID = rec.ID
		s.metrics.complete(ctx, done, false)
		return done, nil
	}
	if !found {
		if rec.ID, err = s.record(ctx, sessionID, ps); err != nil {
			return domain.Completion{}, err
		}
	}
	done.OrderID = rec.ID

	if err := s.Cart.Clear(ctx, sessionID); err != nil {
		return domain.Completion{}, fmt.Errorf("clear cart: %w", err)
	}
	if err := s.Orders.MarkCartCleared(ctx, rec.ID); err != nil {
		// The cart is already empty; a retry only empties it again.
		s.log.Warn("mark cart cleared failed",
			zap.String("order_id", rec.ID),
			zap.Error(err),
		)
	}

	s.metrics.complete(ctx, done, !found)
	s.log.Info("checkout completed",
		zap.String("payment_session_id", ps.ID),
		zap.String("order_id", rec.ID),
	)
	return done, nil
}

// record stores the paid order, taking its lines from the gateway and
// falling back to the cart.
func (s *Service) record(ctx context.Context, sessionID string, ps domain.PaymentSession) (string, error) {
	lines := ps.Lines
	if len(lines) == 0 {
		items, err := s.Cart.Items(ctx, sessionID)
		if err != nil {
			return "", err
		}
		for _, it := range items {
			lines = append(lines, domain.QuoteLine{
				ArtworkID:      it.ArtworkID,
				Size:           it.Size,
				Title:          it.Title,
				Quantity:       it.Quantity,
				UnitPriceCents: it.UnitPriceCents,
				LineTotalCents: it.UnitPriceCents * int64(it.Quantity),
			})
		}
	}

	orderID, err := s.Orders.RecordPaidOrder(ctx, PaidOrder{
		SessionID:        sessionID,
		PaymentSessionID: ps.ID,
		Currency:         ps.Currency,
		CustomerEmail:    ps.CustomerEmail,
		TotalCents:       ps.AmountTotal,
		Lines:            lines,
	})
	if err != nil {
		return "", fmt.Errorf("record order: %w", err)
	}
	return orderID, nil
}
