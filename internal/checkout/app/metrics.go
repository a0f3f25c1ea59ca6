package app

import (
	"context"
	"errors"

	"github.com/dwikikusuma/atelier/internal/checkout/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const meterName = "github.com/dwikikusuma/atelier/internal/checkout"

type checkoutMetrics struct {
	begins      metric.Int64Counter
	completions metric.Int64Counter
	orderCents  metric.Int64Counter
}

// newCheckoutMetrics registers the checkout instruments on the global meter
// provider. A failed registration falls back to a no-op instrument.
func newCheckoutMetrics(log *zap.Logger) checkoutMetrics {
	meter := otel.Meter(meterName)

	begins, err := meter.Int64Counter("atelier.checkout.begins",
		metric.WithDescription("Checkout attempts by outcome"))
	if err != nil {
		log.Warn("register checkout metric", zap.String("name", "atelier.checkout.begins"), zap.Error(err))
	}
	completions, err := meter.Int64Counter("atelier.checkout.completions",
		metric.WithDescription("Payment session lookups by status"))
	if err != nil {
		log.Warn("register checkout metric", zap.String("name", "atelier.checkout.completions"), zap.Error(err))
	}
	orderCents, err := meter.Int64Counter("atelier.checkout.order_cents",
		metric.WithDescription("Value of recorded orders in minor currency units"),
		metric.WithUnit("{cent}"))
	if err != nil {
		log.Warn("register checkout metric", zap.String("name", "atelier.checkout.order_cents"), zap.Error(err))
	}

	return checkoutMetrics{begins: begins, completions: completions, orderCents: orderCents}
}

func beginOutcome(err error) string {
	var verr *domain.ValidationError
	switch {
	case err == nil:
		return "started"
	case errors.As(err, &verr):
		return "flagged"
	case errors.Is(err, ErrEmptyCart):
		return "empty"
	default:
		return "failed"
	}
}

func (m checkoutMetrics) begin(ctx context.Context, err error) {
	if m.begins == nil {
		return
	}
	m.begins.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", beginOutcome(err))))
}

func (m checkoutMetrics) complete(ctx context.Context, c domain.Completion, recorded bool) {
	if m.completions != nil {
		m.completions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", string(c.Status))))
	}
	if recorded && m.orderCents != nil {
		m.orderCents.Add(ctx, c.TotalCents, metric.WithAttributes(attribute.String("currency", c.Currency)))
	}
}
