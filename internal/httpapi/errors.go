package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	cartapp "github.com/dwikikusuma/atelier/internal/cart/app"
	catalogapp "github.com/dwikikusuma/atelier/internal/catalog/app"
	checkoutapp "github.com/dwikikusuma/atelier/internal/checkout/app"
	checkoutdomain "github.com/dwikikusuma/atelier/internal/checkout/domain"
	"github.com/dwikikusuma/atelier/pkg/money"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	errBadRequest   = errors.New("bad request")
	errNotFound     = errors.New("not found")
	errUnauthorized = errors.New("unauthorized")
)

type errorBody struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Issues  []checkoutdomain.Issue `json:"issues,omitempty"`
}

// statusFromErr maps service errors to an HTTP status, a stable code and a
// message safe to show the shopper.
func statusFromErr(err error) (int, string, string) {
	var (
		verr *checkoutdomain.ValidationError
		perr *checkoutapp.PaymentError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusConflict, "NEEDS_REVIEW", "some items in your cart changed"
	case errors.As(err, &perr):
		return http.StatusBadGateway, "PAYMENT_FAILED", perr.Error()
	case errors.Is(err, cartapp.ErrSnapshotUnavailable):
		return http.StatusServiceUnavailable, "UNAVAILABLE", "your cart could not be loaded, try again shortly"
	case errors.Is(err, checkoutapp.ErrEmptyCart):
		return http.StatusBadRequest, "EMPTY_CART", "your cart is empty"
	case errors.Is(err, checkoutapp.ErrForeignSession):
		return http.StatusForbidden, "PERMISSION_DENIED", err.Error()
	case errors.Is(err, errUnauthorized):
		return http.StatusUnauthorized, "UNAUTHENTICATED", "missing or invalid admin token"
	case errors.Is(err, catalogapp.ErrConflict):
		return http.StatusConflict, "ALREADY_EXISTS", err.Error()
	case errors.Is(err, catalogapp.ErrNotFound), errors.Is(err, errNotFound):
		return http.StatusNotFound, "NOT_FOUND", "not found"
	case errors.Is(err, errBadRequest),
		errors.Is(err, money.ErrInvalidAmount),
		errors.Is(err, cartapp.ErrInvalidInput),
		errors.Is(err, catalogapp.ErrInvalidInput),
		errors.Is(err, checkoutapp.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_ARGUMENT", err.Error()
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "UNAVAILABLE", "try again shortly"
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := statusFromErr(err)
	if status >= http.StatusInternalServerError {
		reqID, _ := r.Context().Value(ctxKeyRequestID).(string)
		s.log.Error("request error", zap.String("request_id", reqID), zap.String("path", r.URL.Path), zap.Error(err))
	}
	body := errorBody{Code: code, Message: msg}

	var verr *checkoutdomain.ValidationError
	if errors.As(err, &verr) {
		body.Issues = verr.Issues
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errBadRequest, err.Error())
	}
	return nil
}
