package domain

import (
	"fmt"
	"strings"
)

type IssueKind string

const (
	// IssueUnavailable: the artwork was deleted or unpublished.
	IssueUnavailable IssueKind = "unavailable"
	// IssueSizeUnavailable: the artwork no longer offers the size.
	IssueSizeUnavailable IssueKind = "size_unavailable"
	// IssuePriceChanged: the catalog price differs from the price in the cart.
	IssuePriceChanged IssueKind = "price_changed"
	// IssueSoldOut: a limited edition has no editions left.
	IssueSoldOut IssueKind = "sold_out"
	// IssueInsufficientEditions: fewer editions remain than the cart holds.
	IssueInsufficientEditions IssueKind = "insufficient_editions"
)

// Issue flags one cart line that no longer matches the catalog.
type Issue struct {
	ArtworkID         string    `json:"artworkId"`
	Size              string    `json:"size"`
	Title             string    `json:"title"`
	Kind              IssueKind `json:"kind"`
	CartPriceCents    int64     `json:"cartPriceCents"`
	CurrentPriceCents int64     `json:"currentPriceCents,omitempty"`
	Quantity          int       `json:"quantity"`
	Remaining         int       `json:"remaining,omitempty"`
}

// ValidationError blocks checkout until every flagged line is accepted or
// edited by the shopper.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s/%s: %s", is.ArtworkID, is.Size, is.Kind))
	}
	return "cart needs review: " + strings.Join(parts, ", ")
}

type QuoteLine struct {
	ArtworkID      string
	Size           string
	Title          string
	ImageURL       string
	Quantity       int
	UnitPriceCents int64
	LineTotalCents int64
}

type Quote struct {
	Lines      []QuoteLine
	Currency   string
	TotalCents int64
}

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentExpired PaymentStatus = "expired"
)

// PaymentSession is the gateway's view of a hosted checkout.
type PaymentSession struct {
	ID              string
	URL             string
	Status          PaymentStatus
	ClientReference string
	CustomerEmail   string
	Currency        string
	AmountTotal     int64
	// Lines are the charged lines when the gateway reports them.
	Lines []QuoteLine
}

type Completion struct {
	Status     PaymentStatus `json:"status"`
	OrderID    string        `json:"orderId,omitempty"`
	Currency   string        `json:"currency,omitempty"`
	TotalCents int64         `json:"totalCents,omitempty"`
}
