package adapter

import (
	"context"

	catalogapp "github.com/dwikikusuma/atelier/internal/catalog/app"
)

// CatalogSales counts order lines against catalog editions.
type CatalogSales struct {
	svc *catalogapp.Service
}

func NewCatalogSales(svc *catalogapp.Service) *CatalogSales {
	return &CatalogSales{svc: svc}
}

func (c *CatalogSales) RecordSale(ctx context.Context, artworkID string, qty int) error {
	return c.svc.RecordSale(ctx, artworkID, qty)
}
