package adapter

import (
	"context"
	"errors"

	catalogapp "github.com/dwikikusuma/atelier/internal/catalog/app"
	checkoutapp "github.com/dwikikusuma/atelier/internal/checkout/app"
)

type CatalogServiceReader struct {
	svc *catalogapp.Service
}

func NewCatalogServiceReader(svc *catalogapp.Service) *CatalogServiceReader {
	return &CatalogServiceReader{svc: svc}
}

func (r *CatalogServiceReader) GetArtwork(ctx context.Context, artworkID string) (checkoutapp.Artwork, error) {
	a, err := r.svc.GetArtwork(ctx, artworkID)
	if errors.Is(err, catalogapp.ErrNotFound) || errors.Is(err, catalogapp.ErrInvalidInput) {
		return checkoutapp.Artwork{}, checkoutapp.ErrArtworkNotFound
	}
	if err != nil {
		return checkoutapp.Artwork{}, err
	}

	prices := make(map[string]int64, len(a.Sizes))
	for _, sz := range a.Sizes {
		prices[sz.Label] = sz.PriceCents
	}

	return checkoutapp.Artwork{
		ID:          a.ID,
		Title:       a.Title,
		Published:   a.Published,
		Prices:      prices,
		OpenEdition: a.OpenEdition(),
		Remaining:   a.Remaining(),
	}, nil
}
