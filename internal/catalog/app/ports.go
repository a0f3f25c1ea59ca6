package app

import (
	"context"

	"github.com/dwikikusuma/atelier/internal/catalog/domain"
)

type ArtworkRepo interface {
	CreateArtwork(ctx context.Context, a domain.Artwork) (domain.Artwork, error)
	UpdateArtwork(ctx context.Context, a domain.Artwork) (domain.Artwork, error)
	GetArtwork(ctx context.Context, id string) (domain.Artwork, error)
	ListArtworks(ctx context.Context, q domain.ListQuery) ([]domain.Artwork, string, error)
	// IncrementSold adds qty to editions_sold, failing with ErrSoldOut when
	// a limited edition would be exceeded.
	IncrementSold(ctx context.Context, id string, qty int) error
}

type CollectionRepo interface {
	CreateCollection(ctx context.Context, c domain.Collection) (domain.Collection, error)
	GetCollectionBySlug(ctx context.Context, slug string) (domain.Collection, error)
}
