package app

import (
	"context"
	"errors"
	"strings"

	"github.com/dwikikusuma/atelier/internal/catalog/domain"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrSoldOut      = errors.New("sold out")
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type Service struct {
	artworks    ArtworkRepo
	collections CollectionRepo
}

func NewService(artworks ArtworkRepo, collections CollectionRepo) *Service {
	return &Service{
		artworks:    artworks,
		collections: collections,
	}
}

// GetArtwork returns the artwork whether or not it is published; callers
// facing shoppers decide what to hide.
func (s *Service) GetArtwork(ctx context.Context, id string) (domain.Artwork, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Artwork{}, ErrInvalidInput
	}
	return s.artworks.GetArtwork(ctx, strings.TrimSpace(id))
}

func (s *Service) ListArtworks(ctx context.Context, q domain.ListQuery) ([]domain.Artwork, string, error) {
	q.Limit = clampLimit(q.Limit)
	q.Query = strings.TrimSpace(q.Query)
	q.Cursor = strings.TrimSpace(q.Cursor)
	return s.artworks.ListArtworks(ctx, q)
}

// GetCollection returns a collection and its published artworks.
func (s *Service) GetCollection(ctx context.Context, slug string) (domain.Collection, []domain.Artwork, error) {
	slug = strings.TrimSpace(strings.ToLower(slug))
	if slug == "" {
		return domain.Collection{}, nil, ErrInvalidInput
	}

	c, err := s.collections.GetCollectionBySlug(ctx, slug)
	if err != nil {
		return domain.Collection{}, nil, err
	}

	var (
		out    []domain.Artwork
		cursor string
	)
	for {
		page, next, err := s.artworks.ListArtworks(ctx, domain.ListQuery{
			CollectionID:  c.ID,
			PublishedOnly: true,
			Limit:         maxListLimit,
			Cursor:        cursor,
		})
		if err != nil {
			return domain.Collection{}, nil, err
		}
		out = append(out, page...)
		if next == "" {
			break
		}
		cursor = next
	}
	return c, out, nil
}

func (s *Service) CreateArtwork(ctx context.Context, a domain.Artwork) (domain.Artwork, error) {
	a, err := normalizeArtwork(a)
	if err != nil {
		return domain.Artwork{}, err
	}
	a.ID = ""
	return s.artworks.CreateArtwork(ctx, a)
}

// UpdateArtwork replaces every editable field of the artwork with id.
func (s *Service) UpdateArtwork(ctx context.Context, id string, a domain.Artwork) (domain.Artwork, error) {
	existing, err := s.GetArtwork(ctx, id)
	if err != nil {
		return domain.Artwork{}, err
	}

	a, err = normalizeArtwork(a)
	if err != nil {
		return domain.Artwork{}, err
	}
	a.ID = existing.ID
	a.CreatedAt = existing.CreatedAt
	return s.artworks.UpdateArtwork(ctx, a)
}

func (s *Service) CreateCollection(ctx context.Context, c domain.Collection) (domain.Collection, error) {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return domain.Collection{}, ErrInvalidInput
	}
	c.Slug = Slugify(c.Slug)
	if c.Slug == "" {
		c.Slug = Slugify(c.Title)
	}
	if c.Slug == "" {
		return domain.Collection{}, ErrInvalidInput
	}
	c.ID = ""
	return s.collections.CreateCollection(ctx, c)
}

// RecordSale counts qty sold editions against the artwork.
func (s *Service) RecordSale(ctx context.Context, artworkID string, qty int) error {
	if strings.TrimSpace(artworkID) == "" || qty <= 0 {
		return ErrInvalidInput
	}
	return s.artworks.IncrementSold(ctx, strings.TrimSpace(artworkID), qty)
}

func normalizeArtwork(a domain.Artwork) (domain.Artwork, error) {
	a.Title = strings.TrimSpace(a.Title)
	a.CollectionID = strings.TrimSpace(a.CollectionID)
	if a.Title == "" {
		return a, ErrInvalidInput
	}

	a.Slug = Slugify(a.Slug)
	if a.Slug == "" {
		a.Slug = Slugify(a.Title)
	}
	if a.Slug == "" {
		return a, ErrInvalidInput
	}

	if len(a.Sizes) == 0 {
		return a, ErrInvalidInput
	}
	seen := make(map[string]bool, len(a.Sizes))
	sizes := make([]domain.SizeOption, 0, len(a.Sizes))
	for _, sz := range a.Sizes {
		label := strings.TrimSpace(sz.Label)
		if label == "" || sz.PriceCents < 0 || seen[label] {
			return a, ErrInvalidInput
		}
		seen[label] = true
		sizes = append(sizes, domain.SizeOption{Label: label, PriceCents: sz.PriceCents})
	}
	a.Sizes = sizes

	if a.EditionsLimit < 0 || a.EditionsSold < 0 {
		return a, ErrInvalidInput
	}
	if !a.OpenEdition() && a.EditionsSold > a.EditionsLimit {
		return a, ErrInvalidInput
	}

	images := a.Images[:0:0]
	for _, img := range a.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	a.Images = images

	return a, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
