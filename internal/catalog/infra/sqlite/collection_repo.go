package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dwikikusuma/atelier/internal/catalog/app"
	"github.com/dwikikusuma/atelier/internal/catalog/domain"
	"github.com/google/uuid"
)

type CollectionRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewCollectionRepo(db *sql.DB) *CollectionRepo {
	return &CollectionRepo{db: db, now: time.Now}
}

func (r *CollectionRepo) CreateCollection(ctx context.Context, c domain.Collection) (domain.Collection, error) {
	now := r.now().UTC().Truncate(time.Millisecond)
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO collections (id, slug, title, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Slug, c.Title, c.Description, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return domain.Collection{}, mapWriteErr(err)
	}
	return c, nil
}

func (r *CollectionRepo) GetCollectionBySlug(ctx context.Context, slug string) (domain.Collection, error) {
	var (
		c                domain.Collection
		created, updated int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, slug, title, description, created_at, updated_at
		FROM collections WHERE slug = ?`, slug,
	).Scan(&c.ID, &c.Slug, &c.Title, &c.Description, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Collection{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Collection{}, err
	}

	c.CreatedAt = time.UnixMilli(created).UTC()
	c.UpdatedAt = time.UnixMilli(updated).UTC()
	return c, nil
}
