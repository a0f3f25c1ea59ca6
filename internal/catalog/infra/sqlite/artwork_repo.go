package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dwikikusuma/atelier/internal/catalog/app"
	"github.com/dwikikusuma/atelier/internal/catalog/domain"
	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type ArtworkRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewArtworkRepo(db *sql.DB) *ArtworkRepo {
	return &ArtworkRepo{db: db, now: time.Now}
}

func (r *ArtworkRepo) execTX(ctx context.Context, fn func(q queryer) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w; rollback err: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

const artworkColumns = `id, slug, title, description, collection_id, editions_limit, editions_sold, images, published, created_at, updated_at`

func (r *ArtworkRepo) CreateArtwork(ctx context.Context, a domain.Artwork) (domain.Artwork, error) {
	now := r.now().UTC().Truncate(time.Millisecond)
	a.ID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now

	images, err := json.Marshal(nonNil(a.Images))
	if err != nil {
		return domain.Artwork{}, err
	}

	err = r.execTX(ctx, func(q queryer) error {
		_, err := q.ExecContext(ctx, `
			INSERT INTO artworks (`+artworkColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Slug, a.Title, a.Description, nullString(a.CollectionID),
			a.EditionsLimit, a.EditionsSold, string(images), a.Published,
			a.CreatedAt.UnixMilli(), a.UpdatedAt.UnixMilli(),
		)
		if err != nil {
			return mapWriteErr(err)
		}
		return insertSizes(ctx, q, a.ID, a.Sizes)
	})
	if err != nil {
		return domain.Artwork{}, err
	}
	return a, nil
}

func (r *ArtworkRepo) UpdateArtwork(ctx context.Context, a domain.Artwork) (domain.Artwork, error) {
	a.UpdatedAt = r.now().UTC().Truncate(time.Millisecond)

	images, err := json.Marshal(nonNil(a.Images))
	if err != nil {
		return domain.Artwork{}, err
	}

	err = r.execTX(ctx, func(q queryer) error {
		res, err := q.ExecContext(ctx, `
			UPDATE artworks
			SET slug = ?, title = ?, description = ?, collection_id = ?, editions_limit = ?,
				editions_sold = ?, images = ?, published = ?, updated_at = ?
			WHERE id = ?`,
			a.Slug, a.Title, a.Description, nullString(a.CollectionID), a.EditionsLimit,
			a.EditionsSold, string(images), a.Published, a.UpdatedAt.UnixMilli(), a.ID,
		)
		if err != nil {
			return mapWriteErr(err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return app.ErrNotFound
		}

		if _, err := q.ExecContext(ctx, `DELETE FROM artwork_sizes WHERE artwork_id = ?`, a.ID); err != nil {
			return err
		}
		return insertSizes(ctx, q, a.ID, a.Sizes)
	})
	if err != nil {
		return domain.Artwork{}, err
	}
	return a, nil
}

func (r *ArtworkRepo) GetArtwork(ctx context.Context, id string) (domain.Artwork, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Artwork{}, app.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+artworkColumns+` FROM artworks WHERE id = ?`, id)
	a, err := scanArtwork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Artwork{}, app.ErrNotFound
	}
	if err != nil {
		return domain.Artwork{}, err
	}

	sizes, err := r.loadSizes(ctx, []string{a.ID})
	if err != nil {
		return domain.Artwork{}, err
	}
	a.Sizes = sizes[a.ID]
	return a, nil
}

// ListArtworks pages in creation order; the cursor is the id of the last
// artwork of the previous page.
func (r *ArtworkRepo) ListArtworks(ctx context.Context, q domain.ListQuery) ([]domain.Artwork, string, error) {
	var (
		where []string
		args  []any
	)

	if q.Cursor != "" {
		if _, err := uuid.Parse(q.Cursor); err != nil {
			return nil, "", app.ErrInvalidInput
		}
		where = append(where, `(created_at, id) > (SELECT created_at, id FROM artworks WHERE id = ?)`)
		args = append(args, q.Cursor)
	}
	if q.Query != "" {
		where = append(where, `(title LIKE ? OR description LIKE ?)`)
		like := "%" + q.Query + "%"
		args = append(args, like, like)
	}
	if q.CollectionID != "" {
		where = append(where, `collection_id = ?`)
		args = append(args, q.CollectionID)
	}
	if q.PublishedOnly {
		where = append(where, `published = 1`)
	}

	stmt := `SELECT ` + artworkColumns + ` FROM artworks`
	if len(where) > 0 {
		stmt += ` WHERE ` + strings.Join(where, ` AND `)
	}
	stmt += ` ORDER BY created_at, id LIMIT ?`
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, "", err
	}

	out := make([]domain.Artwork, 0, q.Limit)
	ids := make([]string, 0, q.Limit)
	for rows.Next() {
		a, err := scanArtwork(rows)
		if err != nil {
			rows.Close()
			return nil, "", err
		}
		out = append(out, a)
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, "", err
	}
	rows.Close()

	sizes, err := r.loadSizes(ctx, ids)
	if err != nil {
		return nil, "", err
	}

	var nextCursor string
	for i := range out {
		out[i].Sizes = sizes[out[i].ID]
		nextCursor = out[i].ID
	}
	if len(out) < q.Limit {
		nextCursor = ""
	}

	return out, nextCursor, nil
}

func (r *ArtworkRepo) IncrementSold(ctx context.Context, id string, qty int) error {
	return r.execTX(ctx, func(q queryer) error {
		res, err := q.ExecContext(ctx, `
			UPDATE artworks SET editions_sold = editions_sold + ?, updated_at = ?
			WHERE id = ? AND (editions_limit = 0 OR editions_sold + ? <= editions_limit)`,
			qty, r.now().UnixMilli(), id, qty,
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return nil
		}

		var exists int
		err = q.QueryRowContext(ctx, `SELECT 1 FROM artworks WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return app.ErrNotFound
		}
		if err != nil {
			return err
		}
		return app.ErrSoldOut
	})
}

func (r *ArtworkRepo) loadSizes(ctx context.Context, ids []string) (map[string][]domain.SizeOption, error) {
	out := make(map[string][]domain.SizeOption, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT artwork_id, label, price_cents FROM artwork_sizes
		WHERE artwork_id IN (`+placeholders+`)
		ORDER BY artwork_id, position`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			sz domain.SizeOption
		)
		if err := rows.Scan(&id, &sz.Label, &sz.PriceCents); err != nil {
			return nil, err
		}
		out[id] = append(out[id], sz)
	}
	return out, rows.Err()
}

func insertSizes(ctx context.Context, q queryer, artworkID string, sizes []domain.SizeOption) error {
	for i, sz := range sizes {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO artwork_sizes (artwork_id, label, price_cents, position) VALUES (?, ?, ?, ?)`,
			artworkID, sz.Label, sz.PriceCents, i,
		); err != nil {
			return fmt.Errorf("insert size %q: %w", sz.Label, err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArtwork(s scanner) (domain.Artwork, error) {
	var (
		a          domain.Artwork
		collection sql.NullString
		images     string
		created    int64
		updated    int64
	)
	err := s.Scan(&a.ID, &a.Slug, &a.Title, &a.Description, &collection,
		&a.EditionsLimit, &a.EditionsSold, &images, &a.Published, &created, &updated)
	if err != nil {
		return domain.Artwork{}, err
	}

	a.CollectionID = collection.String
	if err := json.Unmarshal([]byte(images), &a.Images); err != nil {
		return domain.Artwork{}, fmt.Errorf("artwork %s images: %w", a.ID, err)
	}
	a.CreatedAt = time.UnixMilli(created).UTC()
	a.UpdatedAt = time.UnixMilli(updated).UTC()
	return a, nil
}

// mapWriteErr turns unique and foreign key violations into domain errors.
func mapWriteErr(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) || se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return err
	}

	msg := se.Error()
	switch {
	case strings.Contains(msg, "FOREIGN KEY"):
		return fmt.Errorf("%w: unknown collection", app.ErrInvalidInput)
	case strings.Contains(msg, "UNIQUE"), strings.Contains(msg, "PRIMARY KEY"):
		return fmt.Errorf("%w: %v", app.ErrConflict, err)
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
