package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dwikikusuma/atelier/internal/catalog/app"
	"github.com/dwikikusuma/atelier/internal/catalog/domain"
	sqlitedb "github.com/dwikikusuma/atelier/pkg/sqlite"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepos(t *testing.T) (*ArtworkRepo, *CollectionRepo) {
	t.Helper()
	db, err := sqlitedb.OpenMigrated(context.Background(), sqlitedb.Config{Path: filepath.Join(t.TempDir(), "catalog.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	artworks := NewArtworkRepo(db)
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	artworks.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return artworks, NewCollectionRepo(db)
}

func sampleArtwork(slug string) domain.Artwork {
	return domain.Artwork{
		Slug:          slug,
		Title:         "Harbour at " + slug,
		Description:   "risograph print",
		Sizes:         []domain.SizeOption{{Label: "A4", PriceCents: 4500}, {Label: "A3", PriceCents: 7500}},
		EditionsLimit: 10,
		Images:        []string{"/img/" + slug + ".jpg"},
		Published:     true,
	}
}

func TestArtworkRepo_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	artworks, collections := newRepos(t)

	col, err := collections.CreateCollection(ctx, domain.Collection{Slug: "harbours", Title: "Harbours"})
	require.NoError(t, err)

	in := sampleArtwork("dawn")
	in.CollectionID = col.ID
	created, err := artworks.CreateArtwork(ctx, in)
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := artworks.GetArtwork(ctx, created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(created, got); diff != "" {
		t.Fatalf("round trip mismatch (-created +got):\n%s", diff)
	}

	got.Sizes = []domain.SizeOption{{Label: "A2", PriceCents: 12000}}
	got.Published = false
	updated, err := artworks.UpdateArtwork(ctx, got)
	require.NoError(t, err)

	again, err := artworks.GetArtwork(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated.Sizes, again.Sizes)
	assert.False(t, again.Published)

	t.Run("duplicate slug conflicts", func(t *testing.T) {
		_, err := artworks.CreateArtwork(ctx, sampleArtwork("dawn"))
		assert.ErrorIs(t, err, app.ErrConflict)
	})

	t.Run("unknown collection", func(t *testing.T) {
		a := sampleArtwork("dusk")
		a.CollectionID = "9d5c8c1e-0000-4000-8000-000000000000"
		_, err := artworks.CreateArtwork(ctx, a)
		assert.ErrorIs(t, err, app.ErrInvalidInput)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := artworks.GetArtwork(ctx, "9d5c8c1e-0000-4000-8000-000000000000")
		assert.ErrorIs(t, err, app.ErrNotFound)
		_, err = artworks.GetArtwork(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, app.ErrNotFound)
	})
}

func TestArtworkRepo_ListPages(t *testing.T) {
	ctx := context.Background()
	artworks, collections := newRepos(t)

	col, err := collections.CreateCollection(ctx, domain.Collection{Slug: "night", Title: "Night"})
	require.NoError(t, err)

	var want []string
	for _, slug := range []string{"one", "two", "three", "four", "five"} {
		a := sampleArtwork(slug)
		if slug == "two" {
			a.Published = false
		}
		if slug == "four" || slug == "five" {
			a.CollectionID = col.ID
		}
		created, err := artworks.CreateArtwork(ctx, a)
		require.NoError(t, err)
		if a.Published {
			want = append(want, created.Slug)
		}
	}

	var (
		got    []string
		cursor string
	)
	for {
		page, next, err := artworks.ListArtworks(ctx, domain.ListQuery{PublishedOnly: true, Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		for _, a := range page {
			require.NotEmpty(t, a.Sizes)
			got = append(got, a.Slug)
		}
		if next == "" {
			break
		}
		cursor = next
	}
	assert.Equal(t, want, got)

	t.Run("by collection", func(t *testing.T) {
		page, next, err := artworks.ListArtworks(ctx, domain.ListQuery{CollectionID: col.ID, Limit: 20})
		require.NoError(t, err)
		assert.Empty(t, next)
		assert.Len(t, page, 2)
	})

	t.Run("query", func(t *testing.T) {
		page, _, err := artworks.ListArtworks(ctx, domain.ListQuery{Query: "at three", Limit: 20})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "three", page[0].Slug)
	})

	t.Run("bad cursor", func(t *testing.T) {
		_, _, err := artworks.ListArtworks(ctx, domain.ListQuery{Cursor: "zzz", Limit: 20})
		assert.ErrorIs(t, err, app.ErrInvalidInput)
	})
}

func TestArtworkRepo_IncrementSold(t *testing.T) {
	ctx := context.Background()
	artworks, _ := newRepos(t)

	a := sampleArtwork("limited")
	a.EditionsLimit = 3
	created, err := artworks.CreateArtwork(ctx, a)
	require.NoError(t, err)

	require.NoError(t, artworks.IncrementSold(ctx, created.ID, 2))
	assert.ErrorIs(t, artworks.IncrementSold(ctx, created.ID, 2), app.ErrSoldOut)
	require.NoError(t, artworks.IncrementSold(ctx, created.ID, 1))

	got, err := artworks.GetArtwork(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, got.SoldOut())

	open := sampleArtwork("open")
	open.EditionsLimit = 0
	created, err = artworks.CreateArtwork(ctx, open)
	require.NoError(t, err)
	require.NoError(t, artworks.IncrementSold(ctx, created.ID, 500))

	assert.ErrorIs(t, artworks.IncrementSold(ctx, "9d5c8c1e-0000-4000-8000-000000000000", 1), app.ErrNotFound)
}

func TestCollectionRepo(t *testing.T) {
	ctx := context.Background()
	_, collections := newRepos(t)

	c, err := collections.CreateCollection(ctx, domain.Collection{Slug: "sea", Title: "Sea", Description: "blue"})
	require.NoError(t, err)

	got, err := collections.GetCollectionBySlug(ctx, "sea")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, "blue", got.Description)

	_, err = collections.CreateCollection(ctx, domain.Collection{Slug: "sea", Title: "Other"})
	assert.ErrorIs(t, err, app.ErrConflict)

	_, err = collections.GetCollectionBySlug(ctx, "land")
	assert.ErrorIs(t, err, app.ErrNotFound)
}
