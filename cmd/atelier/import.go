package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	catalogapp "github.com/dwikikusuma/atelier/internal/catalog/app"
	"github.com/dwikikusuma/atelier/internal/catalog/domain"
	catalogsqlite "github.com/dwikikusuma/atelier/internal/catalog/infra/sqlite"
	"github.com/dwikikusuma/atelier/pkg/money"
	sqlitedb "github.com/dwikikusuma/atelier/pkg/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var importCmd = &cobra.Command{
	Use:   "import [catalog.yaml]",
	Short: "Load collections and artworks from a yaml file",
	Long: `Reads a catalog file and creates every collection and artwork it lists.
Entries whose slug already exists are skipped, so the import can be re-run.

Example:
  atelier import catalog.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		file, err := parseCatalogFile(data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		db, err := sqlitedb.OpenMigrated(cmd.Context(), sqlitedb.Config{Path: cfg.Storage.SQLitePath})
		if err != nil {
			return err
		}
		defer db.Close()

		svc := catalogapp.NewService(catalogsqlite.NewArtworkRepo(db), catalogsqlite.NewCollectionRepo(db))
		stats, err := importCatalog(cmd.Context(), svc, file, log)
		if err != nil {
			return err
		}
		log.Info("catalog imported",
			zap.Int("collections", stats.Collections),
			zap.Int("artworks", stats.Artworks),
			zap.Int("skipped", stats.Skipped),
		)
		return nil
	},
}

type catalogFile struct {
	Collections []collectionEntry `yaml:"collections"`
	Artworks    []artworkEntry    `yaml:"artworks"`
}

type collectionEntry struct {
	Slug        string `yaml:"slug"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

type artworkEntry struct {
	Slug        string      `yaml:"slug"`
	Title       string      `yaml:"title"`
	Description string      `yaml:"description"`
	Collection  string      `yaml:"collection"`
	Editions    int         `yaml:"editions"`
	Images      []string    `yaml:"images"`
	Published   bool        `yaml:"published"`
	Sizes       []sizeEntry `yaml:"sizes"`
}

type sizeEntry struct {
	Label string `yaml:"label"`
	// Price is a decimal amount such as "45.00".
	Price string `yaml:"price"`
}

type importStats struct {
	Collections int
	Artworks    int
	Skipped     int
}

func parseCatalogFile(data []byte) (catalogFile, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return catalogFile{}, err
	}
	return f, nil
}

func importCatalog(ctx context.Context, svc *catalogapp.Service, f catalogFile, log *zap.Logger) (importStats, error) {
	var stats importStats
	collectionIDs := make(map[string]string, len(f.Collections))

	for _, e := range f.Collections {
		c, err := svc.CreateCollection(ctx, domain.Collection{Slug: e.Slug, Title: e.Title, Description: e.Description})
		switch {
		case err == nil:
			stats.Collections++
		case errors.Is(err, catalogapp.ErrConflict):
			c, _, err = svc.GetCollection(ctx, catalogapp.Slugify(firstNonEmpty(e.Slug, e.Title)))
			if err != nil {
				return stats, fmt.Errorf("collection %q: %w", e.Title, err)
			}
			stats.Skipped++
		default:
			return stats, fmt.Errorf("collection %q: %w", e.Title, err)
		}
		collectionIDs[c.Slug] = c.ID
	}

	for _, e := range f.Artworks {
		a := domain.Artwork{
			Slug:          e.Slug,
			Title:         e.Title,
			Description:   e.Description,
			EditionsLimit: e.Editions,
			Images:        e.Images,
			Published:     e.Published,
		}
		if e.Collection != "" {
			id, ok := collectionIDs[e.Collection]
			if !ok {
				return stats, fmt.Errorf("artwork %q: unknown collection %q", e.Title, e.Collection)
			}
			a.CollectionID = id
		}
		for _, s := range e.Sizes {
			cents, err := money.ParseCents(s.Price)
			if err != nil {
				return stats, fmt.Errorf("artwork %q size %q: %w", e.Title, s.Label, err)
			}
			a.Sizes = append(a.Sizes, domain.SizeOption{Label: s.Label, PriceCents: cents})
		}

		_, err := svc.CreateArtwork(ctx, a)
		switch {
		case err == nil:
			stats.Artworks++
		case errors.Is(err, catalogapp.ErrConflict):
			log.Info("artwork exists, skipping", zap.String("title", e.Title))
			stats.Skipped++
		default:
			return stats, fmt.Errorf("artwork %q: %w", e.Title, err)
		}
	}
	return stats, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
