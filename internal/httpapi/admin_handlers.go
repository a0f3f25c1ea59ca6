package httpapi

import (
	"net/http"

	catalogdomain "github.com/dwikikusuma/atelier/internal/catalog/domain"
	"github.com/dwikikusuma/atelier/pkg/money"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type sizeRequest struct {
	Label string `json:"label"`
	// Price is a decimal amount in major units, e.g. "49.99".
	Price string `json:"price"`
}

type artworkRequest struct {
	Slug          string        `json:"slug"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	CollectionID  string        `json:"collectionId"`
	Sizes         []sizeRequest `json:"sizes"`
	EditionsLimit int           `json:"editionsLimit"`
	EditionsSold  int           `json:"editionsSold"`
	Images        []string      `json:"images"`
	Published     bool          `json:"published"`
}

type collectionRequest struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (req artworkRequest) toDomain() (catalogdomain.Artwork, error) {
	a := catalogdomain.Artwork{
		Slug:          req.Slug,
		Title:         req.Title,
		Description:   req.Description,
		CollectionID:  req.CollectionID,
		EditionsLimit: req.EditionsLimit,
		EditionsSold:  req.EditionsSold,
		Images:        req.Images,
		Published:     req.Published,
	}
	for _, sz := range req.Sizes {
		cents, err := money.ParseCents(sz.Price)
		if err != nil {
			return catalogdomain.Artwork{}, errors.Wrapf(err, "size %q", sz.Label)
		}
		a.Sizes = append(a.Sizes, catalogdomain.SizeOption{Label: sz.Label, PriceCents: cents})
	}
	return a, nil
}

func (s *Server) createArtworkHandler(w http.ResponseWriter, r *http.Request) {
	var req artworkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.toDomain()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.catalog.CreateArtwork(r.Context(), in)
	if err != nil {
		s.writeError(w, r, errors.Wrap(err, "create artwork"))
		return
	}
	s.log.Info("artwork created", zap.String("artwork_id", a.ID), zap.String("slug", a.Slug))
	writeJSON(w, http.StatusCreated, toArtworkView(a, s.opts.Currency))
}

func (s *Server) updateArtworkHandler(w http.ResponseWriter, r *http.Request) {
	var req artworkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.toDomain()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	a, err := s.catalog.UpdateArtwork(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		s.writeError(w, r, errors.Wrap(err, "update artwork"))
		return
	}
	writeJSON(w, http.StatusOK, toArtworkView(a, s.opts.Currency))
}

func (s *Server) createCollectionHandler(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	c, err := s.catalog.CreateCollection(r.Context(), catalogdomain.Collection{
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, r, errors.Wrap(err, "create collection"))
		return
	}
	writeJSON(w, http.StatusCreated, toCollectionView(c))
}
