package httpapi

import (
	"net/http"
	"strconv"

	catalogdomain "github.com/dwikikusuma/atelier/internal/catalog/domain"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

func (s *Server) listArtworksHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, errors.Wrap(errBadRequest, "limit must be a number"))
			return
		}
		limit = n
	}

	artworks, next, err := s.catalog.ListArtworks(r.Context(), catalogdomain.ListQuery{
		Query:         q.Get("q"),
		CollectionID:  q.Get("collection"),
		PublishedOnly: true,
		Limit:         limit,
		Cursor:        q.Get("cursor"),
	})
	if err != nil {
		s.writeError(w, r, errors.Wrap(err, "list artworks"))
		return
	}

	out := make([]artworkView, 0, len(artworks))
	for _, a := range artworks {
		out = append(out, toArtworkView(a, s.opts.Currency))
	}
	writeJSON(w, http.StatusOK, map[string]any{"artworks": out, "nextCursor": next})
}

func (s *Server) getArtworkHandler(w http.ResponseWriter, r *http.Request) {
	a, err := s.catalog.GetArtwork(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, errors.Wrap(err, "get artwork"))
		return
	}
	if !a.Published {
		s.writeError(w, r, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toArtworkView(a, s.opts.Currency))
}

func (s *Server) getCollectionHandler(w http.ResponseWriter, r *http.Request) {
	c, artworks, err := s.catalog.GetCollection(r.Context(), mux.Vars(r)["slug"])
	if err != nil {
		s.writeError(w, r, errors.Wrap(err, "get collection"))
		return
	}

	v := toCollectionView(c)
	v.Artworks = make([]artworkView, 0, len(artworks))
	for _, a := range artworks {
		v.Artworks = append(v.Artworks, toArtworkView(a, s.opts.Currency))
	}
	writeJSON(w, http.StatusOK, v)
}
