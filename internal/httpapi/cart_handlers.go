package httpapi

import (
	"net/http"

	cartapp "github.com/dwikikusuma/atelier/internal/cart/app"
	cartdomain "github.com/dwikikusuma/atelier/internal/cart/domain"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

type addItemRequest struct {
	ArtworkID string `json:"artworkId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity"`
}

func (s *Server) cart(r *http.Request) (*cartapp.Store, error) {
	return s.carts.Open(r.Context(), sessionID(r))
}

// respondCart writes the cart view; st may be a failed mutation's state.
func (s *Server) respondCart(w http.ResponseWriter, r *http.Request, st cartdomain.State, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartView(st, s.opts.Currency))
}

func (s *Server) viewCartHandler(w http.ResponseWriter, r *http.Request) {
	store, err := s.cart(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondCart(w, r, store.State(), nil)
}

// addToCartHandler prices the line from the catalog; the client only names
// the artwork, size and quantity.
func (s *Server) addToCartHandler(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Quantity < 0 {
		s.writeError(w, r, errors.Wrap(errBadRequest, "quantity cannot be negative"))
		return
	}

	a, err := s.catalog.GetArtwork(r.Context(), req.ArtworkID)
	if err != nil {
		s.writeError(w, r, errors.Wrap(err, "add to cart"))
		return
	}
	if !a.Published {
		s.writeError(w, r, errNotFound)
		return
	}
	price, ok := a.PriceFor(req.Size)
	if !ok {
		s.writeError(w, r, errors.Wrapf(errBadRequest, "size %q is not offered", req.Size))
		return
	}

	store, err := s.cart(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := store.AddItem(r.Context(), cartdomain.LineItem{
		ArtworkID:      a.ID,
		Size:           req.Size,
		UnitPriceCents: price,
		Quantity:       req.Quantity,
		Title:          a.Title,
		ImageURL:       a.PrimaryImage(),
	})
	s.respondCart(w, r, st, err)
}

func (s *Server) updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Quantity == nil {
		s.writeError(w, r, errors.Wrap(errBadRequest, "quantity is required"))
		return
	}

	store, err := s.cart(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	vars := mux.Vars(r)
	st, err := store.UpdateQuantity(r.Context(), vars["artworkId"], vars["size"], *req.Quantity)
	s.respondCart(w, r, st, err)
}

func (s *Server) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	store, err := s.cart(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	vars := mux.Vars(r)
	st, err := store.RemoveItem(r.Context(), vars["artworkId"], vars["size"])
	s.respondCart(w, r, st, err)
}

func (s *Server) clearCartHandler(w http.ResponseWriter, r *http.Request) {
	store, err := s.cart(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := store.Clear(r.Context())
	s.respondCart(w, r, st, err)
}

func (s *Server) openCartHandler(w http.ResponseWriter, r *http.Request) {
	store, err := s.cart(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondCart(w, r, store.OpenCart(), nil)
}

func (s *Server) closeCartHandler(w http.ResponseWriter, r *http.Request) {
	store, err := s.cart(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.respondCart(w, r, store.CloseCart(), nil)
}
