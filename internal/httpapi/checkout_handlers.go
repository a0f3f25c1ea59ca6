package httpapi

import (
	"net/http"

	"github.com/pkg/errors"
)

type acceptLineRequest struct {
	ArtworkID string `json:"artworkId"`
	Size      string `json:"size"`
}

func (s *Server) beginCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	ps, err := s.checkout.Begin(r.Context(), sessionID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": ps.ID, "url": ps.URL})
}

// acceptLineHandler applies the catalog's current values to one flagged
// line and returns the updated cart.
func (s *Server) acceptLineHandler(w http.ResponseWriter, r *http.Request) {
	var req acceptLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.checkout.AcceptLine(r.Context(), sessionID(r), req.ArtworkID, req.Size); err != nil {
		s.writeError(w, r, errors.Wrap(err, "accept line"))
		return
	}
	s.viewCartHandler(w, r)
}

func (s *Server) checkoutStatusHandler(w http.ResponseWriter, r *http.Request) {
	paymentSessionID := r.URL.Query().Get("session_id")
	if paymentSessionID == "" {
		s.writeError(w, r, errors.Wrap(errBadRequest, "session_id is required"))
		return
	}

	done, err := s.checkout.Complete(r.Context(), sessionID(r), paymentSessionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, done)
}
