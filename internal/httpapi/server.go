// Package httpapi serves the storefront's JSON API.
package httpapi

import (
	"net/http"
	"strings"

	cartapp "github.com/dwikikusuma/atelier/internal/cart/app"
	catalogapp "github.com/dwikikusuma/atelier/internal/catalog/app"
	checkoutapp "github.com/dwikikusuma/atelier/internal/checkout/app"
	"github.com/dwikikusuma/atelier/internal/health"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

type Options struct {
	Currency   string
	AdminToken string
	// SecureCookies marks the session cookie Secure; set it behind https.
	SecureCookies bool
}

type Server struct {
	catalog  *catalogapp.Service
	carts    *cartapp.Sessions
	checkout *checkoutapp.Service
	health   *health.Checker
	log      *zap.Logger
	opts     Options
}

func New(catalog *catalogapp.Service, carts *cartapp.Sessions, checkout *checkoutapp.Service, checker *health.Checker, log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	return &Server{
		catalog:  catalog,
		carts:    carts,
		checkout: checkout,
		health:   checker,
		log:      log,
		opts:     opts,
	}
}

func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("atelier"))
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.HandleFunc("/readyz", s.readyHandler).Methods(http.MethodGet, http.MethodHead)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/artworks", s.listArtworksHandler).Methods(http.MethodGet)
	api.HandleFunc("/artworks/{id}", s.getArtworkHandler).Methods(http.MethodGet)
	api.HandleFunc("/collections/{slug}", s.getCollectionHandler).Methods(http.MethodGet)

	shop := api.NewRoute().Subrouter()
	shop.Use(s.ensureSessionID)
	shop.HandleFunc("/cart", s.viewCartHandler).Methods(http.MethodGet)
	shop.HandleFunc("/cart", s.clearCartHandler).Methods(http.MethodDelete)
	shop.HandleFunc("/cart/items", s.addToCartHandler).Methods(http.MethodPost)
	shop.HandleFunc("/cart/items/{artworkId}/{size}", s.updateCartItemHandler).Methods(http.MethodPatch)
	shop.HandleFunc("/cart/items/{artworkId}/{size}", s.removeCartItemHandler).Methods(http.MethodDelete)
	shop.HandleFunc("/cart/open", s.openCartHandler).Methods(http.MethodPost)
	shop.HandleFunc("/cart/close", s.closeCartHandler).Methods(http.MethodPost)
	shop.HandleFunc("/checkout", s.beginCheckoutHandler).Methods(http.MethodPost)
	shop.HandleFunc("/checkout/accept", s.acceptLineHandler).Methods(http.MethodPost)
	shop.HandleFunc("/checkout/status", s.checkoutStatusHandler).Methods(http.MethodGet)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireAdmin)
	admin.HandleFunc("/artworks", s.createArtworkHandler).Methods(http.MethodPost)
	admin.HandleFunc("/artworks/{id}", s.updateArtworkHandler).Methods(http.MethodPut)
	admin.HandleFunc("/collections", s.createCollectionHandler).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"})
	})

	var handler http.Handler = r
	handler = s.recoverHandler(handler)
	handler = s.logHandler(handler)
	return handler
}

func (s *Server) readyHandler(w http.ResponseWriter, r *http.Request) {
	results, ok := s.health.Results(r.Context())
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"ready": ok, "checks": results})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
