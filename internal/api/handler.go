package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"medstock/m/domain"
	"medstock/m/internal/purchase"
	"medstock/m/internal/sale"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	purchases *purchase.Service
	sales     *sale.Service
	metrics   http.Handler
	log       *zap.Logger
}

// New constructs a Handler. A nil metrics handler leaves /metrics unrouted.
func New(purchases *purchase.Service, sales *sale.Service, metrics http.Handler, log *zap.Logger) *Handler {
	return &Handler{purchases: purchases, sales: sales, metrics: metrics, log: log.Named("http")}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)
	r.Get("/home", h.home)
	r.Get("/health", h.health)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Route("/purchase", func(r chi.Router) {
		r.Post("/", h.recordPurchase)
		r.Post("/import", h.importPurchase)
	})
	r.Post("/add_barcode", h.addBarcode)

	r.Route("/sale_order", func(r chi.Router) {
		r.Post("/", h.createSaleOrder)
		r.Route("/{id:[0-9]+}", func(r chi.Router) {
			r.Get("/", h.getSaleOrder)
			r.Post("/sale", h.addSale)
			r.Put("/sale/{line:[0-9]+}", h.amendSale)
			r.Delete("/sale/{line:[0-9]+}", h.cancelSale)
		})
	})

	return r
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "medstock back office"})
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "welcome home"})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// fail maps service errors onto the HTTP error contract.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, map[string]any{"errors": verr.Fields})
	case errors.Is(err, domain.ErrNotFound):
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, domain.ErrOrderNotFound):
		respondError(w, http.StatusBadRequest, domain.ErrOrderNotFound.Error())
	case errors.Is(err, domain.ErrAlreadyBound):
		respondError(w, http.StatusBadRequest, domain.ErrAlreadyBound.Error())
	case errors.Is(err, domain.ErrInvalidToken):
		respondError(w, http.StatusBadRequest, domain.ErrInvalidToken.Error())
	case errors.Is(err, domain.ErrInsufficientInventory):
		respondError(w, http.StatusBadRequest, domain.ErrInsufficientInventory.Error())
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// Helpers
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil
}

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return &domain.ValidationError{Fields: map[string]string{"body": err.Error()}}
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
