package api

import (
	"net/http"
)

// Sale handlers

type saleRequest struct {
	Barcode  string   `json:"barcode" validate:"required"`
	Quantity *float64 `json:"quantity" validate:"omitempty,gt=0"`
}

type amendSaleRequest struct {
	Quantity *float64 `json:"quantity" validate:"omitempty,gte=0"`
	Price    *float64 `json:"price" validate:"omitempty,gte=0"`
}

func (h *Handler) createSaleOrder(w http.ResponseWriter, r *http.Request) {
	id, err := h.sales.CreateOrder(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"sale_order_id": id})
}

func (h *Handler) getSaleOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	order, err := h.sales.GetOrder(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *Handler) addSale(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r, "id")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		h.fail(w, r, err)
		return
	}
	quantity := 1.0
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	view, err := h.sales.AddLine(r.Context(), orderID, req.Barcode, quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (h *Handler) amendSale(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r, "id")
	lineID, lineOK := pathID(r, "line")
	if !ok || !lineOK {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var req amendSaleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.sales.AmendLine(r.Context(), orderID, lineID, req.Quantity, req.Price); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) cancelSale(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r, "id")
	lineID, lineOK := pathID(r, "line")
	if !ok || !lineOK {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err := h.sales.CancelLine(r.Context(), orderID, lineID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
