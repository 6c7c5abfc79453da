package api

import (
	"net/http"

	"medstock/m/domain"
	"medstock/m/internal/purchase"
)

// Purchase handlers

type purchaseRequest struct {
	Medicines []purchase.Line `json:"medicines" validate:"required,dive"`
}

type addBarcodeRequest struct {
	Token   string `json:"token" validate:"required"`
	Barcode string `json:"barcode" validate:"required"`
}

func (h *Handler) recordPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	h.processPurchase(w, r, req)
}

// importPurchase accepts a supplier delivery note as an XLSX upload.
func (h *Handler) importPurchase(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.fail(w, r, &domain.ValidationError{Fields: map[string]string{"file": "multipart upload expected"}})
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, &domain.ValidationError{Fields: map[string]string{"file": "is required"}})
		return
	}
	defer file.Close()

	lines, err := purchase.ParseWorkbook(file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.processPurchase(w, r, purchaseRequest{Medicines: lines})
}

func (h *Handler) processPurchase(w http.ResponseWriter, r *http.Request, req purchaseRequest) {
	if err := validateStruct(req); err != nil {
		h.fail(w, r, err)
		return
	}
	results, err := h.purchases.Process(r.Context(), req.Medicines)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (h *Handler) addBarcode(w http.ResponseWriter, r *http.Request) {
	var req addBarcodeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.purchases.AttachBarcode(r.Context(), req.Token, req.Barcode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	msg := "barcode added"
	if res.Booked {
		msg = "barcode added and purchase recorded"
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": msg})
}
