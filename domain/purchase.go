package domain

import "time"

type Purchase struct {
	ID                 int64     `db:"purchase_id" json:"purchase_id"`
	MedicineID         int64     `db:"medicine_id" json:"medicine_id"`
	Quantity           float64   `db:"quantity" json:"quantity"`
	Price              float64   `db:"price" json:"price"`
	Timestamp          time.Time `db:"timestamp" json:"timestamp"`
	ExpiryDate         *string   `db:"expiry_date" json:"expiry_date,omitempty"`
	BatchNumber        *string   `db:"batch_number" json:"batch_number,omitempty"`
	Verified           bool      `db:"verified" json:"verified"`
	Reported           bool      `db:"reported" json:"reported"`
	RegulatoryReported bool      `db:"regulatory_reported" json:"regulatory_reported"`
	SupplierCode       *string   `db:"supplier_code" json:"supplier_code,omitempty"`
	PurchaseOrder      *string   `db:"purchase_order" json:"purchase_order,omitempty"`
}

// PendingPurchase is a purchase line parked until its medicine gets a barcode.
// Pointer fields are optional; only a record with all of them set is booked on attach.
type PendingPurchase struct {
	MedicineID    int64    `json:"medicine_id"`
	Quantity      *float64 `json:"quantity,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	ExpiryDate    *string  `json:"expiry_date,omitempty"`
	BatchNumber   *string  `json:"batch_number,omitempty"`
	SupplierCode  *string  `json:"supplier_code,omitempty"`
	PurchaseOrder *string  `json:"purchase_order,omitempty"`
}

// Complete reports whether the record carries a full purchase line.
func (p PendingPurchase) Complete() bool {
	return p.Quantity != nil && p.Price != nil && p.ExpiryDate != nil &&
		p.BatchNumber != nil && p.SupplierCode != nil
}
