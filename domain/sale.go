package domain

import "time"

type SaleOrder struct {
	ID        int64     `db:"sale_order_id" json:"sale_order_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Sale struct {
	ID               int64     `db:"sale_id" json:"sale_id"`
	SaleOrderID      int64     `db:"sale_order_id" json:"sale_order_id"`
	MedicineID       int64     `db:"medicine_id" json:"medicine_id"`
	Quantity         float64   `db:"quantity" json:"quantity"`
	Price            *float64  `db:"price" json:"price"`
	OversoldQuantity float64   `db:"oversold_quantity" json:"oversold_quantity"`
	Timestamp        time.Time `db:"timestamp" json:"timestamp"`
}

// SaleView is a sale line as shown at the register.
type SaleView struct {
	MedicineName string   `json:"medicine_name"`
	Quantity     float64  `json:"quantity"`
	Price        *float64 `json:"price"`
	Opiate       *bool    `json:"opiate,omitempty"`
}

// NewSaleView renders a line; the opiate marker is only ever set to true.
func NewSaleView(s Sale, m Medicine) SaleView {
	v := SaleView{MedicineName: m.DisplayName(), Quantity: s.Quantity, Price: s.Price}
	if m.Opiate {
		opiate := true
		v.Opiate = &opiate
	}
	return v
}
