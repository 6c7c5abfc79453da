package domain

type InventoryLevel struct {
	ID         int64   `db:"inventory_id" json:"inventory_id"`
	MedicineID int64   `db:"medicine_id" json:"medicine_id"`
	Price      float64 `db:"price" json:"price"`
	Quantity   float64 `db:"quantity" json:"quantity"`
	ExpiryDate *string `db:"expiry_date" json:"expiry_date,omitempty"`
}
