package domain

// Medicine is a catalog entry, independent of stock or barcode.
type Medicine struct {
	ID           int64   `db:"medicine_id" json:"medicine_id"`
	NameBG       *string `db:"medicine_name_bg" json:"medicine_name_bg,omitempty"`
	Name         *string `db:"medicine_name" json:"medicine_name,omitempty"`
	Group        *string `db:"medicine_group" json:"group,omitempty"`
	Manufacturer *string `db:"manufacturer" json:"manufacturer,omitempty"`
	SalesMeasure *string `db:"sales_measure" json:"sales_measure,omitempty"`
	ATCCode      *string `db:"atc_code" json:"atc_code,omitempty"`
	Opiate       bool    `db:"opiate" json:"opiate"`
	NHIFCode     *string `db:"nhif_code" json:"nhif_code,omitempty"`
}

// DisplayName prefers the localized name and falls back to the canonical one.
func (m Medicine) DisplayName() string {
	if m.NameBG != nil && *m.NameBG != "" {
		return *m.NameBG
	}
	if m.Name != nil {
		return *m.Name
	}
	return ""
}

type Barcode struct {
	ID         int64   `db:"barcode_id" json:"barcode_id"`
	MedicineID int64   `db:"medicine_id" json:"medicine_id"`
	Barcode1   *string `db:"barcode_1" json:"barcode_1,omitempty"`
	Barcode2   *string `db:"barcode_2" json:"barcode_2,omitempty"`
}
