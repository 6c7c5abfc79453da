package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func str(s string) *string { return &s }

func TestMedicine_DisplayName(t *testing.T) {
	assert.Equal(t, "Аспирин", Medicine{NameBG: str("Аспирин"), Name: str("Aspirin")}.DisplayName())
	assert.Equal(t, "Aspirin", Medicine{NameBG: str(""), Name: str("Aspirin")}.DisplayName())
	assert.Equal(t, "Aspirin", Medicine{Name: str("Aspirin")}.DisplayName())
	assert.Equal(t, "", Medicine{}.DisplayName())
}

func TestNewSaleView(t *testing.T) {
	price := 2.5
	line := Sale{Quantity: 2, Price: &price}

	plain := NewSaleView(line, Medicine{Name: str("Aspirin")})
	assert.Nil(t, plain.Opiate)
	data, err := json.Marshal(plain)
	require.NoError(t, err)
	assert.JSONEq(t, `{"medicine_name":"Aspirin","quantity":2,"price":2.5}`, string(data))

	opiate := NewSaleView(line, Medicine{Name: str("Morphine"), Opiate: true})
	data, err = json.Marshal(opiate)
	require.NoError(t, err)
	assert.JSONEq(t, `{"medicine_name":"Morphine","quantity":2,"price":2.5,"opiate":true}`, string(data))

	unpriced := NewSaleView(Sale{Quantity: 1}, Medicine{Name: str("Unbarcoded item")})
	data, err = json.Marshal(unpriced)
	require.NoError(t, err)
	assert.JSONEq(t, `{"medicine_name":"Unbarcoded item","quantity":1,"price":null}`, string(data))
}

func TestPendingPurchase_Complete(t *testing.T) {
	q, p := 1.0, 2.0
	full := PendingPurchase{
		MedicineID:   1,
		Quantity:     &q,
		Price:        &p,
		ExpiryDate:   str("2027-01-01"),
		BatchNumber:  str("B1"),
		SupplierCode: str("S1"),
	}
	assert.True(t, full.Complete())

	partial := full
	partial.BatchNumber = nil
	assert.False(t, partial.Complete())
	assert.False(t, PendingPurchase{MedicineID: 1}.Complete())
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"quantity": "is required", "barcode": "is required"}}
	assert.Equal(t, "validation failed: barcode: is required; quantity: is required", err.Error())
}
