// Package pending parks purchase lines whose medicine has no barcode yet.
//
// Records are keyed by an opaque token handed to the receiving desk. Take
// consumes the record, so a token can be redeemed once.
package pending

import (
	"context"

	"github.com/google/uuid"

	"medstock/m/domain"
)

// Store parks purchase records behind tokens. Take consumes the token.
type Store interface {
	Put(ctx context.Context, token string, rec domain.PendingPurchase) error
	// Take returns and removes the record. Unknown or expired tokens yield
	// domain.ErrInvalidToken.
	Take(ctx context.Context, token string) (*domain.PendingPurchase, error)
}

// NewToken returns a fresh opaque token.
func NewToken() string {
	return uuid.NewString()
}
