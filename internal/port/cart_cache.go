package port

import (
	"context"

	"github.com/nextbyte/storefront/internal/core/domain"
)

type CartCache interface {
	// SaveCart stores a cart snapshot for the session
	SaveCart(ctx context.Context, sessionID string, state domain.CartState) error

	// LoadCart retrieves the stored snapshot, nil when the session has none
	LoadCart(ctx context.Context, sessionID string) (*domain.CartState, error)

	// DeleteCart removes the stored snapshot
	DeleteCart(ctx context.Context, sessionID string) error

	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)
}
