package port

import (
	"context"
	"errors"

	"github.com/nextbyte/storefront/internal/core/domain"
)

// ErrInvalidCredentials is returned by AuthClient implementations when the
// backend rejects the email/password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

type CatalogClient interface {
	// FetchProducts returns the current priced catalog
	FetchProducts(ctx context.Context) ([]domain.Product, error)
}

type AuthClient interface {
	// Authenticate verifies credentials and returns the opaque user id
	Authenticate(ctx context.Context, email, password string) (string, error)
}
