package port

import (
	"context"

	"github.com/nextbyte/storefront/internal/core/domain"
)

type OrderRepository interface {
	// SaveOrder persists a newly built order together with its line items
	SaveOrder(ctx context.Context, order domain.Order) error

	// GetOrder retrieves an order by id, nil when no order matches
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// UpdateOrderStatus sets the status of a persisted order
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error

	// ListOrders returns the orders of one user, newest first
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)

	// ListAllOrders returns every order, newest first
	ListAllOrders(ctx context.Context) ([]domain.Order, error)
}
