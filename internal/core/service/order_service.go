package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/nextbyte/storefront/internal/core/domain"
	"github.com/nextbyte/storefront/internal/metrics"
	"github.com/nextbyte/storefront/internal/port"
)

var (
	ErrForbidden      = errors.New("admin role required")
	ErrOrderNotFound  = errors.New("order not found")
	ErrInvalidStatus  = errors.New("unknown order status")
	ErrTerminalStatus = errors.New("order status is terminal")
)

// OrderService drives the post-checkout order lifecycle. Reads go straight
// through the repository; status writes are restricted to admin actors.
type OrderService struct {
	repo port.OrderRepository
}

func NewOrderService(repo port.OrderRepository) *OrderService {
	return &OrderService{repo: repo}
}

// UpdateOrderStatus transitions a persisted order to newStatus and then
// reloads the full order list so callers always display storage truth.
// Orders in a terminal status (delivered, cancelled) cannot move again;
// every other transition is permitted. When the storage update fails the
// reloaded list still reflects the prior status, no optimistic local
// update is applied.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, actor domain.Actor, orderID string, newStatus domain.OrderStatus) ([]domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if !newStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	current, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	if current == nil {
		return nil, ErrOrderNotFound
	}
	if current.Status.Terminal() {
		return nil, ErrTerminalStatus
	}

	updateErr := s.repo.UpdateOrderStatus(ctx, orderID, newStatus)
	if updateErr != nil {
		log.WithFields(log.Fields{
			"order_id": orderID,
			"status":   string(newStatus),
			"actor":    actor.ID,
		}).WithError(updateErr).Warn("order status update failed")
	} else {
		metrics.OrderStatusUpdates.WithLabelValues(string(newStatus)).Inc()
		log.WithFields(log.Fields{
			"order_id": orderID,
			"from":     string(current.Status),
			"to":       string(newStatus),
			"actor":    actor.ID,
		}).Info("order status updated")
	}

	orders, err := s.repo.ListAllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("reload orders: %w", err)
	}
	if updateErr != nil {
		return orders, fmt.Errorf("update order status: %w", updateErr)
	}
	return orders, nil
}

// ListOrders returns the order history of one user.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	orders, err := s.repo.ListOrders(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListAllOrders returns every order; admin actors only.
func (s *OrderService) ListAllOrders(ctx context.Context, actor domain.Actor) ([]domain.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	orders, err := s.repo.ListAllOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all orders: %w", err)
	}
	return orders, nil
}
