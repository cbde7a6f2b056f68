package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/nextbyte/storefront/internal/core/domain"
	"github.com/nextbyte/storefront/internal/core/state"
	"github.com/nextbyte/storefront/internal/metrics"
	"github.com/nextbyte/storefront/internal/port"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrCheckoutInFlight = errors.New("checkout already in progress")
)

// CheckoutState is the observable result of a checkout attempt. The four
// variants are sealed; consumers switch exhaustively on the concrete type.
type CheckoutState interface {
	isCheckoutState()
}

type CheckoutIdle struct{}

type CheckoutProcessing struct{}

type CheckoutSuccess struct {
	Order domain.Order
}

type CheckoutFailed struct {
	Message string
}

func (CheckoutIdle) isCheckoutState()       {}
func (CheckoutProcessing) isCheckoutState() {}
func (CheckoutSuccess) isCheckoutState()    {}
func (CheckoutFailed) isCheckoutState()     {}

// CheckoutService turns a priced cart into a persisted order. At most one
// attempt runs per service instance at a time; instances are per session.
type CheckoutService struct {
	repo port.OrderRepository

	mu         sync.Mutex
	processing bool

	state *state.Store[CheckoutState]
}

func NewCheckoutService(repo port.OrderRepository) *CheckoutService {
	return &CheckoutService{
		repo:  repo,
		state: state.NewStore[CheckoutState](CheckoutIdle{}),
	}
}

// PlaceOrder builds an immutable order from the cart snapshot and hands it
// to the order storage collaborator. The observable state moves to
// Processing immediately, then to exactly one terminal state. On failure
// the caller's cart is untouched so the user may retry; only a Success
// should make the caller clear the cart.
func (s *CheckoutService) PlaceOrder(ctx context.Context, cart domain.CartState, userID string) (domain.Order, error) {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return domain.Order{}, ErrCheckoutInFlight
	}
	if len(cart.Items) == 0 {
		s.mu.Unlock()
		return domain.Order{}, ErrEmptyCart
	}
	s.processing = true
	s.mu.Unlock()

	s.state.Set(CheckoutProcessing{})

	order := buildOrder(cart, userID)

	if err := s.repo.SaveOrder(ctx, order); err != nil {
		s.finish(CheckoutFailed{Message: err.Error()})
		metrics.OrdersTotal.WithLabelValues("failed").Inc()
		log.WithFields(log.Fields{
			"order_id": order.ID,
			"user_id":  userID,
		}).WithError(err).Warn("order persistence failed")
		return domain.Order{}, fmt.Errorf("save order: %w", err)
	}

	s.finish(CheckoutSuccess{Order: order})
	metrics.OrdersTotal.WithLabelValues("placed").Inc()
	log.WithFields(log.Fields{
		"order_id": order.ID,
		"user_id":  userID,
		"items":    len(order.Items),
		"total":    order.TotalPrice.String(),
	}).Info("order placed")

	return order, nil
}

// ResetCheckoutState returns the observable state to Idle. Callers must
// invoke it after consuming a terminal state so a replayed observation
// cannot re-trigger side effects such as clearing the cart twice.
func (s *CheckoutService) ResetCheckoutState() {
	s.state.Set(CheckoutIdle{})
}

// Snapshot returns the current checkout state.
func (s *CheckoutService) Snapshot() CheckoutState {
	return s.state.Snapshot()
}

// Subscribe registers a listener for checkout state changes.
func (s *CheckoutService) Subscribe(fn func(CheckoutState)) func() {
	return s.state.Subscribe(fn)
}

func (s *CheckoutService) finish(terminal CheckoutState) {
	s.mu.Lock()
	s.processing = false
	s.mu.Unlock()
	s.state.Set(terminal)
}

func buildOrder(cart domain.CartState, userID string) domain.Order {
	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, li := range cart.Items {
		items = append(items, domain.OrderItem{
			ProductID: li.Product.ID,
			Name:      li.Product.Name,
			Quantity:  li.Quantity,
			UnitPrice: li.Product.UnitPrice,
		})
	}

	return domain.Order{
		ID:         uuid.New().String(),
		UserID:     userID,
		Items:      items,
		TotalPrice: cart.Total,
		Status:     domain.OrderStatusProcessing,
		CreatedAt:  time.Now().UTC(),
	}
}
