package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nextbyte/storefront/internal/core/domain"
)

// Mock OrderRepository
type mockOrderRepo struct {
	mu         sync.Mutex
	orders     map[string]domain.Order
	inserted   []string
	failSave   bool
	failUpdate bool
	saveCalls  int
	blockSave  chan struct{}
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{orders: make(map[string]domain.Order)}
}

func (m *mockOrderRepo) SaveOrder(ctx context.Context, order domain.Order) error {
	if m.blockSave != nil {
		<-m.blockSave
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.saveCalls++
	if m.failSave {
		return errors.New("storage unavailable")
	}
	m.orders[order.ID] = order
	m.inserted = append(m.inserted, order.ID)
	return nil
}

func (m *mockOrderRepo) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (m *mockOrderRepo) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failUpdate {
		return errors.New("storage unavailable")
	}
	order, ok := m.orders[orderID]
	if !ok {
		return errors.New("order not persisted")
	}
	order.Status = status
	m.orders[orderID] = order
	return nil
}

func (m *mockOrderRepo) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var orders []domain.Order
	for i := len(m.inserted) - 1; i >= 0; i-- {
		if order := m.orders[m.inserted[i]]; order.UserID == userID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (m *mockOrderRepo) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var orders []domain.Order
	for i := len(m.inserted) - 1; i >= 0; i-- {
		orders = append(orders, m.orders[m.inserted[i]])
	}
	return orders, nil
}

func pricedCart() domain.CartState {
	phone := domain.CartProduct{ID: "phone", Name: "Phone", UnitPrice: decimal.RequireFromString("39999")}
	subtotal := decimal.RequireFromString("79998")
	return domain.CartState{
		Items: []domain.CartLineItem{
			{ID: "phone", Product: phone, Quantity: 2},
		},
		Subtotal:       subtotal,
		DiscountAmount: decimal.Zero,
		Total:          subtotal,
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewCheckoutService(repo)

	order, err := svc.PlaceOrder(context.Background(), pricedCart(), "user-1")
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if order.ID == "" {
		t.Error("expected non-empty order id")
	}
	if order.UserID != "user-1" {
		t.Errorf("expected user-1, got %s", order.UserID)
	}
	if order.Status != domain.OrderStatusProcessing {
		t.Errorf("expected processing status, got %s", order.Status)
	}
	if !order.TotalPrice.Equal(decimal.RequireFromString("79998")) {
		t.Errorf("expected total 79998, got %s", order.TotalPrice)
	}
	if len(order.Items) != 1 || order.Items[0].ProductID != "phone" || order.Items[0].Quantity != 2 {
		t.Errorf("unexpected order items: %v", order.Items)
	}
	if repo.saveCalls != 1 {
		t.Errorf("expected 1 save call, got %d", repo.saveCalls)
	}
}

func TestPlaceOrder_EmptyCartRejected(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewCheckoutService(repo)

	_, err := svc.PlaceOrder(context.Background(), domain.EmptyCartState(), "user-1")
	if !errors.Is(err, ErrEmptyCart) {
		t.Errorf("expected ErrEmptyCart, got: %v", err)
	}
	if repo.saveCalls != 0 {
		t.Errorf("expected no save call, got %d", repo.saveCalls)
	}
	if _, ok := svc.Snapshot().(CheckoutIdle); !ok {
		t.Errorf("expected state to stay Idle, got %T", svc.Snapshot())
	}
}

func TestPlaceOrder_PersistenceFailure(t *testing.T) {
	repo := newMockOrderRepo()
	repo.failSave = true
	svc := NewCheckoutService(repo)

	_, err := svc.PlaceOrder(context.Background(), pricedCart(), "user-1")
	if err == nil {
		t.Fatal("expected error when storage fails")
	}

	failed, ok := svc.Snapshot().(CheckoutFailed)
	if !ok {
		t.Fatalf("expected CheckoutFailed, got %T", svc.Snapshot())
	}
	if failed.Message == "" {
		t.Error("expected a human-readable failure message")
	}

	// The user retries once storage recovers; this is a new attempt.
	repo.failSave = false
	if _, err := svc.PlaceOrder(context.Background(), pricedCart(), "user-1"); err != nil {
		t.Errorf("retry after failure should succeed, got: %v", err)
	}
}

func TestPlaceOrder_SerializedPerSession(t *testing.T) {
	repo := newMockOrderRepo()
	repo.blockSave = make(chan struct{})
	svc := NewCheckoutService(repo)

	done := make(chan error, 1)
	go func() {
		_, err := svc.PlaceOrder(context.Background(), pricedCart(), "user-1")
		done <- err
	}()

	// Wait until the first attempt is processing.
	for {
		if _, ok := svc.Snapshot().(CheckoutProcessing); ok {
			break
		}
		time.Sleep(time.Millisecond)
	}

	_, err := svc.PlaceOrder(context.Background(), pricedCart(), "user-1")
	if !errors.Is(err, ErrCheckoutInFlight) {
		t.Errorf("expected ErrCheckoutInFlight, got: %v", err)
	}

	close(repo.blockSave)
	if err := <-done; err != nil {
		t.Errorf("first attempt should succeed, got: %v", err)
	}
	if repo.saveCalls != 1 {
		t.Errorf("expected 1 save call, got %d", repo.saveCalls)
	}
}

func TestPlaceOrder_SuccessEmittedExactlyOnce(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewCheckoutService(repo)

	cartClears := 0
	unsubscribe := svc.Subscribe(func(st CheckoutState) {
		if _, ok := st.(CheckoutSuccess); ok {
			cartClears++
		}
	})
	defer unsubscribe()

	if _, err := svc.PlaceOrder(context.Background(), pricedCart(), "user-1"); err != nil {
		t.Fatalf("place order failed: %v", err)
	}

	svc.ResetCheckoutState()

	if cartClears != 1 {
		t.Errorf("expected exactly one Success emission, got %d", cartClears)
	}
	if _, ok := svc.Snapshot().(CheckoutIdle); !ok {
		t.Errorf("expected Idle after reset, got %T", svc.Snapshot())
	}
}

func TestPlaceOrder_StateSequence(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewCheckoutService(repo)

	var sequence []string
	unsubscribe := svc.Subscribe(func(st CheckoutState) {
		switch st.(type) {
		case CheckoutIdle:
			sequence = append(sequence, "idle")
		case CheckoutProcessing:
			sequence = append(sequence, "processing")
		case CheckoutSuccess:
			sequence = append(sequence, "success")
		case CheckoutFailed:
			sequence = append(sequence, "failed")
		}
	})
	defer unsubscribe()

	if _, err := svc.PlaceOrder(context.Background(), pricedCart(), "user-1"); err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	svc.ResetCheckoutState()

	want := []string{"processing", "success", "idle"}
	if len(sequence) != len(want) {
		t.Fatalf("expected %v, got %v", want, sequence)
	}
	for i := range want {
		if sequence[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, sequence)
		}
	}
}

func TestPlaceOrder_ItemsFrozen(t *testing.T) {
	repo := newMockOrderRepo()
	svc := NewCheckoutService(repo)

	cart := pricedCart()
	order, err := svc.PlaceOrder(context.Background(), cart, "user-1")
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}

	// Later catalog or cart changes must not reach the persisted snapshot.
	cart.Items[0].Product.Name = "Renamed"
	cart.Items[0].Quantity = 99

	stored, _ := repo.GetOrder(context.Background(), order.ID)
	if stored.Items[0].Name != "Phone" || stored.Items[0].Quantity != 2 {
		t.Errorf("order items not frozen: %v", stored.Items)
	}
}
