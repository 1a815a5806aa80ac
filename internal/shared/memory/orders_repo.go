package memory

import (
	"context"
	"sync"

	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
	"git.platform.alem.school/amibragim/quickserve/internal/ports"
)

// OrdersRepo is an in-memory OrderRepository for tests and single-process
// runs without a database. Orders are deep-copied on the way in and out so
// callers never share mutable state with the store.
type OrdersRepo struct {
	mu      sync.RWMutex
	byID    map[string]*orders.Order
	history map[string][]orders.StatusLog
}

var _ ports.OrderRepository = (*OrdersRepo)(nil)

// NewOrdersRepo creates an empty in-memory store.
func NewOrdersRepo() *OrdersRepo {
	return &OrdersRepo{
		byID:    make(map[string]*orders.Order),
		history: make(map[string][]orders.StatusLog),
	}
}

// Save upserts the order and appends a history row when the status changed.
func (repo *OrdersRepo) Save(_ context.Context, order *orders.Order) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	prev, existed := repo.byID[order.ID]
	if !existed || prev.Status != order.Status {
		repo.history[order.ID] = append(repo.history[order.ID], orders.StatusLog{
			OrderID:   order.ID,
			Status:    order.Status,
			ChangedAt: order.UpdatedAt,
		})
	}
	repo.byID[order.ID] = clone(order)
	return nil
}

// FindByID returns a copy of the stored order or *orders.NotFoundError.
func (repo *OrdersRepo) FindByID(_ context.Context, id string) (*orders.Order, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	order, ok := repo.byID[id]
	if !ok {
		return nil, &orders.NotFoundError{OrderID: id}
	}
	return clone(order), nil
}

// ListHistory returns the recorded status transitions in order.
func (repo *OrdersRepo) ListHistory(_ context.Context, id string) ([]orders.StatusLog, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if _, ok := repo.byID[id]; !ok {
		return nil, &orders.NotFoundError{OrderID: id}
	}
	out := make([]orders.StatusLog, len(repo.history[id]))
	copy(out, repo.history[id])
	return out, nil
}

// clone copies the order and its owned slices/pointers.
func clone(order *orders.Order) *orders.Order {
	cp := *order
	cp.Items = make([]orders.OrderItem, len(order.Items))
	copy(cp.Items, order.Items)
	if order.Discount != nil {
		d := *order.Discount
		cp.Discount = &d
	}
	if order.CompletedAt != nil {
		t := *order.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
