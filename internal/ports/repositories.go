package ports

import (
	"context"

	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
)

// OrderRepository is the sole durable store for orders; the orchestrator
// never bypasses it. FindByID returns *orders.NotFoundError for unknown ids.
type OrderRepository interface {
	Save(ctx context.Context, o *orders.Order) error
	FindByID(ctx context.Context, id string) (*orders.Order, error)
	ListHistory(ctx context.Context, id string) ([]orders.StatusLog, error)
}
