package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
)

// CreateOrderCommand is the raw creation request handed to the registry.
// Channel-specific fields are only consulted by the matching constructor.
type CreateOrderCommand struct {
	Channel    orders.Channel
	CustomerID string
	Items      []ItemInput

	PartySize       int    // dine_in
	VehicleType     string // drive_thru; defaults to "car" when empty
	DeliveryAddress string // delivery
	PickupName      string // takeout
}

// ItemInput is one requested line item.
type ItemInput struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// CustomerContext is the read-only loyalty/time context policies evaluate
// against. Now is the evaluation clock so time-based policies stay pure.
type CustomerContext struct {
	CustomerID  string
	LoyaltyTier string
	Now         time.Time
}

// DiscountPolicy is a pure evaluation rule producing a proposed discount.
// Policies must not mutate the order; a misbehaving policy is isolated by
// the engine and its result discarded.
type DiscountPolicy interface {
	Name() string
	Evaluate(ctx context.Context, o *orders.Order, customer CustomerContext) (orders.DiscountResult, error)
}

// Subscriber receives order status events from the hub. Inactive subscribers
// are skipped but stay registered until explicitly unsubscribed.
type Subscriber interface {
	Name() string
	Active() bool
	Notify(ctx context.Context, ev orders.Event) error
}

// PaymentProcessor is implemented by each payment-method variant. Invoked
// after an order reaches confirmed; confirmation never depends on it.
type PaymentProcessor interface {
	ProcessPayment(ctx context.Context, o *orders.Order) error
}

// CustomerProvider supplies loyalty context to the discount engine.
type CustomerProvider interface {
	CustomerContext(ctx context.Context, customerID string) (CustomerContext, error)
}
