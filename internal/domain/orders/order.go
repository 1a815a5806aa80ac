package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

// Channel is the service mode an order originated from.
type Channel string

const (
	ChannelDineIn    Channel = "dine_in"
	ChannelTakeout   Channel = "takeout"
	ChannelDriveThru Channel = "drive_thru"
	ChannelDelivery  Channel = "delivery"
)

// OrderItem represents a single line item in an order.
type OrderItem struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal // per-unit in dollars, two decimal places
}

// ChannelDetails carries the channel-specific part of an order (table for
// dine-in, lane for drive-thru, address for delivery). Each variant knows how
// to validate itself and what preparation time its channel expects.
type ChannelDetails interface {
	Channel() Channel
	Validate() error
	DefaultPrepTime() time.Duration
}

// Order represents a customer's order. Totals are derived: adapters and
// callers never write Subtotal, TaxAmount or Total directly.
type Order struct {
	ID          string // UUID, assigned at creation
	Channel     Channel
	CustomerID  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	Items       []OrderItem
	Subtotal    decimal.Decimal
	Discount    *DiscountResult // nil until an evaluation ran
	TaxAmount   decimal.Decimal
	Total       decimal.Decimal
	Status      Status
	PrepTime    time.Duration
	Details     ChannelDetails
}

// RecomputeTotals rederives subtotal, tax and total. The invariant is
// total = subtotal - discount + tax; the discount never exceeds the subtotal.
func (order *Order) RecomputeTotals() {
	sum := decimal.Zero
	for _, it := range order.Items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	order.Subtotal = sum.Round(2)

	disc := decimal.Zero
	if order.Discount != nil && order.Discount.Applicable {
		disc = order.Discount.Amount
		if disc.GreaterThan(order.Subtotal) {
			disc = order.Subtotal
			order.Discount.Amount = disc
		}
	}

	net := order.Subtotal.Sub(disc)
	order.TaxAmount = net.Mul(DefaultTaxRate).Round(2)
	order.Total = net.Add(order.TaxAmount)
}

// AttachDiscount replaces any previously attached discount and recomputes
// totals. Re-evaluation replaces, never stacks.
func (order *Order) AttachDiscount(result DiscountResult) {
	order.Discount = &result
	order.RecomputeTotals()
}

// DiscountAmount returns the applied discount, or zero when none applies.
func (order *Order) DiscountAmount() decimal.Decimal {
	if order.Discount == nil || !order.Discount.Applicable {
		return decimal.Zero
	}
	return order.Discount.Amount
}

// TransitionTo moves the order to target if the lifecycle allows it. On
// failure the order is left untouched and an *InvalidTransitionError is
// returned. The caller owns event emission for the successful change.
func (order *Order) TransitionTo(target Status, now time.Time) error {
	if !CanTransition(order.Status, target) {
		return &InvalidTransitionError{OrderID: order.ID, From: order.Status, To: target}
	}

	order.Status = target
	order.UpdatedAt = now
	if target.Terminal() {
		t := now
		order.CompletedAt = &t
	}
	return nil
}
