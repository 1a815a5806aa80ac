package orchestrator

import (
	"context"
	"fmt"
	"time"

	"git.platform.alem.school/amibragim/quickserve/internal/app/discount"
	"git.platform.alem.school/amibragim/quickserve/internal/app/factory"
	"git.platform.alem.school/amibragim/quickserve/internal/app/notify"
	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
	"git.platform.alem.school/amibragim/quickserve/internal/ports"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/logger"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/metrics"
)

// Orchestrator coordinates creation, pricing and notification for each
// order. It exclusively owns status transitions; the engine only proposes
// discounts and the hub only observes. All mutating operations on one order
// id are serialized through a per-order lock.
type Orchestrator struct {
	registry  *factory.Registry
	engine    *discount.Engine       // optional; nil means no pricing step
	hub       *notify.Hub            // optional; nil means no notifications
	customers ports.CustomerProvider // optional loyalty lookup
	repo      ports.OrderRepository
	logger    *logger.Logger
	locks     *keyedLocks
	clock     func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithDiscountEngine attaches a pricing step to order creation.
func WithDiscountEngine(engine *discount.Engine) Option {
	return func(orc *Orchestrator) { orc.engine = engine }
}

// WithHub attaches the notification hub events are published to.
func WithHub(hub *notify.Hub) Option {
	return func(orc *Orchestrator) { orc.hub = hub }
}

// WithCustomerProvider attaches the loyalty context lookup used during
// discount evaluation.
func WithCustomerProvider(provider ports.CustomerProvider) Option {
	return func(orc *Orchestrator) { orc.customers = provider }
}

// withClock overrides the transition clock (tests only).
func withClock(clock func() time.Time) Option {
	return func(orc *Orchestrator) { orc.clock = clock }
}

// New creates an Orchestrator over the given registry and repository.
func New(registry *factory.Registry, repo ports.OrderRepository, log *logger.Logger, opts ...Option) *Orchestrator {
	orc := &Orchestrator{
		registry: registry,
		repo:     repo,
		logger:   log,
		locks:    newKeyedLocks(),
		clock:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(orc)
	}
	return orc
}

// CreateOrder builds an order through the registry, applies the best
// available discount (best effort: a missing engine or empty policy set is
// not an error), persists it and publishes ORDER_CREATED.
func (orc *Orchestrator) CreateOrder(ctx context.Context, cmd ports.CreateOrderCommand) (*orders.Order, error) {
	order, err := orc.registry.Create(cmd)
	if err != nil {
		return nil, err
	}

	release := orc.locks.acquire(order.ID)
	defer release()

	if orc.engine != nil {
		result := orc.engine.Evaluate(ctx, order, orc.customerContext(ctx, cmd.CustomerID))
		order.AttachDiscount(result)
		if result.Applicable {
			metrics.DiscountsAppliedTotal.WithLabelValues(result.Policy).Inc()
		}
	}

	if err := orc.repo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save new order: %w", err)
	}

	metrics.OrdersCreatedTotal.WithLabelValues(string(order.Channel)).Inc()
	orc.logger.Info(ctx, "order_created",
		fmt.Sprintf("Order %s created via %s", order.ID, order.Channel),
		map[string]any{
			"order_id": order.ID,
			"channel":  order.Channel,
			"subtotal": order.Subtotal.StringFixed(2),
			"discount": order.DiscountAmount().StringFixed(2),
			"total":    order.Total.StringFixed(2),
		})

	orc.publish(ctx, order, orc.creationPayload(order))

	return order, nil
}

// Advance loads the order and moves it to target. Exactly one event for the
// transition is published before Advance returns. "Order not found" and
// "illegal transition" surface as distinct error types.
func (orc *Orchestrator) Advance(ctx context.Context, orderID string, target orders.Status) (*orders.Order, error) {
	return orc.advance(ctx, orderID, target, nil)
}

// Cancel moves the order to cancelled, carrying the reason in the event
// payload. Cancelling a terminal order fails with *InvalidTransitionError.
func (orc *Orchestrator) Cancel(ctx context.Context, orderID, reason string) (*orders.Order, error) {
	payload := map[string]any{}
	if reason != "" {
		payload["reason"] = reason
	}
	return orc.advance(ctx, orderID, orders.StatusCancelled, payload)
}

// Confirm advances the order to confirmed and then runs the supplied payment
// processor, if any. Payment and confirmation are decoupled: a payment error
// is surfaced but the confirmation stands.
func (orc *Orchestrator) Confirm(ctx context.Context, orderID string, payment ports.PaymentProcessor) (*orders.Order, error) {
	order, err := orc.advance(ctx, orderID, orders.StatusConfirmed, nil)
	if err != nil {
		return nil, err
	}

	if payment != nil {
		if err := payment.ProcessPayment(ctx, order); err != nil {
			orc.logger.Error(ctx, "payment_failed",
				fmt.Sprintf("Payment for order %s failed after confirmation", orderID), err)
			return order, fmt.Errorf("payment for order %s: %w", orderID, err)
		}
	}
	return order, nil
}

// advance is the shared transition path: per-order lock, load, transition,
// save, publish.
func (orc *Orchestrator) advance(ctx context.Context, orderID string, target orders.Status, payload map[string]any) (*orders.Order, error) {
	release := orc.locks.acquire(orderID)
	defer release()

	order, err := orc.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.TransitionTo(target, orc.clock()); err != nil {
		return nil, err
	}

	if err := orc.repo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("save order %s: %w", orderID, err)
	}

	metrics.OrderTransitionsTotal.WithLabelValues(string(target)).Inc()
	orc.logger.Info(ctx, "order_transitioned",
		fmt.Sprintf("Order %s is now %s", orderID, target),
		map[string]any{"order_id": orderID, "status": target})

	orc.publish(ctx, order, payload)

	return order, nil
}

// publish emits the event for the order's current status. Hub failures stay
// inside the hub; a transition is never rolled back for a notification sink.
func (orc *Orchestrator) publish(ctx context.Context, order *orders.Order, payload map[string]any) {
	if orc.hub == nil {
		return
	}
	orc.hub.Publish(ctx, orders.NewEvent(order, orc.clock(), payload))
}

// customerContext resolves loyalty context best-effort; a failing provider
// degrades to an anonymous context rather than blocking creation.
func (orc *Orchestrator) customerContext(ctx context.Context, customerID string) ports.CustomerContext {
	fallback := ports.CustomerContext{CustomerID: customerID, Now: orc.clock()}
	if orc.customers == nil || customerID == "" {
		return fallback
	}

	cc, err := orc.customers.CustomerContext(ctx, customerID)
	if err != nil {
		orc.logger.Error(ctx, "customer_lookup_failed",
			fmt.Sprintf("Loyalty lookup for customer %s failed; evaluating without context", customerID), err)
		return fallback
	}
	if cc.Now.IsZero() {
		cc.Now = orc.clock()
	}
	return cc
}

// creationPayload enriches ORDER_CREATED with the channel-specific details a
// display needs.
func (orc *Orchestrator) creationPayload(order *orders.Order) map[string]any {
	payload := map[string]any{
		"subtotal":          order.Subtotal.StringFixed(2),
		"prep_time_minutes": int(order.PrepTime.Minutes()),
	}
	if order.Discount != nil && order.Discount.Applicable {
		payload["discount_policy"] = order.Discount.Policy
		payload["discount_amount"] = order.Discount.Amount.StringFixed(2)
	}

	switch details := order.Details.(type) {
	case orders.DineInDetails:
		payload["table_number"] = details.TableNumber
		payload["party_size"] = details.PartySize
	case orders.DriveThruDetails:
		payload["lane"] = details.Lane
		payload["vehicle_type"] = details.VehicleType
	case orders.DeliveryDetails:
		payload["delivery_address"] = details.Address
	case orders.TakeoutDetails:
		if details.PickupName != "" {
			payload["pickup_name"] = details.PickupName
		}
	}
	return payload
}
