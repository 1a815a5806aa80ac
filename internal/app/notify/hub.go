package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
	"git.platform.alem.school/amibragim/quickserve/internal/ports"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/logger"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/metrics"
)

// DefaultDeliveryTimeout bounds a single subscriber delivery. A hanging
// subscriber must not stall order processing.
const DefaultDeliveryTimeout = 2 * time.Second

// DeliveryError reports one subscriber's failed (or timed out) delivery.
// It is logged and counted, never propagated to the publisher: the order
// transition already happened and is not rolled back for a misbehaving sink.
type DeliveryError struct {
	Subscriber string
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("subscriber %q delivery failed: %v", e.Subscriber, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Hub fans order events out to subscribers in subscription order,
// synchronously from the publisher's point of view. Identity-based set
// semantics: subscribing the same observer twice delivers once.
type Hub struct {
	mu      sync.RWMutex
	subs    []ports.Subscriber
	seen    map[ports.Subscriber]struct{}
	timeout time.Duration
	logger  *logger.Logger
}

// NewHub creates a hub with the given per-subscriber delivery timeout;
// zero or negative means DefaultDeliveryTimeout.
func NewHub(timeout time.Duration, log *logger.Logger) *Hub {
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	return &Hub{
		seen:    make(map[ports.Subscriber]struct{}),
		timeout: timeout,
		logger:  log,
	}
}

// Subscribe adds a subscriber; already-subscribed observers are kept once.
func (hub *Hub) Subscribe(sub ports.Subscriber) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if _, dup := hub.seen[sub]; dup {
		return
	}
	hub.seen[sub] = struct{}{}
	hub.subs = append(hub.subs, sub)
}

// Unsubscribe removes a subscriber; removing a non-member is a no-op. After
// return the observer receives no further events.
func (hub *Hub) Unsubscribe(sub ports.Subscriber) {
	hub.mu.Lock()
	defer hub.mu.Unlock()

	if _, ok := hub.seen[sub]; !ok {
		return
	}
	delete(hub.seen, sub)
	for i, s := range hub.subs {
		if s == sub {
			hub.subs = append(hub.subs[:i], hub.subs[i+1:]...)
			break
		}
	}
}

// Publish delivers the event to every active subscriber in subscription
// order. Failures and timeouts are isolated per subscriber; Publish itself
// never fails.
func (hub *Hub) Publish(ctx context.Context, ev orders.Event) {
	hub.mu.RLock()
	subs := make([]ports.Subscriber, len(hub.subs))
	copy(subs, hub.subs)
	hub.mu.RUnlock()

	for _, sub := range subs {
		if !sub.Active() {
			continue
		}
		if err := hub.deliver(ctx, sub, ev); err != nil {
			metrics.NotificationFailuresTotal.WithLabelValues(sub.Name()).Inc()
			if hub.logger != nil {
				hub.logger.Error(ctx, "notification_delivery_failed",
					fmt.Sprintf("Event %s for order %s not delivered to %q", ev.Kind, ev.OrderID, sub.Name()),
					&DeliveryError{Subscriber: sub.Name(), Err: err})
			}
		}
	}
}

// deliver runs one subscriber under the delivery timeout, converting panics
// to errors. The goroutine of a hung subscriber is abandoned once the
// deadline passes; its context is cancelled so cooperative subscribers can
// bail out.
func (hub *Hub) deliver(ctx context.Context, sub ports.Subscriber, ev orders.Event) error {
	subCtx, cancel := context.WithTimeout(ctx, hub.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- sub.Notify(subCtx, ev)
	}()

	select {
	case err := <-done:
		return err
	case <-subCtx.Done():
		return fmt.Errorf("delivery timed out after %s", hub.timeout)
	}
}
