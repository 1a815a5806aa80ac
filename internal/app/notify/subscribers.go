package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/metrics"
)

// KitchenDisplay mirrors the preparation queue a kitchen screen would show:
// orders enter on creation and leave when ready, completed or cancelled.
type KitchenDisplay struct {
	Station string

	active atomic.Bool

	mu    sync.Mutex
	queue []string // order ids in arrival order
}

// NewKitchenDisplay creates an active display for the named station.
func NewKitchenDisplay(station string) *KitchenDisplay {
	d := &KitchenDisplay{Station: station}
	d.active.Store(true)
	return d
}

func (d *KitchenDisplay) Name() string { return "kitchen-display:" + d.Station }

func (d *KitchenDisplay) Active() bool { return d.active.Load() }

// SetActive marks the display (in)active without unsubscribing it, e.g. a
// screen that lost its connection.
func (d *KitchenDisplay) SetActive(active bool) { d.active.Store(active) }

func (d *KitchenDisplay) Notify(_ context.Context, ev orders.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch ev.Kind {
	case orders.EventOrderCreated, orders.EventOrderConfirmed:
		d.enqueue(ev.OrderID)
	case orders.EventOrderReady, orders.EventOrderCompleted, orders.EventOrderCancelled:
		d.dequeue(ev.OrderID)
	}
	return nil
}

// Queue returns a snapshot of the order ids currently on the display.
func (d *KitchenDisplay) Queue() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.queue))
	copy(out, d.queue)
	return out
}

func (d *KitchenDisplay) enqueue(id string) {
	for _, q := range d.queue {
		if q == id {
			return
		}
	}
	d.queue = append(d.queue, id)
}

func (d *KitchenDisplay) dequeue(id string) {
	for i, q := range d.queue {
		if q == id {
			d.queue = append(d.queue[:i], d.queue[i+1:]...)
			return
		}
	}
}

// CustomerNotifier renders one human-readable line per event, the shape a
// push/SMS gateway would send.
type CustomerNotifier struct {
	mu     sync.Mutex
	out    io.Writer
	active atomic.Bool
}

// NewCustomerNotifier creates an active notifier writing to out.
func NewCustomerNotifier(out io.Writer) *CustomerNotifier {
	n := &CustomerNotifier{out: out}
	n.active.Store(true)
	return n
}

func (n *CustomerNotifier) Name() string { return "customer-notifier" }

func (n *CustomerNotifier) Active() bool { return n.active.Load() }

// SetActive marks the notifier (in)active, e.g. a disconnected mobile client.
func (n *CustomerNotifier) SetActive(active bool) { n.active.Store(active) }

func (n *CustomerNotifier) Notify(_ context.Context, ev orders.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, err := fmt.Fprintln(n.out, RenderHuman(ev))
	return err
}

// RenderHuman formats an event the way the notification subscriber prints it.
func RenderHuman(ev orders.Event) string {
	line := fmt.Sprintf("Notification for order %s: %s (%s channel)", ev.OrderID, ev.Kind, ev.Channel)
	if reason, ok := ev.Payload["reason"].(string); ok && reason != "" {
		line += fmt.Sprintf(" - %s", reason)
	}
	return line
}

// Analytics counts events into Prometheus, the pipeline's reporting feed.
type Analytics struct {
	active atomic.Bool
}

// NewAnalytics creates an active analytics subscriber.
func NewAnalytics() *Analytics {
	a := &Analytics{}
	a.active.Store(true)
	return a
}

func (a *Analytics) Name() string { return "analytics" }

func (a *Analytics) Active() bool { return a.active.Load() }

func (a *Analytics) SetActive(active bool) { a.active.Store(active) }

func (a *Analytics) Notify(_ context.Context, ev orders.Event) error {
	metrics.EventsObservedTotal.WithLabelValues(string(ev.Kind), string(ev.Channel)).Inc()
	return nil
}
