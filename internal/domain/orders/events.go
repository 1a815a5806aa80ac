package orders

import "time"

// EventKind enumerates the order lifecycle notifications.
type EventKind string

const (
	EventOrderCreated   EventKind = "ORDER_CREATED"
	EventOrderConfirmed EventKind = "ORDER_CONFIRMED"
	EventOrderPreparing EventKind = "ORDER_PREPARING"
	EventOrderReady     EventKind = "ORDER_READY"
	EventOrderCompleted EventKind = "ORDER_COMPLETED"
	EventOrderCancelled EventKind = "ORDER_CANCELLED"
)

// kindByStatus maps each lifecycle status to the event announcing it.
var kindByStatus = map[Status]EventKind{
	StatusCreated:   EventOrderCreated,
	StatusConfirmed: EventOrderConfirmed,
	StatusPreparing: EventOrderPreparing,
	StatusReady:     EventOrderReady,
	StatusCompleted: EventOrderCompleted,
	StatusCancelled: EventOrderCancelled,
}

// EventKindFor returns the event kind announcing the given status.
func EventKindFor(status Status) EventKind {
	return kindByStatus[status]
}

// Event is a status-change notification. It is ephemeral: the hub does not
// store it, each subscriber keeps what it needs.
type Event struct {
	Kind       EventKind      `json:"kind"`
	OrderID    string         `json:"order_id"`
	Channel    Channel        `json:"channel"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewEvent builds the notification for an order's current status.
func NewEvent(order *Order, now time.Time, payload map[string]any) Event {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["status"] = string(order.Status)
	payload["total"] = order.Total.StringFixed(2)

	return Event{
		Kind:       EventKindFor(order.Status),
		OrderID:    order.ID,
		Channel:    order.Channel,
		OccurredAt: now,
		Payload:    payload,
	}
}
