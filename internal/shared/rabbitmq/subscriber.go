package rabbitmq

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
	"git.platform.alem.school/amibragim/quickserve/internal/ports"
)

// EventPublisher bridges the in-process notification hub onto the fanout
// exchange so out-of-process consumers (notification subscriber, dashboards)
// see the same events. Broker failures surface as delivery errors and are
// isolated by the hub like any other subscriber failure.
type EventPublisher struct {
	client *Client
	active atomic.Bool
}

var _ ports.Subscriber = (*EventPublisher)(nil)

// NewEventPublisher creates an active publisher over the client.
func NewEventPublisher(client *Client) *EventPublisher {
	p := &EventPublisher{client: client}
	p.active.Store(true)
	return p
}

func (p *EventPublisher) Name() string { return "amqp-event-publisher" }

func (p *EventPublisher) Active() bool { return p.active.Load() }

// SetActive pauses or resumes publication without unsubscribing.
func (p *EventPublisher) SetActive(active bool) { p.active.Store(active) }

func (p *EventPublisher) Notify(ctx context.Context, ev orders.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, body)
}
