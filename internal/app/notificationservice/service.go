package notificationservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"git.platform.alem.school/amibragim/quickserve/internal/app/notify"
	"git.platform.alem.school/amibragim/quickserve/internal/domain/orders"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/logger"
	"git.platform.alem.school/amibragim/quickserve/internal/shared/rabbitmq"
)

// ConsumeForever continuously (re)creates a channel and consumes order
// events from the durable queue, printing a human-readable line per event.
func ConsumeForever(ctx context.Context, rmq *rabbitmq.Client, log *logger.Logger) {
	const (
		prefetch       = 50
		retryBaseDelay = time.Second
		retryMaxDelay  = 30 * time.Second
	)

	backoff := retryBaseDelay
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ch, err := rmq.NewConsumerChannel(prefetch)
		if err != nil {
			log.Error(ctx, "rabbitmq_channel_open_failed", "Failed to open consumer channel", err)
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, retryMaxDelay)
			continue
		}

		backoff = retryBaseDelay

		deliveries, err := ch.Consume(rabbitmq.EventsQueue, "", false, false, false, false, nil)
		if err != nil {
			_ = ch.Close()
			log.Error(ctx, "rabbitmq_consume_failed", "Failed to start consuming order events", err)
			if !sleepWithContext(ctx, backoff) {
				return
			}
			backoff = nextBackoff(backoff, retryMaxDelay)
			continue
		}

		closed := ch.NotifyClose(make(chan *amqp.Error, 1))

	consumption:
		for {
			select {
			case <-ctx.Done():
				_ = ch.Close()
				break consumption

			case amqpErr := <-closed:
				if amqpErr != nil {
					log.Error(ctx, "rabbitmq_channel_closed", "Consumer channel closed", amqpErr)
				} else {
					log.Error(ctx, "rabbitmq_channel_closed", "Consumer channel closed", errors.New("unknown channel close"))
				}
				break consumption

			case d, ok := <-deliveries:
				if !ok {
					log.Error(ctx, "rabbitmq_deliveries_closed", "Deliveries channel closed", errors.New("deliveries channel closed"))
					break consumption
				}

				handleDelivery(ctx, log, d)
			}
		}

		if !sleepWithContext(ctx, backoff) {
			return
		}
		backoff = nextBackoff(backoff, retryMaxDelay)
	}
}

// handleDelivery parses the event JSON, prints it, and acknowledges.
func handleDelivery(ctx context.Context, log *logger.Logger, d amqp.Delivery) {
	var ev orders.Event
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		log.Error(ctx, "event_decode_failed", "Failed to decode order event JSON", err)
		// malformed JSON cannot be recovered by redelivery; ack to drop it
		_ = d.Ack(false)
		return
	}

	log.Debug(ctx, "event_received", "Received order event", map[string]any{
		"kind":     ev.Kind,
		"order_id": ev.OrderID,
		"channel":  ev.Channel,
	})

	fmt.Println(notify.RenderHuman(ev))

	if err := d.Ack(false); err != nil {
		log.Error(ctx, "rabbitmq_ack_failed", "Failed to ack order event", err)
	}
}

// sleepWithContext sleeps for the given duration or returns early if ctx is
// done.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// nextBackoff doubles the backoff up to cap.
func nextBackoff(curr, cap time.Duration) time.Duration {
	n := curr * 2
	if n > cap {
		return cap
	}
	return n
}
