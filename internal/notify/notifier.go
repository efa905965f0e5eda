package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/queue"
)

// QueueNotifier hands order confirmations to the notification worker.
type QueueNotifier struct {
	broker queue.Broker
}

func NewQueueNotifier(broker queue.Broker) *QueueNotifier {
	return &QueueNotifier{broker: broker}
}

func (n *QueueNotifier) Notify(ctx context.Context, event domain.OrderPlacedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order notification: %w", err)
	}

	if err := n.broker.Publish(ctx, queue.QueueOrderNotifications, body); err != nil {
		return fmt.Errorf("failed to publish order notification: %w", err)
	}
	return nil
}
