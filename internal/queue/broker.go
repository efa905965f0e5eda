package queue

import (
	"context"
)

type Broker interface {
	Publish(ctx context.Context, queueName string, message []byte) error
	Subscribe(ctx context.Context, queueName string, handler MessageHandler) error
	Close() error
}

type MessageHandler func(ctx context.Context, message []byte) error

const (
	QueueOrderNotifications = "order-notifications"
	QueueOrderStatus        = "order-status"
	QueueCatalogImport      = "catalog-import"

	dlqSuffix = "-dlq"
)

// Queues lists every work queue; each gets a dead letter queue named <queue>-dlq.
var Queues = []string{
	QueueOrderNotifications,
	QueueOrderStatus,
	QueueCatalogImport,
}

func DeadLetterQueue(queueName string) string {
	return queueName + dlqSuffix
}
