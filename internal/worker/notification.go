package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/notify"
	"github.com/MoonSoon24/coffee-shop/internal/queue"
	"go.uber.org/zap"
)

// NotificationWorker renders the chat deep link for every placed order.
// Sending it is left to the shop's chat integration, so the link is logged.
type NotificationWorker struct {
	shopPhone string
	broker    queue.Broker
	logger    *zap.SugaredLogger
	ctx       context.Context
	cancel    context.CancelFunc
}

func NewNotificationWorker(
	shopPhone string,
	broker queue.Broker,
	logger *zap.SugaredLogger,
) *NotificationWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &NotificationWorker{
		shopPhone: shopPhone,
		broker:    broker,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (w *NotificationWorker) Start() error {
	w.logger.Info("starting notification worker")

	return w.broker.Subscribe(w.ctx, queue.QueueOrderNotifications, w.handleMessage)
}

func (w *NotificationWorker) Stop() {
	w.logger.Info("stopping notification worker")
	w.cancel()
}

func (w *NotificationWorker) handleMessage(_ context.Context, message []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(message, &event); err != nil {
		w.logger.Errorw("failed to unmarshal event", "error", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.OrderID == "" {
		return fmt.Errorf("order notification without order id")
	}

	w.logger.Infow("order notification ready",
		"order_id", event.OrderID,
		"final_total", notify.Rupiah(event.FinalTotal),
		"whatsapp_link", notify.WhatsAppLink(w.shopPhone, event),
	)

	return nil
}
