package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MoonSoon24/coffee-shop/internal/domain"
	"github.com/MoonSoon24/coffee-shop/internal/loyalty"
	"github.com/MoonSoon24/coffee-shop/internal/queue"
	"github.com/MoonSoon24/coffee-shop/internal/repo"
	"go.uber.org/zap"
)

type BalanceInvalidator interface {
	Invalidate(ctx context.Context, userID string)
}

type OrderDetail struct {
	Order   domain.Order              `json:"order"`
	Lines   []domain.OrderLine        `json:"lines"`
	History []domain.OrderStatusAudit `json:"history"`
}

type OrderService struct {
	orders   repo.OrderRepository
	audits   repo.OrderStatusAuditRepository
	points   repo.PointsRepository
	tx       repo.Transactor
	broker   queue.Broker
	balances BalanceInvalidator
	logger   *zap.SugaredLogger
}

func NewOrderService(
	orders repo.OrderRepository,
	audits repo.OrderStatusAuditRepository,
	points repo.PointsRepository,
	tx repo.Transactor,
	broker queue.Broker,
	balances BalanceInvalidator,
	logger *zap.SugaredLogger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		audits:   audits,
		points:   points,
		tx:       tx,
		broker:   broker,
		balances: balances,
		logger:   logger,
	}
}

func (s *OrderService) GetOrder(ctx context.Context, id string) (*OrderDetail, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	lines, err := s.orders.GetLines(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order lines: %w", err)
	}

	history, err := s.audits.GetByOrderID(ctx, id, 50)
	if err != nil {
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}

	return &OrderDetail{Order: *order, Lines: lines, History: history}, nil
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID string, status domain.OrderStatus) ([]domain.Order, error) {
	if status != "" && !status.Valid() {
		return nil, domain.NewValidationError(domain.ValidationInvalidInput, "status", fmt.Sprintf("unknown status %q", status))
	}

	orders, err := s.orders.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListNeedingReconciliation(ctx context.Context, limit int) ([]domain.Order, error) {
	orders, err := s.orders.ListNeedingReconciliation(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders needing reconciliation: %w", err)
	}
	return orders, nil
}

// RequestStatusChange checks the transition and queues it; the order status
// worker applies it.
func (s *OrderService) RequestStatusChange(ctx context.Context, orderID string, newStatus domain.OrderStatus, reason, userID string) error {
	if !newStatus.Valid() {
		return domain.NewValidationError(domain.ValidationInvalidInput, "status", fmt.Sprintf("unknown status %q", newStatus))
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if !order.Status.CanTransitionTo(newStatus) {
		return domain.NewValidationError(domain.ValidationInvalidInput, "status",
			fmt.Sprintf("cannot move order from %s to %s", order.Status, newStatus))
	}

	// publish status change event (worker will update DB)
	event := domain.OrderStatusEvent{
		EventType: domain.EventOrderStatusChanged,
		OrderID:   orderID,
		OldStatus: order.Status,
		NewStatus: newStatus,
		Reason:    reason,
		UserID:    userID,
		Timestamp: time.Now(),
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := s.broker.Publish(ctx, queue.QueueOrderStatus, eventBytes); err != nil {
		s.logger.Errorw("failed to publish status change event", "order_id", orderID, "error", err)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	s.logger.Infow("order status change queued", "order_id", orderID, "old_status", order.Status, "new_status", newStatus)

	return nil
}

// ProcessStatusEvent moves the order, writes the audit row and, on
// cancellation, refunds the order's points in one transaction. An event whose
// order already left OldStatus is dropped, except a redelivered cancellation:
// its refund is run again, which adds only what is still missing.
func (s *OrderService) ProcessStatusEvent(ctx context.Context, event domain.OrderStatusEvent) error {
	if !event.OldStatus.CanTransitionTo(event.NewStatus) {
		s.logger.Warnw("dropping invalid status event", "order_id", event.OrderID, "old_status", event.OldStatus, "new_status", event.NewStatus)
		return nil
	}

	var (
		userID        string
		statusWritten bool
		redelivered   bool
		refunded      bool
	)

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByID(ctx, event.OrderID)
		if err != nil {
			return err
		}
		userID = order.UserID

		err = s.orders.UpdateStatus(ctx, event.OrderID, event.OldStatus, event.NewStatus)
		switch {
		case err == nil:
			statusWritten = true
			audit := &domain.OrderStatusAudit{
				OrderID:   event.OrderID,
				EventType: event.EventType,
				OldStatus: event.OldStatus,
				NewStatus: event.NewStatus,
				Reason:    event.Reason,
				UserID:    event.UserID,
				Timestamp: event.Timestamp,
			}
			if err := s.audits.Create(ctx, audit); err != nil {
				return fmt.Errorf("failed to create audit record: %w", err)
			}
		case errors.Is(err, domain.ErrConflict) && event.NewStatus == domain.OrderCancelled && order.Status == domain.OrderCancelled:
			redelivered = true
		default:
			return err
		}

		if event.NewStatus != domain.OrderCancelled || order.UserID == "" {
			return nil
		}

		n, err := s.refund(ctx, event.OrderID)
		if err != nil {
			return err
		}
		refunded = n > 0
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Warnw("dropping stale status event", "order_id", event.OrderID, "old_status", event.OldStatus, "new_status", event.NewStatus)
			return nil
		}
		if statusWritten && !s.tx.Atomic() {
			note := fmt.Sprintf("status changed to %s but follow-up writes failed: %v", event.NewStatus, err)
			if ferr := s.orders.FlagReconciliation(context.WithoutCancel(ctx), event.OrderID, note); ferr != nil {
				s.logger.Errorw("failed to flag order for reconciliation", "order_id", event.OrderID, "error", ferr)
			}
		}
		s.logger.Errorw("failed to apply status change", "order_id", event.OrderID, "error", err)
		return fmt.Errorf("failed to apply status change: %w", err)
	}

	if refunded {
		s.balances.Invalidate(ctx, userID)
	}

	s.logger.Infow("order status updated",
		"order_id", event.OrderID,
		"new_status", event.NewStatus,
		"redelivered", redelivered,
		"points_refunded", refunded,
	)

	return nil
}

// refund appends the entries that reverse the order's redemption and earnings.
// Refunds already on the ledger are netted out, so it is safe to repeat.
func (s *OrderService) refund(ctx context.Context, orderID string) (int, error) {
	entries, err := s.points.ListByOrder(ctx, orderID)
	if err != nil {
		return 0, fmt.Errorf("failed to read order points: %w", err)
	}
	refunds := loyalty.RefundEntries(entries)
	if len(refunds) == 0 {
		return 0, nil
	}
	if err := s.points.Append(ctx, refunds...); err != nil {
		return 0, fmt.Errorf("failed to refund points: %w", err)
	}
	return len(refunds), nil
}
