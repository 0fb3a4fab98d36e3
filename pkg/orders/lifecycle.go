package orders

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/shopcore/pkg/models"
)

// statusTransitions is the fulfilment state machine. delivered and
// cancelled are terminal. shipped deliberately has no edge to cancelled;
// that case surfaces ErrCancelShipped instead.
var statusTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
	models.OrderStatusDelivered:  {},
	models.OrderStatusCancelled:  {},
}

// paymentTransitions is the independent settlement state machine.
var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentStatusPending:  {models.PaymentStatusPaid, models.PaymentStatusFailed},
	models.PaymentStatusPaid:     {models.PaymentStatusRefunded},
	models.PaymentStatusFailed:   {},
	models.PaymentStatusRefunded: {},
}

func statusAllowed(from, to models.OrderStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func paymentAllowed(from, to models.PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LifecycleService owns every mutation of order status and payment status.
// Other components, the payment gateway included, route through it instead
// of writing order fields directly.
type LifecycleService struct {
	store    Store
	cache    Cache
	audit    Auditor
	notifier Notifier
	logger   *zap.Logger
}

func NewLifecycleService(store Store, cache Cache, audit Auditor, notifier Notifier, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		store:    store,
		cache:    cache,
		audit:    audit,
		notifier: notifier,
		logger:   logger,
	}
}

// UpdateStatus applies one fulfilment transition. Entering shipped or
// delivered stamps the matching timestamp exactly once. Entering cancelled
// returns every line's quantity to its product's stock under the product
// row lock, in the same transaction as the status write, so a concurrent
// checkout on the same product serializes with the restock.
func (s *LifecycleService) UpdateStatus(ctx context.Context, orderID string, next models.OrderStatus) (*models.Order, error) {
	return s.transition(ctx, orderID, next, "")
}

// Cancel is the customer-facing cancellation. The optional reason is kept
// on the order notes. Ownership is checked by the HTTP layer.
func (s *LifecycleService) Cancel(ctx context.Context, orderID, reason string) (*models.Order, error) {
	return s.transition(ctx, orderID, models.OrderStatusCancelled, reason)
}

func (s *LifecycleService) transition(ctx context.Context, orderID string, next models.OrderStatus, cancelReason string) (*models.Order, error) {
	if !next.Valid() {
		return nil, InvalidStatusError{Value: string(next)}
	}

	var updated *models.Order
	err := s.store.InTransaction(ctx, func(tx Store) error {
		order, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if next == models.OrderStatusCancelled && order.Status == models.OrderStatusShipped {
			return ErrCancelShipped
		}
		if !statusAllowed(order.Status, next) {
			return illegalTransition(order.Status, next)
		}

		now := time.Now()
		switch next {
		case models.OrderStatusShipped:
			if order.ShippedAt == nil {
				order.ShippedAt = &now
			}
		case models.OrderStatusDelivered:
			if order.DeliveredAt == nil {
				order.DeliveredAt = &now
			}
		case models.OrderStatusCancelled:
			if err := restock(ctx, tx, order); err != nil {
				return err
			}
			if cancelReason != "" {
				order.Notes = appendNote(order.Notes, "cancelled: "+cancelReason)
			}
		}

		order.Status = next
		if err := tx.SaveOrder(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, updated, "order.status_changed", map[string]interface{}{
		"status": string(updated.Status),
	})
	return updated, nil
}

// UpdatePaymentStatus applies one settlement transition. Setting the
// current value again is a no-op, which keeps retried settlements
// idempotent.
func (s *LifecycleService) UpdatePaymentStatus(ctx context.Context, orderID string, next models.PaymentStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, InvalidStatusError{Value: string(next)}
	}

	var updated *models.Order
	err := s.store.InTransaction(ctx, func(tx Store) error {
		order, err := tx.OrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.PaymentStatus == next {
			updated = order
			return nil
		}
		if !paymentAllowed(order.PaymentStatus, next) {
			return illegalPaymentTransition(order.PaymentStatus, next)
		}
		order.PaymentStatus = next
		if err := tx.SaveOrder(ctx, order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, updated, "order.payment_status_changed", map[string]interface{}{
		"payment_status": string(updated.PaymentStatus),
	})
	return updated, nil
}

// restock returns reserved quantities to stock, locking each product row
// before incrementing so concurrent checkouts see consistent quantities.
func restock(ctx context.Context, tx Store, order *models.Order) error {
	for _, line := range order.Lines {
		if _, err := tx.ProductForUpdate(ctx, line.ProductID); err != nil {
			return fmt.Errorf("restock product %s: %w", line.ProductID, err)
		}
		if err := tx.AdjustStock(ctx, line.ProductID, line.Quantity); err != nil {
			return fmt.Errorf("restock product %s: %w", line.ProductID, err)
		}
	}
	return nil
}

func (s *LifecycleService) afterTransition(ctx context.Context, order *models.Order, action string, data map[string]interface{}) {
	if s.cache != nil {
		if err := s.cache.InvalidateOrder(ctx, order.ID); err != nil {
			s.logger.Warn("order cache invalidation failed",
				zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	if s.audit != nil {
		if err := s.audit.RecordAudit(ctx, action, order.ID, data); err != nil {
			s.logger.Warn("audit write failed", zap.Error(err))
		}
	}
	if s.notifier != nil {
		if err := s.notifier.OrderStatusChanged(ctx, order); err != nil {
			s.logger.Warn("status notification failed",
				zap.String("order_id", order.ID), zap.Error(err))
		}
	}
}

func appendNote(notes, extra string) string {
	if notes == "" {
		return extra
	}
	return notes + "\n" + extra
}
