package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/shopcore/pkg/models"
	"github.com/example/shopcore/pkg/orders"
)

// Store is the persistence port for payment records plus the order reads
// the gateway needs to resolve callbacks.
type Store interface {
	OrderByID(ctx context.Context, orderID string) (*models.Order, error)
	OrderByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	CreatePayment(ctx context.Context, rec *models.PaymentRecord) error
	// LatestPaymentByOrder returns the most recently created record for the
	// order, the one all settlement logic operates on.
	LatestPaymentByOrder(ctx context.Context, orderID string) (*models.PaymentRecord, error)
	SavePayment(ctx context.Context, rec *models.PaymentRecord) error
}

// Lifecycle is the slice of the order lifecycle manager the gateway uses.
// Settlement never writes order fields itself.
type Lifecycle interface {
	UpdateStatus(ctx context.Context, orderID string, next models.OrderStatus) (*models.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID string, next models.PaymentStatus) (*models.Order, error)
}

// Gateway normalizes provider callbacks and poll results into idempotent
// settlements. It owns all PaymentRecord writes and routes order effects
// through the lifecycle manager.
type Gateway struct {
	store         Store
	lifecycle     Lifecycle
	providers     map[string]Provider
	advanceOnPaid bool
	audit         orders.Auditor
	logger        *zap.Logger
}

func NewGateway(store Store, lifecycle Lifecycle, providers []Provider, advanceOnPaid bool, audit orders.Auditor, logger *zap.Logger) *Gateway {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Gateway{
		store:         store,
		lifecycle:     lifecycle,
		providers:     byName,
		advanceOnPaid: advanceOnPaid,
		audit:         audit,
		logger:        logger,
	}
}

// RecordAttempt opens a pending payment record for the order's full amount
// and returns the provider's redirect/QR target.
func (g *Gateway) RecordAttempt(ctx context.Context, orderID, providerName string) (*models.PaymentRecord, *Attempt, error) {
	provider, ok := g.providers[providerName]
	if !ok {
		return nil, nil, ExternalProviderError{Provider: providerName, Err: errors.New("unknown provider")}
	}

	order, err := g.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	attempt, err := provider.CreateAttempt(ctx, order, order.TotalAmount)
	if err != nil {
		return nil, nil, ExternalProviderError{Provider: providerName, Err: err}
	}

	rec := &models.PaymentRecord{
		ID:       uuid.NewString(),
		OrderID:  order.ID,
		Provider: providerName,
		Amount:   order.TotalAmount,
		Status:   models.PaymentRecordPending,
	}
	if err := g.store.CreatePayment(ctx, rec); err != nil {
		return nil, nil, err
	}

	g.recordAudit(ctx, "payment.attempt", rec.ID, map[string]interface{}{
		"order_id": order.ID,
		"provider": providerName,
		"amount":   order.TotalAmount,
	})
	return rec, attempt, nil
}

// Settle applies a provider outcome to the order's latest payment record.
// Re-settling a completed record with the same transaction id is a no-op;
// a different transaction id is a conflict. A still-pending outcome leaves
// the record untouched.
func (g *Gateway) Settle(ctx context.Context, orderID string, outcome *Outcome) (*models.PaymentRecord, error) {
	rec, err := g.store.LatestPaymentByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if rec.Status == models.PaymentRecordCompleted {
		existing := ""
		if rec.TransactionID != nil {
			existing = *rec.TransactionID
		}
		if outcome.Succeeded && existing == outcome.TransactionID {
			return rec, nil
		}
		return nil, ConflictError{OrderID: orderID, Existing: existing, Incoming: outcome.TransactionID}
	}

	if outcome.Pending {
		return rec, nil
	}

	if raw, merr := json.Marshal(outcome.Raw); merr == nil {
		rec.ProviderResponse = string(raw)
	}

	if outcome.Succeeded {
		txnID := outcome.TransactionID
		rec.Status = models.PaymentRecordCompleted
		rec.TransactionID = &txnID
		if err := g.store.SavePayment(ctx, rec); err != nil {
			return nil, err
		}

		if _, err := g.lifecycle.UpdatePaymentStatus(ctx, orderID, models.PaymentStatusPaid); err != nil {
			return nil, err
		}
		if g.advanceOnPaid {
			// The order may already be past pending; that is not an error
			// from the settlement's point of view.
			if _, err := g.lifecycle.UpdateStatus(ctx, orderID, models.OrderStatusProcessing); err != nil {
				var illegal orders.IllegalTransitionError
				if !errors.As(err, &illegal) {
					return nil, err
				}
			}
		}
	} else {
		rec.Status = models.PaymentRecordFailed
		if outcome.Code == "cancelled" {
			rec.Status = models.PaymentRecordCancelled
		}
		if err := g.store.SavePayment(ctx, rec); err != nil {
			return nil, err
		}
		// Stock stays reserved: only an explicit order cancellation
		// restocks.
		if _, err := g.lifecycle.UpdatePaymentStatus(ctx, orderID, models.PaymentStatusFailed); err != nil {
			return nil, err
		}
	}

	g.recordAudit(ctx, "payment.settled", rec.ID, map[string]interface{}{
		"order_id":       orderID,
		"status":         string(rec.Status),
		"transaction_id": outcome.TransactionID,
		"code":           outcome.Code,
	})
	return rec, nil
}

// HandleCallback verifies a provider callback (redirect return or server
// notification) and settles the referenced order.
func (g *Gateway) HandleCallback(ctx context.Context, providerName string, params map[string]string) (*models.PaymentRecord, error) {
	provider, ok := g.providers[providerName]
	if !ok {
		return nil, ExternalProviderError{Provider: providerName, Err: errors.New("unknown provider")}
	}

	outcome, err := provider.VerifyCallback(ctx, params)
	if err != nil {
		return nil, ExternalProviderError{Provider: providerName, Err: err}
	}

	order, err := g.store.OrderByNumber(ctx, outcome.OrderRef)
	if err != nil {
		return nil, err
	}
	return g.Settle(ctx, order.ID, outcome)
}

// ConfirmPoll queries a pull-based provider for the order's payment result
// and settles if the provider reports a final state.
func (g *Gateway) ConfirmPoll(ctx context.Context, orderID string) (*models.PaymentRecord, error) {
	order, err := g.store.OrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	rec, err := g.store.LatestPaymentByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	provider, ok := g.providers[rec.Provider]
	if !ok {
		return nil, ExternalProviderError{Provider: rec.Provider, Err: errors.New("unknown provider")}
	}
	poller, ok := provider.(Poller)
	if !ok {
		return nil, ExternalProviderError{Provider: rec.Provider, Err: fmt.Errorf("provider does not support polling")}
	}

	outcome, err := poller.PollStatus(ctx, order.OrderNumber)
	if err != nil {
		return nil, ExternalProviderError{Provider: rec.Provider, Err: err}
	}
	return g.Settle(ctx, orderID, outcome)
}

func (g *Gateway) recordAudit(ctx context.Context, action, entityID string, data map[string]interface{}) {
	if g.audit == nil {
		return
	}
	if err := g.audit.RecordAudit(ctx, action, entityID, data); err != nil {
		g.logger.Warn("audit write failed", zap.Error(err))
	}
}
