package orders

import (
	"context"

	"github.com/example/shopcore/pkg/models"
)

// Store is the persistence port for checkout and lifecycle operations. The
// MySQL implementation lives in pkg/repository; tests use in-memory fakes.
type Store interface {
	// InTransaction runs fn against a transactional view of the store. Row
	// locks taken inside fn are held until fn returns; any error rolls the
	// whole transaction back.
	InTransaction(ctx context.Context, fn func(tx Store) error) error

	CartLines(ctx context.Context, userID string) ([]models.CartItem, error)
	ClearCart(ctx context.Context, userID string) error

	CustomerByUserID(ctx context.Context, userID string) (*models.Customer, error)

	// ProductForUpdate reads a product under an exclusive row lock. Must be
	// called inside InTransaction; concurrent callers touching the same
	// product serialize here.
	ProductForUpdate(ctx context.Context, productID string) (*models.Product, error)
	// AdjustStock adds delta to the product's stock. Callers must hold the
	// product's row lock via ProductForUpdate in the same transaction.
	AdjustStock(ctx context.Context, productID string, delta int) error

	CreateOrder(ctx context.Context, order *models.Order) error
	OrderByID(ctx context.Context, orderID string) (*models.Order, error)
	// OrderForUpdate reads an order and its lines under an exclusive row
	// lock, serializing concurrent lifecycle transitions.
	OrderForUpdate(ctx context.Context, orderID string) (*models.Order, error)
	OrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	SaveOrder(ctx context.Context, order *models.Order) error
}

// Notifier hands order events to the external notification subsystem.
// Delivery is best-effort: implementations return errors for logging only
// and callers never fail the triggering operation on them.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
	OrderStatusChanged(ctx context.Context, order *models.Order) error
}

// Auditor records domain actions in the audit trail, best-effort.
type Auditor interface {
	RecordAudit(ctx context.Context, action, entityID string, data map[string]interface{}) error
}

// Cache invalidates cached order summaries after a lifecycle transition.
type Cache interface {
	InvalidateOrder(ctx context.Context, orderID string) error
}
