package orders

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/shopcore/pkg/config"
	"github.com/example/shopcore/pkg/models"
)

// CheckoutInput carries everything the caller supplies for a checkout. The
// cart lines themselves are read from the store.
type CheckoutInput struct {
	UserID          string
	ShippingAddress string
	ShippingPhone   string
	PaymentMethod   string
	Notes           string
}

// CheckoutService converts a user's cart into a durable order. All stock
// and order mutations happen inside one transaction holding exclusive row
// locks on the referenced products, so concurrent checkouts on the same
// product serialize and stock never goes negative.
type CheckoutService struct {
	store    Store
	shipping config.ShippingConfig
	notifier Notifier
	audit    Auditor
	logger   *zap.Logger
}

func NewCheckoutService(store Store, shipping config.ShippingConfig, notifier Notifier, audit Auditor, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		store:    store,
		shipping: shipping,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
	}
}

// PlaceOrder validates the input, reserves stock and creates the order with
// its lines atomically, then empties the cart. Prices and discounts are the
// product's current values at checkout time, not whatever the cart cached.
// Any failure rolls back the entire transaction.
func (s *CheckoutService) PlaceOrder(ctx context.Context, in CheckoutInput) (*models.Order, error) {
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return nil, ValidationError{Field: "shipping_address", Reason: "required"}
	}
	if strings.TrimSpace(in.ShippingPhone) == "" {
		return nil, ValidationError{Field: "shipping_phone", Reason: "required"}
	}

	customer, err := s.store.CustomerByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	lines, err := s.store.CartLines(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	var order *models.Order
	for attempt := 0; attempt < maxNumberRetries; attempt++ {
		order = &models.Order{
			ID:              uuid.NewString(),
			OrderNumber:     NewOrderNumber(),
			CustomerID:      customer.ID,
			UserID:          in.UserID,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusPending,
			PaymentMethod:   in.PaymentMethod,
			ShippingAddress: in.ShippingAddress,
			ShippingPhone:   in.ShippingPhone,
			Notes:           in.Notes,
		}

		err = s.store.InTransaction(ctx, func(tx Store) error {
			return s.assemble(ctx, tx, order, lines)
		})
		if errors.Is(err, ErrDuplicateOrderNumber) {
			s.logger.Warn("order number collision, retrying",
				zap.String("order_number", order.OrderNumber))
			continue
		}
		break
	}
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		if aerr := s.audit.RecordAudit(ctx, "order.placed", order.ID, map[string]interface{}{
			"order_number": order.OrderNumber,
			"user_id":      order.UserID,
			"total_amount": order.TotalAmount,
		}); aerr != nil {
			s.logger.Warn("audit write failed", zap.Error(aerr))
		}
	}
	if s.notifier != nil {
		if nerr := s.notifier.OrderPlaced(ctx, order); nerr != nil {
			s.logger.Warn("order confirmation notification failed",
				zap.String("order_id", order.ID), zap.Error(nerr))
		}
	}

	return order, nil
}

// assemble runs inside the checkout transaction: lock each product, check
// stock, snapshot authoritative prices, decrement stock, insert the order
// and clear the cart.
func (s *CheckoutService) assemble(ctx context.Context, tx Store, order *models.Order, lines []models.CartItem) error {
	var subtotal float64
	orderLines := make([]models.OrderLine, 0, len(lines))

	for _, line := range lines {
		product, err := tx.ProductForUpdate(ctx, line.ProductID)
		if err != nil {
			return err
		}
		if product.StockQuantity < line.Quantity {
			return InsufficientStockError{
				ProductID: product.ID,
				Requested: line.Quantity,
				Available: product.StockQuantity,
			}
		}

		lineSubtotal := Round2(product.Price * (1 - product.DiscountPercentage/100) * float64(line.Quantity))
		orderLines = append(orderLines, models.OrderLine{
			ID:                 uuid.NewString(),
			OrderID:            order.ID,
			ProductID:          product.ID,
			ProductName:        product.Name,
			ProductPrice:       product.Price,
			Quantity:           line.Quantity,
			DiscountPercentage: product.DiscountPercentage,
			Subtotal:           lineSubtotal,
		})
		subtotal += lineSubtotal

		if err := tx.AdjustStock(ctx, product.ID, -line.Quantity); err != nil {
			return err
		}
	}

	order.Subtotal = Round2(subtotal)
	order.ShippingCost = s.shippingCost(order.Subtotal)
	order.TotalAmount = Round2(order.Subtotal + order.ShippingCost - order.DiscountAmount)
	order.Lines = orderLines

	if err := tx.CreateOrder(ctx, order); err != nil {
		return err
	}
	return tx.ClearCart(ctx, order.UserID)
}

func (s *CheckoutService) shippingCost(subtotal float64) float64 {
	if s.shipping.FreeThreshold > 0 && subtotal >= s.shipping.FreeThreshold {
		return 0
	}
	return s.shipping.FlatFee
}

// Round2 rounds a monetary amount to cents, matching the decimal(10,2)
// columns the amounts are stored in.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
