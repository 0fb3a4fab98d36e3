package models

import (
	"time"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus tracks settlement independently of fulfilment.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// Order is the durable record of a completed checkout. Amounts are derived
// server-side; TotalAmount = Subtotal + ShippingCost - DiscountAmount.
// Orders are never physically deleted.
type Order struct {
	ID              string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderNumber     string        `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	CustomerID      string        `gorm:"type:varchar(36);not null;index" json:"customer_id"`
	UserID          string        `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Status          OrderStatus   `gorm:"type:varchar(20);default:'pending'" json:"status"`
	PaymentStatus   PaymentStatus `gorm:"type:varchar(20);default:'pending'" json:"payment_status"`
	PaymentMethod   string        `gorm:"type:varchar(30)" json:"payment_method"`
	Subtotal        float64       `gorm:"type:decimal(10,2)" json:"subtotal"`
	DiscountAmount  float64       `gorm:"type:decimal(10,2)" json:"discount_amount"`
	ShippingCost    float64       `gorm:"type:decimal(10,2)" json:"shipping_cost"`
	TotalAmount     float64       `gorm:"type:decimal(10,2)" json:"total_amount"`
	ShippingAddress string        `gorm:"type:varchar(255);not null" json:"shipping_address"`
	ShippingPhone   string        `gorm:"type:varchar(20);not null" json:"shipping_phone"`
	Notes           string        `gorm:"type:text" json:"notes"`
	ShippedAt       *time.Time    `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time    `json:"delivered_at,omitempty"`
	Lines           []OrderLine   `gorm:"foreignKey:OrderID" json:"lines"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderLine snapshots product name, price and discount at checkout time so
// later catalog changes never rewrite purchase history. Immutable after
// creation.
type OrderLine struct {
	ID                 string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID            string    `gorm:"type:varchar(36);not null;index" json:"order_id"`
	ProductID          string    `gorm:"type:varchar(36);not null;index" json:"product_id"`
	ProductName        string    `gorm:"type:varchar(200);not null" json:"product_name"`
	ProductPrice       float64   `gorm:"type:decimal(10,2)" json:"product_price"`
	Quantity           int       `gorm:"not null" json:"quantity"`
	DiscountPercentage float64   `gorm:"type:decimal(5,2)" json:"discount_percentage"`
	Subtotal           float64   `gorm:"type:decimal(10,2)" json:"subtotal"`
	CreatedAt          time.Time `json:"created_at"`
}

func (OrderLine) TableName() string {
	return "order_lines"
}
