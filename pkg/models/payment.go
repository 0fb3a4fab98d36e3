package models

import (
	"time"
)

// PaymentRecordStatus is the state of a single settlement attempt.
type PaymentRecordStatus string

const (
	PaymentRecordPending   PaymentRecordStatus = "pending"
	PaymentRecordCompleted PaymentRecordStatus = "completed"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
	PaymentRecordCancelled PaymentRecordStatus = "cancelled"
)

// PaymentRecord tracks one settlement attempt against an order. The raw
// provider payload is kept as an opaque JSON blob; settlement logic only
// reads the transaction id and outcome code. Written exclusively by the
// reconciliation gateway.
type PaymentRecord struct {
	ID               string              `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID          string              `gorm:"type:varchar(36);not null;index" json:"order_id"`
	Provider         string              `gorm:"type:varchar(30);not null" json:"provider"`
	Amount           float64             `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status           PaymentRecordStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	TransactionID    *string             `gorm:"type:varchar(64);index" json:"transaction_id,omitempty"`
	ProviderResponse string              `gorm:"type:json" json:"provider_response,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func (PaymentRecord) TableName() string {
	return "payment_records"
}
