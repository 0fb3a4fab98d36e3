package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/shopcore/pkg/config"
	"github.com/example/shopcore/pkg/models"
)

// Event is the order event consumed by the external notification subsystem
// (confirmation emails and the like). Delivery is best-effort from this
// service's side; downstream retries live with the consumer.
type Event struct {
	Type          string    `json:"type"`
	OrderID       string    `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	UserID        string    `json:"user_id"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	TotalAmount   float64   `json:"total_amount"`
	OccurredAt    time.Time `json:"occurred_at"`
}

const (
	EventOrderPlaced   = "order.placed"
	EventStatusChanged = "order.status_changed"
)

// Publisher writes order events to Kafka. It implements orders.Notifier.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(cfg *config.KafkaConfig) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *Publisher) OrderPlaced(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, EventOrderPlaced, order)
}

func (p *Publisher) OrderStatusChanged(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, EventStatusChanged, order)
}

func (p *Publisher) publish(ctx context.Context, eventType string, order *models.Order) error {
	payload, err := json.Marshal(&Event{
		Type:          eventType,
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		UserID:        order.UserID,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		TotalAmount:   order.TotalAmount,
		OccurredAt:    time.Now(),
	})
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%s-%s", eventType, order.ID)),
		Value: payload,
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
