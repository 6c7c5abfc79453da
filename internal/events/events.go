// Package events publishes inventory movements for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	PurchaseRecorded = "purchase.recorded"
	BarcodeBound     = "barcode.bound"
	SaleRecorded     = "sale.recorded"
	SaleAmended      = "sale.amended"
	SaleCanceled     = "sale.canceled"
)

// Event is a committed inventory movement. Quantity is signed from the
// ledger's point of view: purchases are positive, sales negative.
type Event struct {
	Type       string    `json:"type"`
	MedicineID int64     `json:"medicine_id"`
	Quantity   float64   `json:"quantity"`
	Price      *float64  `json:"price,omitempty"`
	Reference  int64     `json:"reference,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits committed inventory movements.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop drops every event; used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// KafkaPublisher writes events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher returns an asynchronous publisher: Publish only enqueues,
// and delivery failures are logged instead of reaching the caller.
func NewKafkaPublisher(brokers []string, topic string, log *zap.Logger) *KafkaPublisher {
	log = log.Named("kafka")
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn("deliver inventory events", zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}
	return &KafkaPublisher{writer: writer}
}

// Publish keys messages by medicine id so one medicine's movements stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.MedicineID, 10)),
		Value: data,
		Time:  e.OccurredAt,
	})
}

// Close flushes queued messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
