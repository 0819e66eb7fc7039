package events

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TypeOrderCreated     = "order.created"
	TypeOrderPaid        = "order.paid"
	TypePaymentCompleted = "payment.completed"
	TypePaymentFailed    = "payment.failed"
	TypePaymentRefunded  = "payment.refunded"
)

// Event is the audit record emitted on every state transition.
type Event struct {
	Type        string `json:"type"`
	OrderID     string `json:"orderId,omitempty"`
	PaymentID   string `json:"paymentId,omitempty"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amountCents"`
	Currency    string `json:"currency,omitempty"`
	TS          int64  `json:"ts"`
}

func (e Event) key() string {
	if e.PaymentID != "" {
		return e.PaymentID
	}
	return e.OrderID
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events. The default when no sink is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi fans out to several publishers.
type Multi struct {
	sinks []Publisher
}

func NewMulti(ps ...Publisher) *Multi { return &Multi{sinks: ps} }

func (m *Multi) Publish(ctx context.Context, e Event) error {
	for _, p := range m.sinks {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// FilePublisher appends events as JSON lines to a local audit log.
type FilePublisher struct {
	path string
}

func NewFilePublisher(dir, filename string) (*FilePublisher, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &FilePublisher{path: filepath.Join(dir, filename)}, nil
}

func (w *FilePublisher) Publish(_ context.Context, e Event) error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(&e); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// KafkaPublisher publishes events to a Kafka topic. Pure-Go client
// (segmentio/kafka-go).
type KafkaPublisher struct {
	writer kafkaMessageWriter
}

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaPublisher creates a Kafka publisher.
// bootstrap can be a comma-separated list of host:port.
func NewKafkaPublisher(bootstrap string, topic string) *KafkaPublisher {
	var brokers []string
	for _, a := range strings.Split(bootstrap, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			brokers = append(brokers, a)
		}
	}
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}}
}

func (k *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.TS == 0 {
		e.TS = time.Now().UnixMilli()
	}
	b, err := json.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.key()), Value: b})
}

// NewKafkaPublisherWith is only for tests to inject a fake writer.
func NewKafkaPublisherWith(w kafkaMessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}
