// Package kafka publishes notifications to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// Config selects the brokers and topic.
type Config struct {
	Brokers  []string
	Topic    string
	ClientID string
	Timeout  time.Duration
}

// Event is the JSON value of each record.
type Event struct {
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Notifier implements clip.Notifier over a synchronous producer.
type Notifier struct {
	producer sarama.SyncProducer
	topic    string
	now      func() time.Time
}

// New connects a synchronous producer.
func New(cfg Config) (*Notifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}
	sc := sarama.NewConfig()
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Retry.Max = 3
	if cfg.Timeout > 0 {
		sc.Producer.Timeout = cfg.Timeout
		sc.Net.DialTimeout = cfg.Timeout
	}
	if cfg.ClientID != "" {
		sc.ClientID = cfg.ClientID
	}
	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return NewWithProducer(producer, cfg.Topic), nil
}

// NewWithProducer wraps an existing producer (primarily for testing).
func NewWithProducer(producer sarama.SyncProducer, topic string) *Notifier {
	return &Notifier{producer: producer, topic: topic, now: func() time.Time { return time.Now().UTC() }}
}

// Notify sends one record and waits for the broker acknowledgement.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := json.Marshal(Event{Text: message, SentAt: n.now()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, _, err = n.producer.SendMessage(&sarama.ProducerMessage{
		Topic: n.topic,
		Value: sarama.ByteEncoder(value),
	})
	if err != nil {
		return fmt.Errorf("kafka send: %w", err)
	}
	return nil
}

// Close flushes and closes the producer.
func (n *Notifier) Close() error {
	return n.producer.Close()
}
