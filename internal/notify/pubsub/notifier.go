// Package pubsub publishes notifications to a Google Cloud Pub/Sub topic so
// that other services can fan them out.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"go.opentelemetry.io/otel"
)

// Event is the JSON body of each published message.
type Event struct {
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Notifier wraps a Pub/Sub publisher client.
type Notifier struct {
	publisher *pubsub.Publisher
	now       func() time.Time
}

// New creates a Notifier for the provided topic publisher.
func New(publisher *pubsub.Publisher) *Notifier {
	return &Notifier{publisher: publisher, now: func() time.Time { return time.Now().UTC() }}
}

// Notify marshals the message and waits for the server to acknowledge it.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	if n.publisher == nil {
		return fmt.Errorf("pubsub publisher is not configured")
	}
	data, err := json.Marshal(Event{Text: message, SentAt: n.now()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &pubsub.Message{Data: data, Attributes: map[string]string{"content_type": "application/json"}}
	otel.GetTextMapPropagator().Inject(ctx, &pubsubCarrier{attrs: msg.Attributes})

	if _, err := n.publisher.Publish(ctx, msg).Get(ctx); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// pubsubCarrier implements propagation.TextMapCarrier for Pub/Sub attributes.
type pubsubCarrier struct {
	attrs map[string]string
}

func (c *pubsubCarrier) Get(key string) string {
	return c.attrs[key]
}

func (c *pubsubCarrier) Set(key, value string) {
	c.attrs[key] = value
}

func (c *pubsubCarrier) Keys() []string {
	keys := make([]string, 0, len(c.attrs))
	for k := range c.attrs {
		keys = append(keys, k)
	}
	return keys
}
