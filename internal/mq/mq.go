package mq

import "context"

// Message is a broker-agnostic event payload. Record-change events are
// published with the event type carried in the attributes.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a delivered message. Returning an error nacks the
// message so the broker can redeliver it.
type Handler func(ctx context.Context, msg Message) error

// Broker abstracts the underlying message broker.
type Broker interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ fronts a broker with a stable API so the rest of the app never
// depends on a concrete client.
type MQ struct {
	broker Broker
}

func New(broker Broker) *MQ {
	return &MQ{broker: broker}
}

// Publish sends an event to the named channel and returns the broker's
// message id.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.broker.Publish(ctx, channel, data, attrs)
}

// Subscribe consumes events from the named channel until ctx is done.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.broker.Subscribe(ctx, channel, handler)
}

func (m *MQ) Close() error {
	return m.broker.Close()
}
