package messaging

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"
)

var (
	// ErrUnsupported is returned when the selected broker cannot honour a publish setting such as Delay.
	ErrUnsupported = errors.New("messaging: unsupported operation")

	ErrDestinationRequired = errors.New("messaging: destination is required")
	ErrHandlerRequired     = errors.New("messaging: handler is required")
	ErrClosed              = errors.New("messaging: client is closed")
	ErrGroupRequired       = errors.New("messaging: consumer group is required")
)

// Messaging is a broker client that can publish and consume.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a destination (topic or subject).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer consumes messages from a source until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message.
// With auto ack enabled a nil error acks the message and any other error nacks it.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to be published.
type OutgoingMessage struct {
	Body []byte

	// Key is used by Kafka for partitioning and by Pub/Sub as the ordering key.
	Key []byte

	// Headers travel as broker headers or, for Pub/Sub, as attributes.
	Headers map[string]string

	// Delay requests deferred delivery. Only NSQ supports it.
	Delay time.Duration
}

// PublishResult carries what the broker reported back.
type PublishResult struct {
	MessageID string
	Topic     string
	Timestamp time.Time
}

// Message is a received message.
type Message interface {
	Body() []byte
	Key() []byte
	Header(key string) string
	Headers() map[string]string
	ID() string
	Topic() string
	Timestamp() time.Time

	// Ack acknowledges successful processing.
	Ack(ctx context.Context) error
	// Nack asks the broker to redeliver when it can.
	Nack(ctx context.Context) error
}

// message adapts every broker delivery to Message. ack and nack are invoked at most once in total.
type message struct {
	body      []byte
	key       []byte
	headers   map[string]string
	id        string
	topic     string
	timestamp time.Time

	ack  func(ctx context.Context) error
	nack func(ctx context.Context) error

	responded atomic.Bool
}

func (m *message) Body() []byte               { return m.body }
func (m *message) Key() []byte                { return m.key }
func (m *message) Header(key string) string   { return m.headers[key] }
func (m *message) Headers() map[string]string { return m.headers }
func (m *message) ID() string                 { return m.id }
func (m *message) Topic() string              { return m.topic }
func (m *message) Timestamp() time.Time       { return m.timestamp }

func (m *message) Ack(ctx context.Context) error {
	return m.respond(ctx, m.ack)
}

func (m *message) Nack(ctx context.Context) error {
	return m.respond(ctx, m.nack)
}

func (m *message) respond(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.responded.Swap(true) || fn == nil {
		return nil
	}
	return fn(ctx)
}

// deliver runs handler on msg and, when autoAck is set and the handler did not
// respond itself, acks or nacks according to its result.
func deliver(ctx context.Context, kind string, handler Handler, msg *message, autoAck bool) error {
	herr := callHandlerWithRecover(ctx, kind, func() error {
		return handler(ctx, msg)
	})
	if !autoAck || msg.responded.Load() {
		return herr
	}
	if herr == nil {
		return msg.Ack(ctx)
	}
	if err := msg.Nack(ctx); err != nil {
		return errors.Join(herr, err)
	}
	return herr
}
