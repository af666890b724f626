package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
var ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")

// KafkaConfig configures the Kafka implementation.
type KafkaConfig struct {
	Brokers []string
	Dialer  *kafka.Dialer
}

// Kafka is a messaging implementation backed by kafka-go. Ack commits the
// offset; Nack leaves it uncommitted so the group re-reads it after a rebalance.
type Kafka struct {
	cfg KafkaConfig

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers map[*kafka.Reader]struct{}
	closed  bool
}

// NewKafka constructs a Kafka client. Connections are opened lazily.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		cfg:     cfg,
		writers: map[string]*kafka.Writer{},
		readers: map[*kafka.Reader]struct{}{},
	}, nil
}

// Close shuts down all readers and writers.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	writers, readers := k.writers, k.readers
	k.writers, k.readers = nil, nil
	k.mu.Unlock()

	var closeErr error
	for r := range readers {
		closeErr = errors.Join(closeErr, r.Close())
	}
	for _, w := range writers {
		closeErr = errors.Join(closeErr, w.Close())
	}
	return closeErr
}

// Publish writes a message to a Kafka topic, keyed by msg.Key.
func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	writer, err := k.writer(destination)
	if err != nil {
		return PublishResult{}, err
	}

	kmsg := kafka.Message{Key: msg.Key, Value: msg.Body, Time: time.Now()}
	for key, v := range msg.Headers {
		if key != "" {
			kmsg.Headers = append(kmsg.Headers, kafka.Header{Key: key, Value: []byte(v)})
		}
	}

	if err := writer.WriteMessages(ctx, kmsg); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: kafka publish: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: kmsg.Time}, nil
}

// Consume reads source as part of the consumer group given by WithGroup.
// It blocks until ctx is done or an offset commit fails.
func (k *Kafka) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	co := newConsumeOptions(opts...)
	if co.group == "" {
		return ErrGroupRequired
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.cfg.Brokers,
		GroupID:  co.group,
		Topic:    source,
		MaxBytes: 10e6,
		Dialer:   k.cfg.Dialer,
	})

	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return errors.Join(ErrClosed, reader.Close())
	}
	k.readers[reader] = struct{}{}
	k.mu.Unlock()

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgCh := make(chan kafka.Message)
	errCh := make(chan error, 1)
	fail := func(err error) {
		select {
		case errCh <- err:
		default:
		}
		cancel()
	}

	go func() {
		defer close(msgCh)
		for {
			m, err := reader.FetchMessage(consumeCtx)
			if err != nil {
				if consumeCtx.Err() == nil {
					fail(err)
				}
				return
			}
			select {
			case msgCh <- m:
			case <-consumeCtx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for m := range msgCh {
				msg := kafkaMessage(reader, m, fail)
				//nolint:errcheck // commit failures are reported through fail
				_ = deliver(consumeCtx, "kafka", handler, msg, co.autoAck)
			}
		})
	}
	wg.Wait()

	k.mu.Lock()
	if k.readers != nil {
		delete(k.readers, reader)
	}
	k.mu.Unlock()

	var consumeErr error
	select {
	case err := <-errCh:
		consumeErr = fmt.Errorf("messaging: kafka consume: %w", err)
	default:
		consumeErr = ctx.Err()
	}
	return errors.Join(consumeErr, reader.Close())
}

func (k *Kafka) writer(topic string) (*kafka.Writer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return nil, ErrClosed
	}
	if w, ok := k.writers[topic]; ok {
		return w, nil
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(k.cfg.Brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	if k.cfg.Dialer != nil {
		w.Transport = &kafka.Transport{
			Dial:     k.cfg.Dialer.DialFunc,
			ClientID: k.cfg.Dialer.ClientID,
			TLS:      k.cfg.Dialer.TLS,
			SASL:     k.cfg.Dialer.SASLMechanism,
		}
	}
	k.writers[topic] = w
	return w, nil
}

func kafkaMessage(reader *kafka.Reader, m kafka.Message, fail func(error)) *message {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	return &message{
		body:      m.Value,
		key:       m.Key,
		headers:   headers,
		id:        fmt.Sprintf("%d:%d", m.Partition, m.Offset),
		topic:     m.Topic,
		timestamp: m.Time,
		ack: func(ctx context.Context) error {
			if err := reader.CommitMessages(ctx, m); err != nil {
				fail(err)
				return err
			}
			return nil
		},
	}
}
