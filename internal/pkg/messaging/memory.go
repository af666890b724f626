package messaging

import (
	"context"
	"errors"
	"maps"
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"
)

// ErrBufferFull is returned by the memory driver when a subscriber group cannot take another message.
var ErrBufferFull = errors.New("messaging: buffer full")

const defaultMemoryBuffer = 256

// MemoryConfig configures the in-process driver.
type MemoryConfig struct {
	// BufferSize is the per-group queue length.
	BufferSize int
}

// Memory is an in-process broker. Every group subscribed to a topic receives
// each message once; consumers in the same group share the work. A message
// published to a topic without subscribers is dropped.
// Nack puts the message back on its group queue when there is room.
type Memory struct {
	buffer int
	seq    atomic.Uint64

	mu     sync.RWMutex
	topics map[string]map[string]*memoryGroup
	closed bool
}

type memoryGroup struct {
	ch   chan *message
	refs int
	done chan struct{}
}

// NewMemory constructs an in-process broker.
func NewMemory(cfg MemoryConfig) *Memory {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultMemoryBuffer
	}
	return &Memory{
		buffer: cfg.BufferSize,
		topics: map[string]map[string]*memoryGroup{},
	}
}

// Close stops every running Consume call. Further calls fail with ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	for _, groups := range m.topics {
		for _, g := range groups {
			close(g.done)
		}
	}
	m.topics = nil
	return nil
}

// Publish hands a copy of msg to every group subscribed to destination without blocking.
func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return PublishResult{}, ErrClosed
	}

	res := PublishResult{
		MessageID: strconv.FormatUint(m.seq.Inc(), 10),
		Topic:     destination,
		Timestamp: time.Now(),
	}

	var pubErr error
	for _, g := range m.topics[destination] {
		delivery := &message{
			body:      msg.Body,
			key:       msg.Key,
			headers:   maps.Clone(msg.Headers),
			id:        res.MessageID,
			topic:     destination,
			timestamp: res.Timestamp,
		}
		select {
		case g.ch <- delivery:
		default:
			pubErr = ErrBufferFull
		}
	}
	return res, pubErr
}

// Consume joins the group given by WithGroup (a private group when empty) and
// blocks until ctx is done or the broker is closed.
func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
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
	group := co.group
	if group == "" {
		group = "private-" + strconv.FormatUint(m.seq.Inc(), 10)
	}

	g, err := m.join(source, group)
	if err != nil {
		return err
	}
	defer m.leave(source, group)

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-g.done:
					return
				case msg := <-g.ch:
					withRequeue(msg, g)
					//nolint:errcheck // handler errors are logged by the handler
					_ = deliver(ctx, "memory", handler, msg, co.autoAck)
				}
			}
		})
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return ErrClosed
}

func withRequeue(msg *message, g *memoryGroup) {
	msg.nack = func(context.Context) error {
		retry := &message{
			body:      msg.body,
			key:       msg.key,
			headers:   msg.headers,
			id:        msg.id,
			topic:     msg.topic,
			timestamp: msg.timestamp,
		}
		select {
		case g.ch <- retry:
			return nil
		default:
			return ErrBufferFull
		}
	}
}

func (m *Memory) join(topic, group string) (*memoryGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	groups, ok := m.topics[topic]
	if !ok {
		groups = map[string]*memoryGroup{}
		m.topics[topic] = groups
	}
	g, ok := groups[group]
	if !ok {
		g = &memoryGroup{ch: make(chan *message, m.buffer), done: make(chan struct{})}
		groups[group] = g
	}
	g.refs++
	return g, nil
}

func (m *Memory) leave(topic, group string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups, ok := m.topics[topic]
	if !ok {
		return
	}
	g, ok := groups[group]
	if !ok {
		return
	}
	g.refs--
	if g.refs > 0 {
		return
	}
	delete(groups, group)
	if len(groups) == 0 {
		delete(m.topics, topic)
	}
}

// Subscribers reports how many groups currently listen on topic.
func (m *Memory) Subscribers(topic string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.topics[topic])
}
