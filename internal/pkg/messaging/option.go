package messaging

type consumeOptions struct {
	// concurrency is the number of handlers running in parallel.
	concurrency int

	// autoAck acks on a nil handler error and nacks otherwise.
	autoAck bool

	// group is the Kafka consumer group, NSQ channel, NATS queue group or Pub/Sub subscription.
	group string

	// maxInFlight limits unacknowledged messages where the broker supports it.
	maxInFlight int
}

// ConsumeOption configures a Consume call.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	co := consumeOptions{concurrency: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&co)
		}
	}
	if co.concurrency <= 0 {
		co.concurrency = 1
	}
	return co
}

// WithConcurrency sets how many handler goroutines process messages in parallel.
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithGroup sets the load-balancing group: Kafka consumer group, NSQ channel,
// NATS queue group or Google Pub/Sub subscription.
func WithGroup(group string) ConsumeOption {
	return func(o *consumeOptions) { o.group = group }
}

// WithAutoAck controls whether the consumer acks or nacks after the handler returns.
func WithAutoAck(autoAck bool) ConsumeOption {
	return func(o *consumeOptions) { o.autoAck = autoAck }
}

// WithMaxInFlight limits the number of unacknowledged messages.
func WithMaxInFlight(n int) ConsumeOption {
	return func(o *consumeOptions) { o.maxInFlight = n }
}
