// Package messaging provides a broker-agnostic API for publishing and
// consuming messages.
//
// Use cases publish through Publisher and consumers register a Handler with
// Consumer; the concrete broker (NATS, NSQ, Kafka, Google Pub/Sub or the
// in-process memory driver) is chosen by configuration through NewFromDriver.
package messaging
