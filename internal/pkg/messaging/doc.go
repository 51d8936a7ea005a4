// Package messaging publishes domain events to a message broker.
//
// Business code depends on the Publisher interface only; the broker (NATS,
// NSQ, Kafka, Google Pub/Sub, or none) is picked at startup with
// NewFromDriver.
package messaging
