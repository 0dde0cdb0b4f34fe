// Package messaging provides a broker-agnostic API for publishing messages.
//
// Callers depend on the Publisher interface and pick a backend by driver name
// (Azure Service Bus, Kafka, NATS, NSQ, Google Pub/Sub or AMQP 0-9-1). Every
// implementation owns one broker connection, opened by its constructor and
// released by Close. Queue-scoped send handles are acquired and released
// inside each Publish call.
package messaging
