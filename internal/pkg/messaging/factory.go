package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverServiceBus selects the Azure Service Bus backend.
	DriverServiceBus = "servicebus"
	// DriverNSQ selects the NSQ backend.
	DriverNSQ = "nsq"
	// DriverNATS selects the NATS backend.
	DriverNATS = "nats"
	// DriverKafka selects the Kafka backend.
	DriverKafka = "kafka"
	// DriverGooglePubSub selects the Google Pub/Sub backend.
	DriverGooglePubSub = "google-pubsub"
	// DriverAMQP selects the AMQP 0-9-1 (RabbitMQ) backend.
	DriverAMQP = "amqp"
)

// ErrUnknownDriver indicates an unsupported messaging driver.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions groups config for supported messaging backends.
type FactoryOptions struct {
	// ServiceBus provides configuration for the Azure Service Bus driver.
	ServiceBus ServiceBusConfig
	// NSQ provides configuration for the NSQ driver.
	NSQ NSQConfig
	// Kafka provides configuration for the Kafka driver.
	Kafka KafkaConfig
	// NATS provides configuration for the NATS driver.
	NATS NATSConfig
	// PubSub provides configuration for the Google Pub/Sub driver.
	PubSub PubSubConfig
	// AMQP provides configuration for the AMQP driver.
	AMQP AMQPConfig
}

// ParseDriver normalizes a driver name. An empty name selects Service Bus.
func ParseDriver(driver string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(driver))
	switch d {
	case "":
		return DriverServiceBus, nil
	case DriverServiceBus, DriverNSQ, DriverNATS, DriverKafka, DriverGooglePubSub, DriverAMQP:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

// NewFromDriver constructs a Publisher by driver name. An empty name selects
// Service Bus.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverServiceBus, "":
		return NewServiceBus(opts.ServiceBus)
	case DriverNSQ:
		return NewNSQ(opts.NSQ)
	case DriverKafka:
		return NewKafka(opts.Kafka)
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverGooglePubSub:
		return NewPubSub(ctx, opts.PubSub)
	case DriverAMQP:
		return NewAMQP(opts.AMQP)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
