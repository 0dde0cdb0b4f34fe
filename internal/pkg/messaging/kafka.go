package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	// ErrKafkaTopicRequired is returned when the topic is empty.
	ErrKafkaTopicRequired = errors.New("pkgmessage: kafka topic is required")
	// ErrKafkaBrokersRequired is returned when no Kafka brokers are configured.
	ErrKafkaBrokersRequired = errors.New("pkgmessage: kafka brokers are required")
)

// KafkaConfig configures the Kafka implementation.
type KafkaConfig struct {
	// Brokers lists Kafka broker addresses.
	Brokers []string

	// Transport configures broker connections (TLS, SASL, dial timeout).
	Transport *kafka.Transport

	// RequiredAcks is the acknowledgement level; zero means one broker ack.
	RequiredAcks kafka.RequiredAcks

	// WriteTimeout bounds a single write.
	WriteTimeout time.Duration
}

type kafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka is a messaging implementation backed by kafka-go.
//
// The session id becomes the record key so every message of a session lands
// on the same partition and keeps its order.
type Kafka struct {
	newWriter func(topic string) kafkaWriter

	mu     sync.Mutex
	closed bool
}

// NewKafka constructs a Kafka messaging client.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	brokers := append([]string{}, cfg.Brokers...)
	acks := cfg.RequiredAcks
	if acks == kafka.RequireNone {
		acks = kafka.RequireOne
	}

	return newKafka(func(topic string) kafkaWriter {
		w := &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: acks,
			WriteTimeout: cfg.WriteTimeout,
		}
		if cfg.Transport != nil {
			w.Transport = cfg.Transport
		}
		return w
	}), nil
}

func newKafka(newWriter func(topic string) kafkaWriter) *Kafka {
	return &Kafka{newWriter: newWriter}
}

// Close marks the client closed. Writers are released by Publish.
func (k *Kafka) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.closed = true
	return nil
}

// Publish sends a message to a Kafka topic.
func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) (result PublishResult, err error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrKafkaTopicRequired
	}
	if err := k.ensureOpen(); err != nil {
		return PublishResult{}, err
	}

	writer := k.newWriter(destination)
	defer func() {
		if cerr := writer.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("pkgmessage: kafka close writer: %w", cerr))
		}
	}()

	kmsg := kafka.Message{
		Value: msg.Body,
		Time:  time.Now(),
	}
	if msg.SessionID != "" {
		kmsg.Key = []byte(msg.SessionID)
	}
	for _, h := range headersWithSession(msg) {
		kmsg.Headers = append(kmsg.Headers, kafka.Header{Key: h.Key, Value: h.Value})
	}
	if msg.MessageID != "" {
		kmsg.Headers = append(kmsg.Headers, kafka.Header{Key: "message-id", Value: []byte(msg.MessageID)})
	}
	if msg.ContentType != "" {
		kmsg.Headers = append(kmsg.Headers, kafka.Header{Key: "content-type", Value: []byte(msg.ContentType)})
	}

	if err := writer.WriteMessages(ctx, kmsg); err != nil {
		return PublishResult{}, fmt.Errorf("pkgmessage: kafka publish: %w", err)
	}

	return PublishResult{
		MessageID: msg.MessageID,
		Topic:     destination,
		Timestamp: kmsg.Time,
	}, nil
}

func (k *Kafka) ensureOpen() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return io.ErrClosedPipe
	}
	return nil
}
