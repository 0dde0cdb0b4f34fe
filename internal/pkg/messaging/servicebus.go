package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

var (
	// ErrServiceBusConnectionStringRequired is returned when no connection string is configured.
	ErrServiceBusConnectionStringRequired = errors.New("pkgmessage: servicebus connection string is required")
	// ErrServiceBusQueueRequired is returned when the queue name is empty.
	ErrServiceBusQueueRequired = errors.New("pkgmessage: servicebus queue is required")
)

const defaultCloseTimeout = 30 * time.Second

// ServiceBusConfig configures the Azure Service Bus implementation.
type ServiceBusConfig struct {
	// ConnectionString is the namespace connection string
	// (Endpoint=sb://...;SharedAccessKeyName=...;SharedAccessKey=...).
	ConnectionString string

	// ClientOptions are passed to the Service Bus client.
	ClientOptions *azservicebus.ClientOptions

	// CloseTimeout bounds how long releasing the sender and the client may take.
	CloseTimeout time.Duration
}

type serviceBusClient interface {
	NewSender(queueOrTopic string) (serviceBusSender, error)
	Close(ctx context.Context) error
}

type serviceBusSender interface {
	SendMessage(ctx context.Context, msg *azservicebus.Message, opts *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

type azServiceBusClient struct {
	client *azservicebus.Client
}

func (c azServiceBusClient) NewSender(queueOrTopic string) (serviceBusSender, error) {
	sender, err := c.client.NewSender(queueOrTopic, nil)
	if err != nil {
		return nil, err
	}
	return sender, nil
}

func (c azServiceBusClient) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}

// ServiceBus is a messaging implementation backed by Azure Service Bus.
//
// The client (AMQP connection) lives until Close; each Publish opens a sender
// scoped to the destination queue and closes it before returning.
type ServiceBus struct {
	client       serviceBusClient
	closeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// NewServiceBus constructs a Service Bus messaging client.
func NewServiceBus(cfg ServiceBusConfig) (*ServiceBus, error) {
	if cfg.ConnectionString == "" {
		return nil, ErrServiceBusConnectionStringRequired
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, cfg.ClientOptions)
	if err != nil {
		return nil, fmt.Errorf("pkgmessage: servicebus new client: %w", err)
	}

	return newServiceBus(azServiceBusClient{client: client}, cfg.CloseTimeout), nil
}

func newServiceBus(client serviceBusClient, closeTimeout time.Duration) *ServiceBus {
	if closeTimeout <= 0 {
		closeTimeout = defaultCloseTimeout
	}
	return &ServiceBus{client: client, closeTimeout: closeTimeout}
}

// Close releases the Service Bus connection.
func (s *ServiceBus) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.closeTimeout)
	defer cancel()

	if err := s.client.Close(ctx); err != nil {
		return fmt.Errorf("pkgmessage: servicebus close: %w", err)
	}
	return nil
}

// Publish sends one message to a Service Bus queue or topic.
func (s *ServiceBus) Publish(ctx context.Context, destination string, msg OutgoingMessage) (result PublishResult, err error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrServiceBusQueueRequired
	}
	if err := s.ensureOpen(); err != nil {
		return PublishResult{}, err
	}

	sender, err := s.client.NewSender(destination)
	if err != nil {
		return PublishResult{}, fmt.Errorf("pkgmessage: servicebus new sender: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.closeTimeout)
		defer cancel()

		cerr := sender.Close(closeCtx)
		if cerr == nil {
			return
		}
		if err != nil {
			err = errors.Join(err, fmt.Errorf("pkgmessage: servicebus close sender: %w", cerr))
			return
		}
		slog.WarnContext(ctx, "failed to close servicebus sender after send", "queue", destination, "error", cerr)
	}()

	sbMsg := newServiceBusMessage(msg)
	if err := sender.SendMessage(ctx, sbMsg, nil); err != nil {
		return PublishResult{}, fmt.Errorf("pkgmessage: servicebus send: %w", err)
	}

	return PublishResult{
		MessageID: msg.MessageID,
		Topic:     destination,
		Timestamp: time.Now(),
	}, nil
}

func (s *ServiceBus) ensureOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}
	return nil
}

func newServiceBusMessage(msg OutgoingMessage) *azservicebus.Message {
	sbMsg := &azservicebus.Message{
		Body: msg.Body,
	}
	if msg.SessionID != "" {
		sbMsg.SessionID = &msg.SessionID
	}
	if msg.MessageID != "" {
		sbMsg.MessageID = &msg.MessageID
	}
	if msg.ContentType != "" {
		sbMsg.ContentType = &msg.ContentType
	}

	for _, h := range msg.Headers {
		if h.Key == "" {
			continue
		}
		if sbMsg.ApplicationProperties == nil {
			sbMsg.ApplicationProperties = make(map[string]any, len(msg.Headers))
		}
		sbMsg.ApplicationProperties[h.Key] = string(h.Value)
	}

	return sbMsg
}
