package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"
)

var (
	// ErrPubSubProjectIDRequired is returned when a ProjectID is required but missing.
	ErrPubSubProjectIDRequired = errors.New("pkgmessage: pubsub project id is required")
	// ErrPubSubClientRequired is returned when the Pub/Sub client is nil.
	ErrPubSubClientRequired = errors.New("pkgmessage: pubsub client is required")
	// ErrPubSubTopicRequired is returned when the publish topic is empty.
	ErrPubSubTopicRequired = errors.New("pkgmessage: pubsub topic is required")
)

// PubSubConfig configures the Google Pub/Sub implementation.
type PubSubConfig struct {
	// ProjectID is the Google Cloud project ID.
	ProjectID string
	// ClientOptions are used when creating the client.
	ClientOptions []option.ClientOption
}

// PubSub is a messaging implementation backed by Google Pub/Sub.
//
// The session id is used as the ordering key, so messages of one session are
// delivered in publish order to subscriptions with ordering enabled.
type PubSub struct {
	client *pubsub.Client

	mu     sync.Mutex
	closed bool
}

// NewPubSub constructs a PubSub messaging client.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectIDRequired
	}

	c, err := pubsub.NewClient(ctx, cfg.ProjectID, cfg.ClientOptions...)
	if err != nil {
		return nil, fmt.Errorf("pkgmessage: pubsub new client: %w", err)
	}

	return &PubSub{client: c}, nil
}

// Close closes the Pub/Sub client. Calling it twice is a no-op.
func (p *PubSub) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

// Publish sends a message to a Pub/Sub topic and waits for the server id.
func (p *PubSub) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrPubSubTopicRequired
	}
	if err := p.ensurePubSubOpen(); err != nil {
		return PublishResult{}, err
	}

	pub := p.client.Publisher(destination)
	pub.EnableMessageOrdering = msg.SessionID != ""
	defer pub.Stop()

	res := pub.Publish(ctx, &pubsub.Message{
		Data:        msg.Body,
		Attributes:  pubSubAttributes(msg),
		OrderingKey: msg.SessionID,
	})
	id, err := res.Get(ctx)
	if err != nil {
		return PublishResult{}, fmt.Errorf("pkgmessage: pubsub publish: %w", err)
	}

	return PublishResult{
		MessageID: id,
		Topic:     destination,
		Timestamp: time.Now(),
	}, nil
}

func (p *PubSub) ensurePubSubOpen() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return ErrPubSubClientRequired
	}
	if p.closed {
		return io.ErrClosedPipe
	}
	return nil
}

func pubSubAttributes(msg OutgoingMessage) map[string]string {
	headers := headersWithSession(msg)
	if len(headers) == 0 && msg.MessageID == "" && msg.ContentType == "" {
		return nil
	}

	attrs := make(map[string]string, len(headers)+2)
	for _, h := range headers {
		attrs[h.Key] = string(h.Value)
	}
	if msg.MessageID != "" {
		attrs["message-id"] = msg.MessageID
	}
	if msg.ContentType != "" {
		attrs["content-type"] = msg.ContentType
	}
	return attrs
}
