package messaging

import (
	"context"
	"io"
	"time"
)

// HeaderSessionID carries the session id on brokers that model it as a header.
const HeaderSessionID = "session-id"

// Publisher sends messages to a destination (queue/topic/subject) over one
// broker connection.
type Publisher interface {
	io.Closer

	// Publish sends a message to the destination.
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	// Body is the message payload, sent unchanged.
	Body []byte

	// MessageID is the application message id (when supported).
	MessageID string

	// SessionID groups related messages for ordered, single-consumer processing.
	SessionID string

	// ContentType is the MIME type of Body (when supported).
	ContentType string

	// Headers support arbitrary binary values and duplicate keys.
	Headers []Header
}

// Header is a key/value pair used for message headers.
type Header struct {
	// Key is the header name.
	Key string
	// Value is the header value.
	Value []byte
}

// PublishResult carries optional broker-specific publish metadata.
type PublishResult struct {
	// MessageID is the broker-assigned or application message ID.
	MessageID string

	// Topic is the destination used for publishing.
	Topic string

	// Timestamp is when the message was handed to the broker.
	Timestamp time.Time
}

// headersWithSession returns msg headers plus the session header when a session id is set.
func headersWithSession(msg OutgoingMessage) []Header {
	headers := make([]Header, 0, len(msg.Headers)+1)
	for _, h := range msg.Headers {
		if h.Key == "" {
			continue
		}
		headers = append(headers, h)
	}
	if msg.SessionID != "" {
		headers = append(headers, Header{Key: HeaderSessionID, Value: []byte(msg.SessionID)})
	}
	return headers
}
