package entity

import "time"

// DefaultSessionID tags a message when no session id is configured or given.
const DefaultSessionID = "42"

// Message is one payload read from the messages location, ready to publish.
type Message struct {
	// Name is the file name the message was read from.
	Name string
	// Body is the whole file content, sent unchanged.
	Body []byte
	// ContentType is reported by object stores; empty for local files.
	ContentType string
	// MessageID identifies this send for broker-side deduplication and tracing.
	MessageID string
	// SessionID groups related messages on session-enabled queues.
	SessionID string
}

// Receipt describes a message accepted by the broker.
type Receipt struct {
	Queue     string
	MessageID string
	SentAt    time.Time
}
