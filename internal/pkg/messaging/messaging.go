package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrDestinationRequired is returned when Publish is called with an empty destination.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrClosed is returned when publishing through a closed publisher.
	ErrClosed = errors.New("messaging: publisher closed")
)

// Publisher sends messages to a destination (subject, topic).
type Publisher interface {
	io.Closer

	// Publish sends msg to destination and waits for the broker to accept it
	// or for ctx to end.
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage is a broker-agnostic message.
type OutgoingMessage struct {
	// Body is the payload.
	Body []byte
	// Key routes related messages together (Kafka partition key, Pub/Sub ordering key).
	Key []byte
	// Headers are carried as native headers or attributes where the broker supports them.
	Headers []Header
}

// Header is a key/value pair attached to a message.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries what the broker reported back.
type PublishResult struct {
	// MessageID is set by brokers that assign ids (Pub/Sub).
	MessageID string
	// Destination echoes where the message went.
	Destination string
	// Timestamp is when the publish completed.
	Timestamp time.Time
}

func validHeaders(hs []Header) []Header {
	out := hs[:0:0]
	for _, h := range hs {
		if h.Key != "" {
			out = append(out, h)
		}
	}
	return out
}
