package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const pubsubScope = "https://www.googleapis.com/auth/pubsub"

// ErrPubSubProjectIDRequired is returned when the project id is missing.
var ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")

// PubSubConfig configures the Google Pub/Sub publisher.
type PubSubConfig struct {
	// ProjectID is the Google Cloud project id.
	ProjectID string
	// CredentialsJSON is a service account key. When empty, Application
	// Default Credentials (or PUBSUB_EMULATOR_HOST) are used.
	CredentialsJSON []byte
	// ClientOptions are appended after the credential option.
	ClientOptions []option.ClientOption
}

// PubSub publishes to Google Pub/Sub topics. Headers become string attributes
// and msg.Key becomes the ordering key.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	closed     bool
	publishers map[string]*pubsub.Publisher
}

// NewPubSub constructs a Pub/Sub client.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectIDRequired
	}

	var opts []option.ClientOption
	if len(cfg.CredentialsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, cfg.CredentialsJSON, pubsubScope)
		if err != nil {
			return nil, fmt.Errorf("messaging: pubsub credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	opts = append(opts, cfg.ClientOptions...)

	c, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub new client: %w", err)
	}

	return &PubSub{client: c, publishers: map[string]*pubsub.Publisher{}}, nil
}

// Publish sends msg to the topic and waits for the server-assigned id.
func (p *PubSub) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}

	pub, err := p.publisher(destination, len(msg.Key) > 0)
	if err != nil {
		return PublishResult{}, err
	}

	attrs := map[string]string{}
	for _, h := range validHeaders(msg.Headers) {
		attrs[h.Key] = string(h.Value)
	}

	id, err := pub.Publish(ctx, &pubsub.Message{
		Data:        msg.Body,
		Attributes:  attrs,
		OrderingKey: string(msg.Key),
	}).Get(ctx)
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: pubsub publish: %w", err)
	}

	return PublishResult{MessageID: id, Destination: destination, Timestamp: time.Now()}, nil
}

func (p *PubSub) publisher(topic string, ordered bool) (*pubsub.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if pub, ok := p.publishers[topic]; ok {
		return pub, nil
	}

	pub := p.client.Publisher(topic)
	pub.EnableMessageOrdering = ordered
	p.publishers[topic] = pub
	return pub, nil
}

// Close flushes publishers and closes the client.
func (p *PubSub) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pubs := p.publishers
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}
	return p.client.Close()
}
