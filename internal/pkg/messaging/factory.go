package messaging

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Driver names accepted by NewFromDriver.
const (
	DriverNone         = "none"
	DriverNSQ          = "nsq"
	DriverNATS         = "nats"
	DriverKafka        = "kafka"
	DriverGooglePubSub = "google-pubsub"
)

var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions holds per-backend settings. Only the block matching the
// selected driver is read.
type FactoryOptions struct {
	NSQ    NSQConfig
	Kafka  KafkaConfig
	NATS   NATSConfig
	PubSub PubSubConfig
}

type constructor func(ctx context.Context, opts FactoryOptions) (Publisher, error)

var drivers = map[string]constructor{
	DriverNone: func(context.Context, FactoryOptions) (Publisher, error) { return NewNoop(), nil },
	DriverNSQ: func(_ context.Context, o FactoryOptions) (Publisher, error) {
		return NewNSQ(o.NSQ)
	},
	DriverKafka: func(_ context.Context, o FactoryOptions) (Publisher, error) {
		return NewKafka(o.Kafka)
	},
	DriverNATS: func(_ context.Context, o FactoryOptions) (Publisher, error) {
		return NewNATS(o.NATS)
	},
	DriverGooglePubSub: func(ctx context.Context, o FactoryOptions) (Publisher, error) {
		return NewPubSub(ctx, o.PubSub)
	},
}

// Drivers lists the accepted driver names in sorted order.
func Drivers() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NewFromDriver builds the Publisher registered under driver. A blank driver
// selects DriverNone so deployments without a broker keep working.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Publisher, error) {
	name := strings.ToLower(strings.TrimSpace(driver))
	if name == "" {
		name = DriverNone
	}

	build, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownDriver, driver, strings.Join(Drivers(), ", "))
	}
	return build(ctx, opts)
}
