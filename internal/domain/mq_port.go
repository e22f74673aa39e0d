package domain

import "context"

type Message struct {
	Key   []byte
	Value []byte
	// Commit acknowledges a consumed message. It is nil for messages that
	// carry no broker offset.
	Commit func(ctx context.Context) error
}

type PublisherPort interface {
	Publish(ctx context.Context, topic string, msgs ...Message) error
}

type SubscriberPort interface {
	Subscribe(ctx context.Context, topic, groupID string) (<-chan Message, error)
}

// LedgerPublisher announces recomputed ledgers to the bonus and rank engines.
type LedgerPublisher interface {
	PublishLedgers(ctx context.Context, members []*Member) error
}
