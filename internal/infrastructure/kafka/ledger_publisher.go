package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
)

const (
	defaultLedgerBatchSize  = 100
	defaultLedgerMaxRetries = 3
)

// LedgerPublisher emits one LedgerEvent per member, keyed by member id so a
// member's updates stay ordered within a partition.
type LedgerPublisher struct {
	pub        domain.PublisherPort
	topic      string
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

func NewLedgerPublisher(pub domain.PublisherPort, topic string, logger *slog.Logger) *LedgerPublisher {
	return &LedgerPublisher{
		pub:        pub,
		topic:      topic,
		batchSize:  defaultLedgerBatchSize,
		maxRetries: defaultLedgerMaxRetries,
		retryDelay: time.Second,
		logger:     logger,
	}
}

func (p *LedgerPublisher) PublishLedgers(ctx context.Context, members []*domain.Member) error {
	if len(members) == 0 {
		return nil
	}

	msgs := make([]domain.Message, 0, len(members))
	for _, m := range members {
		v, err := json.Marshal(NewLedgerEvent(m))
		if err != nil {
			return fmt.Errorf("marshal ledger of %s: %w", m.MemberID, err)
		}
		msgs = append(msgs, domain.Message{Key: []byte(m.MemberID), Value: v})
	}

	for i := 0; i < len(msgs); i += p.batchSize {
		end := min(i+p.batchSize, len(msgs))
		if err := p.publishBatch(ctx, msgs[i:end]); err != nil {
			return fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
	}
	p.logger.Debug("ledger events published", "topic", p.topic, "count", len(msgs))
	return nil
}

func (p *LedgerPublisher) publishBatch(ctx context.Context, batch []domain.Message) error {
	var err error
	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		if err = p.pub.Publish(ctx, p.topic, batch...); err == nil {
			return nil
		}
		p.logger.Warn("ledger batch publish failed", "attempt", attempt, "error", err)
		if attempt == p.maxRetries {
			break
		}
		select {
		case <-time.After(time.Duration(attempt) * p.retryDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// NoopLedgerPublisher is used when no broker is configured.
type NoopLedgerPublisher struct{}

func (NoopLedgerPublisher) PublishLedgers(context.Context, []*domain.Member) error {
	return nil
}
