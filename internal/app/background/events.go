package background

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-genealogy-service/internal/usecase"
	genealogydto "github.com/LavaJover/shvark-genealogy-service/internal/usecase/dto/genealogy"
)

const (
	defaultEventRetryDelay    = 200 * time.Millisecond
	defaultMaxEventRetryDelay = 30 * time.Second
)

type ConsumerConfig struct {
	GroupID     string
	StatusTopic string
	VolumeTopic string
	// RetryBaseDelay and MaxRetryDelay bound the backoff between attempts
	// on a transient failure.
	RetryBaseDelay time.Duration
	MaxRetryDelay  time.Duration
}

// EventConsumer applies member status and volume events. Each event runs one
// incremental reconciliation. A message is committed once it is applied or
// rejected as permanently invalid; transient failures are retried with
// backoff and hold the partition until they succeed or ctx is done, so an
// uncommitted event is redelivered rather than lost.
type EventConsumer struct {
	subscriber     domain.SubscriberPort
	reconciliation usecase.ReconciliationUsecase
	volume         usecase.VolumeUsecase
	metrics        *metrics.GenealogyMetrics
	logger         *slog.Logger
	cfg            ConsumerConfig
}

func NewEventConsumer(
	subscriber domain.SubscriberPort,
	reconciliation usecase.ReconciliationUsecase,
	volume usecase.VolumeUsecase,
	genealogyMetrics *metrics.GenealogyMetrics,
	logger *slog.Logger,
	cfg ConsumerConfig,
) *EventConsumer {
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = defaultEventRetryDelay
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = defaultMaxEventRetryDelay
	}
	return &EventConsumer{
		subscriber:     subscriber,
		reconciliation: reconciliation,
		volume:         volume,
		metrics:        genealogyMetrics,
		logger:         logger,
		cfg:            cfg,
	}
}

// Run blocks until ctx is done or both subscriptions end.
func (c *EventConsumer) Run(ctx context.Context) error {
	handlers := map[string]func(context.Context, []byte) error{
		c.cfg.StatusTopic: c.handleStatus,
		c.cfg.VolumeTopic: c.handleVolume,
	}

	var wg sync.WaitGroup
	for topic, handle := range handlers {
		msgs, err := c.subscriber.Subscribe(ctx, topic, c.cfg.GroupID)
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", topic, err)
		}
		wg.Add(1)
		go func(topic string, msgs <-chan domain.Message, handle func(context.Context, []byte) error) {
			defer wg.Done()
			for msg := range msgs {
				if !c.process(ctx, topic, msg, handle) {
					return
				}
			}
		}(topic, msgs, handle)
	}
	c.logger.Info("event consumer started", "group_id", c.cfg.GroupID, "status_topic", c.cfg.StatusTopic, "volume_topic", c.cfg.VolumeTopic)
	wg.Wait()
	return nil
}

// process handles one message until it succeeds or fails permanently and then
// commits it. It returns false when ctx ended first; the message stays
// uncommitted.
func (c *EventConsumer) process(ctx context.Context, topic string, msg domain.Message, handle func(context.Context, []byte) error) bool {
	for attempt := 1; ; attempt++ {
		err := handle(ctx, msg.Value)
		c.metrics.RecordEvent(topic, err)
		if err == nil || permanent(err) {
			if err != nil {
				c.logger.Error("dropping invalid event", "topic", topic, "key", string(msg.Key), "error", err)
			}
			c.commit(ctx, topic, msg)
			return true
		}
		if ctx.Err() != nil {
			return false
		}

		delay := c.retryDelay(attempt)
		c.logger.Warn("failed to apply event, retrying",
			"topic", topic, "key", string(msg.Key), "attempt", attempt, "retry_in", delay, "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false
		}
	}
}

func (c *EventConsumer) commit(ctx context.Context, topic string, msg domain.Message) {
	if msg.Commit == nil {
		return
	}
	if err := msg.Commit(ctx); err != nil {
		c.logger.Error("failed to commit event", "topic", topic, "key", string(msg.Key), "error", err)
	}
}

// retryDelay doubles per attempt and is capped at MaxRetryDelay.
func (c *EventConsumer) retryDelay(attempt int) time.Duration {
	d := c.cfg.RetryBaseDelay << min(attempt-1, 20)
	if d <= 0 || d > c.cfg.MaxRetryDelay {
		return c.cfg.MaxRetryDelay
	}
	return d
}

// permanent reports errors that the same event would hit again on redelivery.
func permanent(err error) bool {
	for _, target := range []error{
		errMalformedEvent,
		domain.ErrInvalidStatus,
		domain.ErrInvalidVolume,
		domain.ErrInvalidMember,
		domain.ErrMemberNotFound,
		domain.ErrTreeCorrupted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var errMalformedEvent = errors.New("malformed event")

func (c *EventConsumer) handleStatus(ctx context.Context, payload []byte) error {
	var ev kafka.MemberStatusEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	_, err := c.reconciliation.ChangeStatus(ctx, ev.MemberID, domain.MemberStatus(ev.Status))
	return err
}

func (c *EventConsumer) handleVolume(ctx context.Context, payload []byte) error {
	var ev kafka.VolumeCreditEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("%w: %v", errMalformedEvent, err)
	}
	_, err := c.volume.Credit(ctx, &genealogydto.CreditVolumeInput{
		MemberID:    ev.MemberID,
		BV:          ev.BV,
		PV:          ev.PV,
		EntryType:   domain.VolumeEntryType(ev.EntryType),
		ReferenceID: ev.ReferenceID,
	})
	return err
}
