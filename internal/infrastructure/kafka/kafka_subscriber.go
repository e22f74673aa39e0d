package kafka

import (
	"context"
	"log/slog"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type DefaultKafkaSubscriber struct {
	brokers []string
	logger  *slog.Logger
}

func NewDefaultKafkaSubscriber(brokers []string, logger *slog.Logger) *DefaultKafkaSubscriber {
	return &DefaultKafkaSubscriber{brokers: brokers, logger: logger}
}

// Subscribe reads topic as part of groupID until ctx is done. The returned
// channel is closed when the reader stops. Offsets are not committed on
// read: the consumer commits each message through Message.Commit once it is
// handled, so an unhandled message is redelivered after a restart.
func (k *DefaultKafkaSubscriber) Subscribe(ctx context.Context, topic, groupID string) (<-chan domain.Message, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	out := make(chan domain.Message)
	go func() {
		defer close(out)
		defer reader.Close()
		for {
			m, err := reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					k.logger.Error("kafka reader stopped", "topic", topic, "error", err)
				}
				return
			}
			msg := domain.Message{
				Key:   m.Key,
				Value: m.Value,
				Commit: func(ctx context.Context) error {
					return reader.CommitMessages(ctx, m)
				},
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
