package background_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/app/background"
	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-genealogy-service/internal/usecase"
	genealogydto "github.com/LavaJover/shvark-genealogy-service/internal/usecase/dto/genealogy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// preloadedSubscriber hands out buffered, already closed channels.
type preloadedSubscriber map[string][]domain.Message

func (s preloadedSubscriber) Subscribe(_ context.Context, topic, _ string) (<-chan domain.Message, error) {
	ch := make(chan domain.Message, len(s[topic]))
	for _, m := range s[topic] {
		ch <- m
	}
	close(ch)
	return ch, nil
}

// commits counts Message.Commit calls per key.
type commits struct {
	mu   sync.Mutex
	keys map[string]int
}

func (c *commits) message(t *testing.T, key string, v interface{}) domain.Message {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return c.raw(key, b)
}

func (c *commits) raw(key string, value []byte) domain.Message {
	return domain.Message{
		Key:   []byte(key),
		Value: value,
		Commit: func(context.Context) error {
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.keys == nil {
				c.keys = make(map[string]int)
			}
			c.keys[key]++
			return nil
		},
	}
}

func (c *commits) count(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keys[key]
}

// flakyStore fails the next failures transactions before reaching the store.
type flakyStore struct {
	*memory.Store
	mu       sync.Mutex
	failures int
}

var errConnectionReset = errors.New("connection reset by peer")

func (s *flakyStore) InTransaction(ctx context.Context, fn func(tx domain.Store) error) error {
	s.mu.Lock()
	fail := s.failures != 0
	if s.failures > 0 {
		s.failures--
	}
	s.mu.Unlock()
	if fail {
		return errConnectionReset
	}
	return s.Store.InTransaction(ctx, fn)
}

type consumerEnv struct {
	store          *memory.Store
	reconciliation usecase.ReconciliationUsecase
	metrics        *metrics.GenealogyMetrics
	cfg            background.ConsumerConfig
	newFn          func(store domain.Store, sub domain.SubscriberPort) *background.EventConsumer
}

func newConsumerEnv(t *testing.T) *consumerEnv {
	t.Helper()
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	audit := logger.NewSlogAuditLogger(log)
	m := metrics.NewGenealogyMetrics(prometheus.NewRegistry())
	options := usecase.DefaultGenealogyOptions()
	store := memory.NewStore()

	placement, err := usecase.NewDefaultPlacementUsecase(store, kafka.NoopLedgerPublisher{}, audit, m, log, options)
	require.NoError(t, err)
	_, err = placement.CreateRoot(ctx, &genealogydto.CreateRootInput{MemberID: "R", Status: domain.MemberStatusActive})
	require.NoError(t, err)
	_, err = placement.PlaceMember(ctx, &genealogydto.PlaceMemberInput{MemberID: "A", SponsorID: "R", PreferredSide: domain.PositionLeft})
	require.NoError(t, err)

	env := &consumerEnv{
		store:          store,
		reconciliation: usecase.NewDefaultReconciliationUsecase(store, kafka.NoopLedgerPublisher{}, audit, m, log, options),
		metrics:        m,
		cfg: background.ConsumerConfig{
			GroupID:        "genealogy-service",
			StatusTopic:    "status",
			VolumeTopic:    "volume",
			RetryBaseDelay: time.Millisecond,
			MaxRetryDelay:  5 * time.Millisecond,
		},
	}
	env.newFn = func(store domain.Store, sub domain.SubscriberPort) *background.EventConsumer {
		return background.NewEventConsumer(sub,
			usecase.NewDefaultReconciliationUsecase(store, kafka.NoopLedgerPublisher{}, audit, m, log, options),
			usecase.NewDefaultVolumeUsecase(store, kafka.NoopLedgerPublisher{}, audit, m, log, options),
			m, log, env.cfg)
	}
	return env
}

func (e *consumerEnv) member(t *testing.T, id string) *domain.Member {
	t.Helper()
	m, err := e.store.Members().GetMember(context.Background(), id)
	require.NoError(t, err)
	return m
}

func credit(bv int64, ref string) kafka.VolumeCreditEvent {
	return kafka.VolumeCreditEvent{MemberID: "A", BV: decimal.NewFromInt(bv), PV: decimal.NewFromInt(bv / 10), ReferenceID: ref}
}

func TestEventConsumer_AppliesEvents(t *testing.T) {
	env := newConsumerEnv(t)
	var c commits
	sub := preloadedSubscriber{
		"status": {
			c.message(t, "A", kafka.MemberStatusEvent{MemberID: "A", Status: "active"}),
			c.raw("bad", []byte("{")),
			c.message(t, "retired", kafka.MemberStatusEvent{MemberID: "A", Status: "retired"}),
		},
		"volume": {
			c.message(t, "o-1", credit(40, "o-1")),
			c.message(t, "o-1", credit(40, "o-1")),
		},
	}
	require.NoError(t, env.newFn(env.store, sub).Run(context.Background()))

	a := env.member(t, "A")
	require.Equal(t, domain.MemberStatusActive, a.Status)
	require.True(t, decimal.NewFromInt(40).Equal(a.Volume.PersonalBV))

	// Invalid events are dropped and still committed.
	require.Equal(t, 1, c.count("A"))
	require.Equal(t, 1, c.count("bad"))
	require.Equal(t, 1, c.count("retired"))
	require.Equal(t, 2, c.count("o-1"))

	require.Equal(t, float64(2), testutil.ToFloat64(env.metrics.EventsConsumedTotal.WithLabelValues("status", "error")))
	require.Equal(t, float64(2), testutil.ToFloat64(env.metrics.EventsConsumedTotal.WithLabelValues("volume", "ok")))
}

func TestEventConsumer_RetriesTransientFailure(t *testing.T) {
	env := newConsumerEnv(t)
	var c commits
	sub := preloadedSubscriber{
		"volume": {c.message(t, "o-1", credit(40, "o-1"))},
	}
	_, err := env.reconciliation.ChangeStatus(context.Background(), "A", domain.MemberStatusActive)
	require.NoError(t, err)
	flaky := &flakyStore{Store: env.store, failures: 2}
	require.NoError(t, env.newFn(flaky, sub).Run(context.Background()))

	requireBV := func(want int64, got decimal.Decimal) {
		t.Helper()
		require.True(t, decimal.NewFromInt(want).Equal(got), "want %d got %s", want, got.String())
	}
	requireBV(40, env.member(t, "A").Volume.PersonalBV)
	requireBV(40, env.member(t, "R").Volume.LeftLegBV)
	require.Equal(t, 1, c.count("o-1"))
	require.Equal(t, float64(2), testutil.ToFloat64(env.metrics.EventsConsumedTotal.WithLabelValues("volume", "error")))
	require.Equal(t, float64(1), testutil.ToFloat64(env.metrics.EventsConsumedTotal.WithLabelValues("volume", "ok")))
}

func TestEventConsumer_LeavesFailingEventUncommitted(t *testing.T) {
	env := newConsumerEnv(t)
	var c commits
	sub := preloadedSubscriber{
		"status": {c.message(t, "A", kafka.MemberStatusEvent{MemberID: "A", Status: "active"})},
	}
	flaky := &flakyStore{Store: env.store, failures: -1}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, env.newFn(flaky, sub).Run(ctx))

	require.Zero(t, c.count("A"))
	require.Equal(t, domain.MemberStatusInactive, env.member(t, "A").Status)
}
