package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	failures int
	calls    int
	batches  [][]domain.Message
}

func (f *fakePublisher) Publish(_ context.Context, topic string, msgs ...domain.Message) error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errors.New("broker unavailable")
	}
	f.batches = append(f.batches, msgs)
	return nil
}

func newTestLedgerPublisher(pub domain.PublisherPort) *LedgerPublisher {
	p := NewLedgerPublisher(pub, "genealogy.ledgers", slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.retryDelay = 0
	return p
}

func members(n int) []*domain.Member {
	out := make([]*domain.Member, n)
	for i := range out {
		out[i] = &domain.Member{
			MemberID: fmt.Sprintf("m%d", i),
			Status:   domain.MemberStatusActive,
			Volume:   domain.VolumeLedger{TotalBV: decimal.NewFromInt(int64(i))},
			Version:  2,
		}
	}
	return out
}

func TestLedgerPublisher_BatchesByMember(t *testing.T) {
	fake := &fakePublisher{}
	p := newTestLedgerPublisher(fake)

	require.NoError(t, p.PublishLedgers(context.Background(), members(250)))
	require.Len(t, fake.batches, 3)
	require.Len(t, fake.batches[2], 50)

	msg := fake.batches[1][0]
	require.Equal(t, "m100", string(msg.Key))
	var ev LedgerEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	require.Equal(t, "m100", ev.MemberID)
	require.True(t, decimal.NewFromInt(100).Equal(ev.Volume.TotalBV))
	require.Equal(t, int64(2), ev.Version)
}

func TestLedgerPublisher_Retries(t *testing.T) {
	fake := &fakePublisher{failures: 2}
	p := newTestLedgerPublisher(fake)
	require.NoError(t, p.PublishLedgers(context.Background(), members(1)))
	require.Equal(t, 3, fake.calls)

	fake = &fakePublisher{failures: 3}
	p = newTestLedgerPublisher(fake)
	require.Error(t, p.PublishLedgers(context.Background(), members(1)))
	require.Equal(t, defaultLedgerMaxRetries, fake.calls)
}

func TestLedgerPublisher_Empty(t *testing.T) {
	fake := &fakePublisher{}
	require.NoError(t, newTestLedgerPublisher(fake).PublishLedgers(context.Background(), nil))
	require.Zero(t, fake.calls)
}
