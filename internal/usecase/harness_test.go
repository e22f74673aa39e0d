package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/memory"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-genealogy-service/internal/usecase"
	genealogydto "github.com/LavaJover/shvark-genealogy-service/internal/usecase/dto/genealogy"
	"github.com/LavaJover/shvark-genealogy-service/internal/usecase/genealogy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	members []*domain.Member
}

func (p *recordingPublisher) PublishLedgers(_ context.Context, members []*domain.Member) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.members = append(p.members, members...)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.members))
	for _, m := range p.members {
		ids = append(ids, m.MemberID)
	}
	return ids
}

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (a *recordingAudit) LogAudit(_ context.Context, events ...domain.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, events...)
	return nil
}

func (a *recordingAudit) kinds() map[domain.AuditKind]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[domain.AuditKind]int)
	for _, e := range a.events {
		out[e.Kind]++
	}
	return out
}

type harness struct {
	store          *memory.Store
	publisher      *recordingPublisher
	audit          *recordingAudit
	metrics        *metrics.GenealogyMetrics
	logger         *slog.Logger
	options        usecase.GenealogyOptions
	placement      *usecase.DefaultPlacementUsecase
	reconciliation *usecase.DefaultReconciliationUsecase
	volume         *usecase.DefaultVolumeUsecase
	genealogy      *usecase.DefaultGenealogyUsecase
}

func newHarness(t *testing.T, options usecase.GenealogyOptions) *harness {
	t.Helper()
	h := &harness{
		store:     memory.NewStore(),
		publisher: &recordingPublisher{},
		audit:     &recordingAudit{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewGenealogyMetrics(prometheus.NewRegistry())
	h.metrics, h.logger, h.options = m, logger, options

	var err error
	h.placement, err = usecase.NewDefaultPlacementUsecase(h.store, h.publisher, h.audit, m, logger, options)
	require.NoError(t, err)
	h.reconciliation = usecase.NewDefaultReconciliationUsecase(h.store, h.publisher, h.audit, m, logger, options)
	h.volume = usecase.NewDefaultVolumeUsecase(h.store, h.publisher, h.audit, m, logger, options)
	h.genealogy = usecase.NewDefaultGenealogyUsecase(h.store, options)
	return h
}

// placementOver builds a placement usecase that shares the harness
// collaborators but writes through store.
func (h *harness) placementOver(t *testing.T, store domain.Store) *usecase.DefaultPlacementUsecase {
	t.Helper()
	uc, err := usecase.NewDefaultPlacementUsecase(store, h.publisher, h.audit, h.metrics, h.logger, h.options)
	require.NoError(t, err)
	return uc
}

func testOptions() usecase.GenealogyOptions {
	o := usecase.DefaultGenealogyOptions()
	o.RetryBaseDelay = time.Millisecond
	return o
}

func (h *harness) root(t *testing.T, id string) {
	t.Helper()
	_, err := h.placement.CreateRoot(context.Background(), &genealogydto.CreateRootInput{MemberID: id, Status: domain.MemberStatusActive})
	require.NoError(t, err)
}

func (h *harness) place(t *testing.T, id, sponsor string, side domain.Position, status domain.MemberStatus) *domain.Member {
	t.Helper()
	out, err := h.placement.PlaceMember(context.Background(), &genealogydto.PlaceMemberInput{
		MemberID:      id,
		SponsorID:     sponsor,
		PreferredSide: side,
		Status:        status,
	})
	require.NoError(t, err)
	return out.Member
}

func (h *harness) credit(t *testing.T, id string, bv int64, ref string) *genealogydto.CreditVolumeOutput {
	t.Helper()
	out, err := h.volume.Credit(context.Background(), &genealogydto.CreditVolumeInput{
		MemberID:    id,
		BV:          decimal.NewFromInt(bv),
		PV:          decimal.NewFromInt(bv / 10),
		EntryType:   domain.VolumeEntryRepurchase,
		ReferenceID: ref,
	})
	require.NoError(t, err)
	return out
}

func (h *harness) get(t *testing.T, id string) *domain.Member {
	t.Helper()
	m, err := h.genealogy.Member(context.Background(), id)
	require.NoError(t, err)
	return m
}

func (h *harness) requireConsistent(t *testing.T, policy genealogy.Policy) {
	t.Helper()
	snapshot, err := h.store.Snapshot(context.Background())
	require.NoError(t, err)
	res, err := genealogy.Recompute(context.Background(), snapshot, policy)
	require.NoError(t, err)
	require.Zero(t, res.Corrections())
	require.Empty(t, res.Issues)
}

func requireAmount(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.NewFromInt(want).Equal(got), "want %d got %s", want, got.String())
}
