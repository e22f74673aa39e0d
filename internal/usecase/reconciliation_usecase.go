package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/metrics"
	genealogydto "github.com/LavaJover/shvark-genealogy-service/internal/usecase/dto/genealogy"
	"github.com/LavaJover/shvark-genealogy-service/internal/usecase/genealogy"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

type ReconciliationUsecase interface {
	ChangeStatus(ctx context.Context, memberID string, status domain.MemberStatus) (*domain.Member, error)
	RecomputeAll(ctx context.Context) (*genealogydto.RecomputeOutput, error)
	LastRun(ctx context.Context) (*domain.ReconciliationRun, error)
	// Close cancels a batch run in progress and every later one.
	Close()
}

type DefaultReconciliationUsecase struct {
	chain *chainReconciler
	group singleflight.Group
	// lifetime bounds shared batch runs, which outlive any single caller.
	lifetime context.Context
	stop     context.CancelFunc
}

func NewDefaultReconciliationUsecase(
	store domain.Store,
	publisher domain.LedgerPublisher,
	audit domain.AuditLogger,
	genealogyMetrics *metrics.GenealogyMetrics,
	logger *slog.Logger,
	options GenealogyOptions,
) *DefaultReconciliationUsecase {
	lifetime, stop := context.WithCancel(context.Background())
	return &DefaultReconciliationUsecase{
		lifetime: lifetime,
		stop:     stop,
		chain: &chainReconciler{
			store:     store,
			publisher: publisher,
			audit:     audit,
			metrics:   genealogyMetrics,
			logger:    logger,
			options:   options,
		},
	}
}

// ChangeStatus writes the new status and reconciles the member's chain and
// sponsor. Setting the current status again is a no-op.
func (uc *DefaultReconciliationUsecase) ChangeStatus(ctx context.Context, memberID string, status domain.MemberStatus) (*domain.Member, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%q: %w", status, domain.ErrInvalidStatus)
	}
	res, err := uc.chain.reconcile(ctx, "status", memberID, func(_ domain.Store, m *domain.Member) error {
		if m.Status == status {
			return errUnchanged
		}
		m.Status = status
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return uc.chain.store.Members().GetMember(ctx, memberID)
	}
	if err != nil {
		return nil, err
	}
	uc.chain.logger.Info("member status changed", "member_id", memberID, "status", status, "updated", len(res.Updated))
	return findMember(res.Updated, memberID), nil
}

func (uc *DefaultReconciliationUsecase) LastRun(ctx context.Context) (*domain.ReconciliationRun, error) {
	return uc.chain.store.Runs().LastRun(ctx)
}

func (uc *DefaultReconciliationUsecase) Close() {
	uc.stop()
}

// RecomputeAll runs a full batch reconciliation. Callers arriving while a run
// is in progress wait for it and share its result. The run keeps the first
// caller's values but not its deadline, and is canceled by Close.
func (uc *DefaultReconciliationUsecase) RecomputeAll(ctx context.Context) (*genealogydto.RecomputeOutput, error) {
	v, err, shared := uc.group.Do("recompute-all", func() (interface{}, error) {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		defer context.AfterFunc(uc.lifetime, cancel)()
		return uc.recomputeAll(runCtx)
	})
	if err != nil {
		return nil, err
	}
	return &genealogydto.RecomputeOutput{Run: v.(*domain.ReconciliationRun), Shared: shared}, nil
}

func (uc *DefaultReconciliationUsecase) recomputeAll(ctx context.Context) (*domain.ReconciliationRun, error) {
	logger := uc.chain.logger
	run := &domain.ReconciliationRun{
		ID:        uuid.NewString(),
		Mode:      domain.ReconciliationBatch,
		StartedAt: time.Now().UTC(),
	}

	res, saved, err := uc.recomputeAndSave(ctx, run)
	run.FinishedAt = time.Now().UTC()
	issueKinds := make(map[string]int)
	if res != nil {
		for _, issue := range res.Issues {
			issueKinds[issue.Kind]++
		}
	}
	uc.chain.metrics.RecordBatch(run.Population, run.Corrections, run.Skipped, run.Orphans, issueKinds, run.StartedAt, err)

	if err != nil {
		run.Error = err.Error()
		if recErr := uc.chain.store.Runs().CreateRun(ctx, run); recErr != nil {
			logger.Error("failed to record failed reconciliation run", "run_id", run.ID, "error", recErr)
		}
		logger.Error("batch reconciliation failed", "run_id", run.ID, "error", err)
		return nil, err
	}

	if run.Corrections > 0 {
		logger.Warn("stored aggregates corrected",
			"run_id", run.ID,
			"corrections", run.Corrections,
			"skipped", run.Skipped,
			"error", domain.ErrAggregationDrift,
		)
	}
	logger.Info("batch reconciliation finished",
		"run_id", run.ID,
		"population", run.Population,
		"corrections", run.Corrections,
		"orphans", run.Orphans,
		"issues", run.Issues,
		"duration", run.FinishedAt.Sub(run.StartedAt),
	)

	if err := uc.chain.audit.LogAudit(ctx, auditEvents(run.ID, res, saved)...); err != nil {
		logger.Error("failed to write audit events", "run_id", run.ID, "error", err)
	}
	if err := uc.chain.publisher.PublishLedgers(ctx, saved); err != nil {
		logger.Error("failed to publish ledger events", "run_id", run.ID, "count", len(saved), "error", err)
	}
	return run, nil
}

// recomputeAndSave returns the recompute result and the members actually
// written. Rows changed after the snapshot are skipped.
func (uc *DefaultReconciliationUsecase) recomputeAndSave(ctx context.Context, run *domain.ReconciliationRun) (*genealogy.Result, []*domain.Member, error) {
	snapshot, err := uc.chain.store.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	res, err := genealogy.Recompute(ctx, snapshot, uc.chain.options.Policy)
	if err != nil {
		return nil, nil, err
	}
	run.Population = len(snapshot)
	run.Orphans = len(res.Orphans)
	run.Issues = len(res.Issues)

	readVersions := make([]int64, len(res.Changed))
	for i, m := range res.Changed {
		readVersions[i] = m.Version
	}

	chunk := uc.chain.options.chunkSize()
	err = uc.chain.store.InTransaction(ctx, func(tx domain.Store) error {
		run.Skipped = 0
		for i := 0; i < len(res.Changed); i += chunk {
			end := min(i+chunk, len(res.Changed))
			skipped, err := tx.Members().SaveLedgers(ctx, res.Changed[i:end])
			if err != nil {
				return err
			}
			run.Skipped += skipped
		}
		run.Corrections = len(res.Changed) - run.Skipped
		run.FinishedAt = time.Now().UTC()
		return tx.Runs().CreateRun(ctx, run)
	})
	if err != nil {
		return res, nil, fmt.Errorf("save corrections: %w", err)
	}

	saved := make([]*domain.Member, 0, run.Corrections)
	for i, m := range res.Changed {
		if m.Version != readVersions[i] {
			saved = append(saved, m)
		}
	}
	return res, saved, nil
}

func auditEvents(runID string, res *genealogy.Result, saved []*domain.Member) []domain.AuditEvent {
	events := make([]domain.AuditEvent, 0, len(res.Orphans)+len(res.Issues)+len(saved))
	for _, o := range res.Orphans {
		events = append(events, domain.AuditEvent{
			Kind:      domain.AuditOrphan,
			MemberID:  o.MemberID,
			SponsorID: o.SponsorID,
			RunID:     runID,
			Detail:    "assigned leg " + string(o.Assigned),
		})
	}
	for _, issue := range res.Issues {
		events = append(events, domain.AuditEvent{
			Kind:     domain.AuditIntegrity,
			MemberID: issue.MemberID,
			RunID:    runID,
			Detail:   issue.Kind + ": " + issue.Detail,
		})
	}
	for _, m := range saved {
		events = append(events, domain.AuditEvent{
			Kind:     domain.AuditCorrection,
			MemberID: m.MemberID,
			RunID:    runID,
			Detail:   fmt.Sprintf("total_bv=%s left_team=%d right_team=%d", m.Volume.TotalBV, m.Team.LeftTeamCount, m.Team.RightTeamCount),
		})
	}
	return events
}
