package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-genealogy-service/internal/usecase/genealogy"
)

const (
	defaultWriteChunkSize = 500
	maxRetryDelay         = 2 * time.Second
)

// errUnchanged aborts a chain transaction that turned out to be a no-op.
var errUnchanged = errors.New("nothing to change")

type GenealogyOptions struct {
	Policy         genealogy.Policy
	MaxRetries     int
	RetryBaseDelay time.Duration
	WriteChunkSize int
}

func DefaultGenealogyOptions() GenealogyOptions {
	return GenealogyOptions{
		Policy:         genealogy.DefaultPolicy(),
		MaxRetries:     5,
		RetryBaseDelay: 20 * time.Millisecond,
		WriteChunkSize: defaultWriteChunkSize,
	}
}

func (o GenealogyOptions) chunkSize() int {
	if o.WriteChunkSize <= 0 {
		return defaultWriteChunkSize
	}
	return o.WriteChunkSize
}

// retryDelay doubles per attempt and is capped at maxRetryDelay.
func (o GenealogyOptions) retryDelay(attempt int) time.Duration {
	if attempt <= 0 || o.RetryBaseDelay <= 0 {
		return 0
	}
	d := time.Duration(math.Pow(2, float64(attempt-1)) * float64(o.RetryBaseDelay))
	if d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}

// chainReconciler runs one incremental reconciliation per call and handles
// everything that follows a commit.
type chainReconciler struct {
	store     domain.Store
	publisher domain.LedgerPublisher
	audit     domain.AuditLogger
	metrics   *metrics.GenealogyMetrics
	logger    *slog.Logger
	options   GenealogyOptions
}

func (c *chainReconciler) reconcile(ctx context.Context, mode, memberID string, mutate func(tx domain.Store, m *domain.Member) error) (*genealogy.ChainResult, error) {
	started := time.Now()
	var res *genealogy.ChainResult
	err := c.store.InTransaction(ctx, func(tx domain.Store) error {
		var fn func(m *domain.Member) error
		if mutate != nil {
			fn = func(m *domain.Member) error { return mutate(tx, m) }
		}
		var err error
		res, err = genealogy.ReconcileChain(ctx, tx.Members(), memberID, c.options.Policy, fn)
		return err
	})
	if errors.Is(err, errUnchanged) {
		return nil, err
	}
	updated := 0
	if res != nil {
		updated = len(res.Updated)
	}
	c.metrics.RecordChain(mode, updated, started, err)
	if err != nil {
		return nil, err
	}
	c.afterCommit(ctx, res)
	return res, nil
}

// afterCommit never fails the operation: the ledgers are already stored and
// the next batch run republishes whatever was lost.
func (c *chainReconciler) afterCommit(ctx context.Context, res *genealogy.ChainResult) {
	if o := res.Orphan; o != nil {
		c.logger.Warn("member is not placed below its sponsor",
			"member_id", o.MemberID, "sponsor_id", o.SponsorID, "assigned_leg", o.Assigned)
		c.metrics.OrphansTotal.Inc()
		if err := c.audit.LogAudit(ctx, domain.AuditEvent{
			Kind:      domain.AuditOrphan,
			MemberID:  o.MemberID,
			SponsorID: o.SponsorID,
			Detail:    "assigned leg " + string(o.Assigned),
		}); err != nil {
			c.logger.Error("failed to write audit event", "error", err)
		}
	}
	if err := c.publisher.PublishLedgers(ctx, res.Updated); err != nil {
		c.logger.Error("failed to publish ledger events", "count", len(res.Updated), "error", err)
	}
}

func findMember(members []*domain.Member, memberID string) *domain.Member {
	for _, m := range members {
		if m.MemberID == memberID {
			return m
		}
	}
	return nil
}
