package genealogy

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
)

// Result is a full recompute of a population.
type Result struct {
	// Members are recomputed copies in input order.
	Members []*domain.Member
	// Changed are the copies whose derived ledgers differ from the input.
	Changed []*domain.Member
	Orphans []OrphanReport
	Issues  []IntegrityIssue
}

// Corrections is the drift found by the run.
func (r *Result) Corrections() int {
	return len(r.Changed)
}

// Recompute rebuilds every derived ledger from personal volumes, statuses and
// the tree structure alone. Input members are not modified.
func Recompute(ctx context.Context, members []*domain.Member, policy Policy) (*Result, error) {
	pop := NewPopulation(members)
	agg := NewAggregator(pop, policy.Flashout)
	directs, err := ResolveDirects(ctx, pop, policy)
	if err != nil {
		return nil, fmt.Errorf("resolve directs: %w", err)
	}

	res := &Result{
		Members: make([]*domain.Member, 0, pop.Len()),
		Orphans: directs.Orphans,
	}
	for i := 0; i < pop.Len(); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		idx := NodeIndex(i)
		stored := pop.Member(idx)
		next := stored.Clone()
		next.Volume, next.Team = Ledgers(stored, agg.Legs(idx))
		next.Directs = directs.Directs[idx]
		next.SponsorLeg = directs.SponsorLegs[idx]

		res.Members = append(res.Members, next)
		if !next.DerivedEqual(stored) {
			res.Changed = append(res.Changed, next)
		}
	}

	res.Issues = append(res.Issues, pop.Issues()...)
	res.Issues = append(res.Issues, agg.Issues()...)
	res.Issues = append(res.Issues, directs.Issues...)
	return res, nil
}

// Aggregate is aggregate(memberId) over a population snapshot.
func Aggregate(members []*domain.Member, memberID string, policy FlashoutPolicy) (SubtreeTotals, error) {
	return NewAggregator(NewPopulation(members), policy).SubtreeOf(memberID)
}
