package genealogy

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
)

// OrphanReport records a member that could not be classified under its
// sponsor and the leg the orphan policy assigned instead.
type OrphanReport struct {
	SponsorID string
	MemberID  string
	Assigned  domain.Leg
}

// DirectCounts is the outcome of one direct-count pass, indexed like the
// Population it was computed from.
type DirectCounts struct {
	Directs     []domain.DirectLedger
	SponsorLegs []domain.Leg
	Orphans     []OrphanReport
	Issues      []IntegrityIssue
}

// ResolveDirects classifies every sponsored member and counts it once on its
// sponsor. All counters start from zero.
func ResolveDirects(ctx context.Context, pop *Population, policy Policy) (*DirectCounts, error) {
	n := pop.Len()
	out := &DirectCounts{
		Directs:     make([]domain.DirectLedger, n),
		SponsorLegs: make([]domain.Leg, n),
	}
	classifier := NewLegClassifier(pop, policy.maxDepth())

	for i := 0; i < n; i++ {
		idx := NodeIndex(i)
		m := pop.Member(idx)
		out.SponsorLegs[idx] = domain.LegNone
		if m.SponsorID == nil {
			continue
		}
		if *m.SponsorID == m.MemberID {
			out.Issues = append(out.Issues, IntegrityIssue{Kind: IssueSelfSponsor, MemberID: m.MemberID})
			continue
		}
		sponsor := pop.Lookup(*m.SponsorID)
		if sponsor == NoNode {
			out.Issues = append(out.Issues, IntegrityIssue{Kind: IssueDanglingSponsor, MemberID: m.MemberID, Detail: *m.SponsorID})
			continue
		}

		leg, orphan, err := SponsorLeg(ctx, classifier, policy.Orphans, m)
		if err != nil {
			if errors.Is(err, domain.ErrTreeCorrupted) {
				out.Issues = append(out.Issues, IntegrityIssue{Kind: IssueCycle, MemberID: m.MemberID, Detail: err.Error()})
				continue
			}
			return nil, err
		}
		if orphan {
			out.Orphans = append(out.Orphans, OrphanReport{SponsorID: *m.SponsorID, MemberID: m.MemberID, Assigned: leg})
		}
		out.SponsorLegs[idx] = leg
		out.Directs[sponsor].Count(leg, m.Status)
	}
	return out, nil
}
