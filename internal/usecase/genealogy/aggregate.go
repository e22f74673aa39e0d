package genealogy

import (
	"fmt"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/shopspring/decimal"
)

// SubtreeTotals is what the subtree rooted at one node reports to that
// node's parent: flashout-adjusted volume and the head count including the
// root itself.
type SubtreeTotals struct {
	BV           decimal.Decimal
	PV           decimal.Decimal
	TeamCount    int64
	TeamActive   int64
	TeamInactive int64
}

// LegTotals holds the subtrees rooted at a member's two children. It is the
// only input a member's own leg ledgers are built from.
type LegTotals struct {
	Left  SubtreeTotals
	Right SubtreeTotals
}

// Contribution folds a member's own status and volume over the totals of its
// child subtrees.
func (p FlashoutPolicy) Contribution(m *domain.Member, legs LegTotals) SubtreeTotals {
	l, r := legs.Left, legs.Right
	t := SubtreeTotals{
		TeamCount:    1 + l.TeamCount + r.TeamCount,
		TeamActive:   l.TeamActive + r.TeamActive,
		TeamInactive: l.TeamInactive + r.TeamInactive,
	}
	switch {
	case m.Status.IsActive():
		t.TeamActive++
		t.BV = m.Volume.PersonalBV.Add(l.BV).Add(r.BV)
		t.PV = m.Volume.PersonalPV.Add(l.PV).Add(r.PV)
	case p == FlashoutSubtree:
		t.TeamInactive++
	default:
		t.TeamInactive++
		t.BV = l.BV.Add(r.BV)
		t.PV = l.PV.Add(r.PV)
	}
	return t
}

// Ledgers builds the member's derived volume and team ledgers from its leg
// totals. Personal volume is kept as stored.
func Ledgers(m *domain.Member, legs LegTotals) (domain.VolumeLedger, domain.TeamLedger) {
	l, r := legs.Left, legs.Right
	v := domain.VolumeLedger{
		PersonalBV: m.Volume.PersonalBV,
		PersonalPV: m.Volume.PersonalPV,
		LeftLegBV:  l.BV,
		LeftLegPV:  l.PV,
		RightLegBV: r.BV,
		RightLegPV: r.PV,
	}
	if m.Status.IsActive() {
		v.TotalBV = v.PersonalBV.Add(l.BV).Add(r.BV)
		v.TotalPV = v.PersonalPV.Add(l.PV).Add(r.PV)
	}
	team := domain.TeamLedger{
		LeftTeamCount:     l.TeamCount,
		LeftTeamActive:    l.TeamActive,
		LeftTeamInactive:  l.TeamInactive,
		RightTeamCount:    r.TeamCount,
		RightTeamActive:   r.TeamActive,
		RightTeamInactive: r.TeamInactive,
	}
	return v, team
}

// StoredLegs reads leg totals back out of a member's stored ledgers.
func StoredLegs(m *domain.Member) LegTotals {
	return LegTotals{
		Left: SubtreeTotals{
			BV:           m.Volume.LeftLegBV,
			PV:           m.Volume.LeftLegPV,
			TeamCount:    m.Team.LeftTeamCount,
			TeamActive:   m.Team.LeftTeamActive,
			TeamInactive: m.Team.LeftTeamInactive,
		},
		Right: SubtreeTotals{
			BV:           m.Volume.RightLegBV,
			PV:           m.Volume.RightLegPV,
			TeamCount:    m.Team.RightTeamCount,
			TeamActive:   m.Team.RightTeamActive,
			TeamInactive: m.Team.RightTeamInactive,
		},
	}
}

const (
	unvisited uint8 = iota
	inProgress
	done
)

// Aggregator computes SubtreeTotals over one Population. The memo belongs to
// the Aggregator, so every pass must use a fresh one.
type Aggregator struct {
	pop    *Population
	policy FlashoutPolicy
	memo   []SubtreeTotals
	state  []uint8
	issues []IntegrityIssue
}

func NewAggregator(pop *Population, policy FlashoutPolicy) *Aggregator {
	return &Aggregator{
		pop:    pop,
		policy: policy,
		memo:   make([]SubtreeTotals, pop.Len()),
		state:  make([]uint8, pop.Len()),
	}
}

// Subtree aggregates the subtree rooted at root. NoNode yields zero totals.
func (a *Aggregator) Subtree(root NodeIndex) SubtreeTotals {
	if root == NoNode {
		return SubtreeTotals{}
	}
	if a.state[root] == done {
		return a.memo[root]
	}

	// Iterative post-order: a node is finished once both children are.
	stack := []NodeIndex{root}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		switch a.state[top] {
		case done:
			stack = stack[:len(stack)-1]
		case unvisited:
			a.state[top] = inProgress
			for _, child := range []NodeIndex{a.pop.Right(top), a.pop.Left(top)} {
				if child == NoNode {
					continue
				}
				switch a.state[child] {
				case unvisited:
					stack = append(stack, child)
				case inProgress:
					a.issues = append(a.issues, IntegrityIssue{
						Kind:     IssueCycle,
						MemberID: a.pop.Member(child).MemberID,
						Detail:   fmt.Sprintf("reached again from %s", a.pop.Member(top).MemberID),
					})
				}
			}
		case inProgress:
			a.memo[top] = a.policy.Contribution(a.pop.Member(top), LegTotals{
				Left:  a.finished(a.pop.Left(top)),
				Right: a.finished(a.pop.Right(top)),
			})
			a.state[top] = done
			stack = stack[:len(stack)-1]
		}
	}
	return a.memo[root]
}

// finished returns a child's totals, or zero for a child cut by a cycle.
func (a *Aggregator) finished(child NodeIndex) SubtreeTotals {
	if child == NoNode || a.state[child] != done {
		return SubtreeTotals{}
	}
	return a.memo[child]
}

// Legs aggregates the two child subtrees of member separately.
func (a *Aggregator) Legs(member NodeIndex) LegTotals {
	return LegTotals{
		Left:  a.Subtree(a.pop.Left(member)),
		Right: a.Subtree(a.pop.Right(member)),
	}
}

// SubtreeOf is Subtree addressed by member id.
func (a *Aggregator) SubtreeOf(memberID string) (SubtreeTotals, error) {
	i := a.pop.Lookup(memberID)
	if i == NoNode {
		return SubtreeTotals{}, fmt.Errorf("%s: %w", memberID, domain.ErrMemberNotFound)
	}
	return a.Subtree(i), nil
}

func (a *Aggregator) Issues() []IntegrityIssue {
	return a.issues
}
