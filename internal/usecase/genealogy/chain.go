package genealogy

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
)

// LockChain locks memberID and all of its placement ancestors and returns
// them root first. Ids are collected with plain reads and then locked from
// the root down, so every writer acquires row locks in the same order and the
// root serializes concurrent chains.
func LockChain(ctx context.Context, repo domain.MemberRepository, memberID string, maxDepth int) ([]*domain.Member, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var ids []string
	seen := make(map[string]struct{})
	next := memberID
	for {
		if _, dup := seen[next]; dup {
			return nil, fmt.Errorf("ancestor chain of %s revisits %s: %w", memberID, next, domain.ErrTreeCorrupted)
		}
		if len(ids) > maxDepth {
			return nil, fmt.Errorf("ancestor chain of %s exceeded %d levels: %w", memberID, maxDepth, domain.ErrTreeCorrupted)
		}
		seen[next] = struct{}{}
		m, err := repo.GetMember(ctx, next)
		if err != nil {
			if len(ids) > 0 && errors.Is(err, domain.ErrMemberNotFound) {
				return nil, fmt.Errorf("parent %s of %s: %w", next, ids[len(ids)-1], domain.ErrTreeCorrupted)
			}
			return nil, err
		}
		ids = append(ids, m.MemberID)
		if m.ParentID == nil {
			break
		}
		next = *m.ParentID
	}

	chain := make([]*domain.Member, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		m, err := repo.LockMember(ctx, ids[i])
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", ids[i], err)
		}
		chain = append(chain, m)
	}
	return chain, nil
}

// ChainResult lists what one incremental reconciliation wrote.
type ChainResult struct {
	// Updated members in the order they were saved.
	Updated []*domain.Member
	Orphan  *OrphanReport
}

// unitOfWork keeps the copies read during one reconciliation so later reads
// see earlier recomputes.
type unitOfWork struct {
	repo    domain.MemberRepository
	members map[string]*domain.Member
	dirty   map[string]bool
	order   []string
}

func newUnitOfWork(repo domain.MemberRepository) *unitOfWork {
	return &unitOfWork{
		repo:    repo,
		members: make(map[string]*domain.Member),
		dirty:   make(map[string]bool),
	}
}

func (u *unitOfWork) track(m *domain.Member) {
	if _, ok := u.members[m.MemberID]; ok {
		return
	}
	u.members[m.MemberID] = m
	u.order = append(u.order, m.MemberID)
}

func (u *unitOfWork) GetMember(ctx context.Context, memberID string) (*domain.Member, error) {
	if m, ok := u.members[memberID]; ok {
		return m, nil
	}
	return u.repo.GetMember(ctx, memberID)
}

func (u *unitOfWork) lock(ctx context.Context, memberID string) (*domain.Member, error) {
	if m, ok := u.members[memberID]; ok {
		return m, nil
	}
	m, err := u.repo.LockMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	u.track(m)
	return m, nil
}

// update replaces the derived fields of a tracked member and marks it dirty
// when anything changed.
func (u *unitOfWork) update(m *domain.Member, fn func(next *domain.Member)) {
	next := m.Clone()
	fn(next)
	if !next.DerivedEqual(m) {
		*m = *next
		u.dirty[m.MemberID] = true
	}
}

func (u *unitOfWork) flush(ctx context.Context) ([]*domain.Member, error) {
	var saved []*domain.Member
	for _, id := range u.order {
		if !u.dirty[id] {
			continue
		}
		m := u.members[id]
		if err := u.repo.SaveMember(ctx, m); err != nil {
			return nil, fmt.Errorf("save %s: %w", id, err)
		}
		saved = append(saved, m)
	}
	return saved, nil
}

// ReconcileChain brings memberID, its ancestors and its sponsor back in line
// with a change to memberID. mutate, when set, is applied to the locked
// member first and is how status and personal volume changes enter the
// chain. It must run inside a transaction of repo.
//
// Each ancestor's legs are rebuilt from its children's stored ledgers, so the
// result matches Recompute as long as every other member was already
// consistent.
func ReconcileChain(ctx context.Context, repo domain.MemberRepository, memberID string, policy Policy, mutate func(m *domain.Member) error) (*ChainResult, error) {
	chain, err := LockChain(ctx, repo, memberID, policy.maxDepth())
	if err != nil {
		return nil, err
	}
	uow := newUnitOfWork(repo)
	for _, m := range chain {
		uow.track(m)
	}

	target := chain[len(chain)-1]
	if mutate != nil {
		if err := mutate(target); err != nil {
			return nil, err
		}
		uow.dirty[target.MemberID] = true
	}

	for i := len(chain) - 1; i >= 0; i-- {
		m := chain[i]
		legs, err := childLegs(ctx, uow, m, policy.Flashout)
		if err != nil {
			return nil, err
		}
		uow.update(m, func(next *domain.Member) {
			next.Volume, next.Team = Ledgers(next, legs)
		})
	}

	res := &ChainResult{}
	if err := reconcileSponsor(ctx, uow, target, policy, res); err != nil {
		return nil, err
	}

	res.Updated, err = uow.flush(ctx)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func childLegs(ctx context.Context, uow *unitOfWork, m *domain.Member, policy FlashoutPolicy) (LegTotals, error) {
	var legs LegTotals
	for _, side := range []domain.Position{domain.PositionLeft, domain.PositionRight} {
		childID := m.Child(side)
		if childID == nil {
			continue
		}
		child, err := uow.GetMember(ctx, *childID)
		if err != nil {
			return LegTotals{}, fmt.Errorf("%s child of %s: %w", side, m.MemberID, err)
		}
		contribution := policy.Contribution(child, StoredLegs(child))
		if side == domain.PositionLeft {
			legs.Left = contribution
		} else {
			legs.Right = contribution
		}
	}
	return legs, nil
}

// reconcileSponsor refreshes the member's sponsor leg and recounts the
// sponsor's directs from the stored sponsor legs of its recruits.
func reconcileSponsor(ctx context.Context, uow *unitOfWork, m *domain.Member, policy Policy, res *ChainResult) error {
	if m.SponsorID == nil || *m.SponsorID == m.MemberID {
		uow.update(m, func(next *domain.Member) { next.SponsorLeg = domain.LegNone })
		return nil
	}

	// A sponsor outside the ancestor chain is only possible for orphans.
	sponsor, err := uow.lock(ctx, *m.SponsorID)
	if errors.Is(err, domain.ErrMemberNotFound) {
		uow.update(m, func(next *domain.Member) { next.SponsorLeg = domain.LegNone })
		return nil
	}
	if err != nil {
		return fmt.Errorf("lock sponsor %s: %w", *m.SponsorID, err)
	}

	leg, orphan, err := SponsorLeg(ctx, NewLegClassifier(uow, policy.maxDepth()), policy.Orphans, m)
	if err != nil {
		return err
	}
	if orphan {
		res.Orphan = &OrphanReport{SponsorID: sponsor.MemberID, MemberID: m.MemberID, Assigned: leg}
	}
	uow.update(m, func(next *domain.Member) { next.SponsorLeg = leg })

	recruits, err := uow.repo.ListBySponsor(ctx, sponsor.MemberID)
	if err != nil {
		return fmt.Errorf("list directs of %s: %w", sponsor.MemberID, err)
	}
	var directs domain.DirectLedger
	for _, r := range recruits {
		if r.MemberID == sponsor.MemberID {
			continue
		}
		if tracked, ok := uow.members[r.MemberID]; ok {
			r = tracked
		}
		directs.Count(r.SponsorLeg, r.Status)
	}
	uow.update(sponsor, func(next *domain.Member) { next.Directs = directs })
	return nil
}
