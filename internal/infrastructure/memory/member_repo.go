package memory

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
)

type memberRepo struct {
	store *Store
}

func (r *memberRepo) get(memberID string) (*domain.Member, error) {
	m, ok := r.store.state.members[memberID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", memberID, domain.ErrMemberNotFound)
	}
	return m, nil
}

func (r *memberRepo) GetMember(ctx context.Context, memberID string) (*domain.Member, error) {
	defer r.store.lock()()
	m, err := r.get(memberID)
	if err != nil {
		return nil, err
	}
	return m.Clone(), nil
}

// LockMember is a plain read: a transaction already owns the whole store.
func (r *memberRepo) LockMember(ctx context.Context, memberID string) (*domain.Member, error) {
	return r.GetMember(ctx, memberID)
}

func (r *memberRepo) ListMembers(ctx context.Context) ([]*domain.Member, error) {
	defer r.store.lock()()
	out := make([]*domain.Member, 0, len(r.store.state.order))
	for _, id := range r.store.state.order {
		out = append(out, r.store.state.members[id].Clone())
	}
	return out, nil
}

func (r *memberRepo) ListBySponsor(ctx context.Context, sponsorID string) ([]*domain.Member, error) {
	defer r.store.lock()()
	var out []*domain.Member
	for _, id := range r.store.state.order {
		if m := r.store.state.members[id]; m.SponsoredBy(sponsorID) {
			out = append(out, m.Clone())
		}
	}
	return out, nil
}

func (r *memberRepo) CountMembers(ctx context.Context) (int64, error) {
	defer r.store.lock()()
	return int64(len(r.store.state.members)), nil
}

func (r *memberRepo) CreateMember(ctx context.Context, member *domain.Member) error {
	defer r.store.lock()()
	if _, dup := r.store.state.members[member.MemberID]; dup {
		return fmt.Errorf("%s: %w", member.MemberID, domain.ErrDuplicateMember)
	}
	now := r.store.now()
	if member.JoinedAt.IsZero() {
		member.JoinedAt = now
	}
	member.UpdatedAt = now
	member.Version = 1
	r.store.state.members[member.MemberID] = member.Clone()
	r.store.state.order = append(r.store.state.order, member.MemberID)
	return nil
}

func (r *memberRepo) AttachChild(ctx context.Context, parentID string, side domain.Position, childID string, expectedVersion int64) error {
	defer r.store.lock()()
	if side != domain.PositionLeft && side != domain.PositionRight {
		return fmt.Errorf("attach to %s: %w", parentID, domain.ErrInvalidSide)
	}
	parent, err := r.get(parentID)
	if err != nil {
		return err
	}
	if parent.Version != expectedVersion || parent.Child(side) != nil {
		return fmt.Errorf("%s slot of %s: %w", side, parentID, domain.ErrConcurrentSlotConflict)
	}
	parent.SetChild(side, childID)
	parent.Version++
	parent.UpdatedAt = r.store.now()
	return nil
}

func (r *memberRepo) SaveMember(ctx context.Context, member *domain.Member) error {
	defer r.store.lock()()
	stored, err := r.get(member.MemberID)
	if err != nil {
		return err
	}
	writeMutable(stored, member)
	stored.Status = member.Status
	stored.Volume.PersonalBV = member.Volume.PersonalBV
	stored.Volume.PersonalPV = member.Volume.PersonalPV
	stored.Version++
	stored.UpdatedAt = r.store.now()
	member.Version = stored.Version
	member.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *memberRepo) SaveLedgers(ctx context.Context, members []*domain.Member) (int, error) {
	defer r.store.lock()()
	skipped := 0
	now := r.store.now()
	for _, m := range members {
		stored, ok := r.store.state.members[m.MemberID]
		if !ok || stored.Version != m.Version {
			skipped++
			continue
		}
		writeMutable(stored, m)
		stored.Version++
		stored.UpdatedAt = now
		m.Version = stored.Version
		m.UpdatedAt = now
	}
	return skipped, nil
}

// writeMutable copies the derived ledgers; personal volume is kept.
func writeMutable(dst, src *domain.Member) {
	personalBV, personalPV := dst.Volume.PersonalBV, dst.Volume.PersonalPV
	dst.SponsorLeg = src.SponsorLeg
	dst.Volume = src.Volume
	dst.Volume.PersonalBV, dst.Volume.PersonalPV = personalBV, personalPV
	dst.Team = src.Team
	dst.Directs = src.Directs
}
