package genealogy_test

import (
	"testing"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fixture builds linked members by hand, bypassing placement.
type fixture struct {
	members []*domain.Member
	byID    map[string]*domain.Member
}

func newFixture(rootID string) *fixture {
	f := &fixture{byID: make(map[string]*domain.Member)}
	f.put(&domain.Member{
		MemberID:   rootID,
		Status:     domain.MemberStatusActive,
		Position:   domain.PositionRoot,
		SponsorLeg: domain.LegNone,
	})
	return f
}

func (f *fixture) put(m *domain.Member) {
	f.members = append(f.members, m)
	f.byID[m.MemberID] = m
}

// add places id into side of parentID. sponsorID defaults to the parent.
func (f *fixture) add(id, parentID string, side domain.Position, sponsorID string) *domain.Member {
	if sponsorID == "" {
		sponsorID = parentID
	}
	parent := f.byID[parentID]
	parent.SetChild(side, id)
	m := &domain.Member{
		MemberID:   id,
		Status:     domain.MemberStatusActive,
		ParentID:   domain.StringPtr(parentID),
		Position:   side,
		SponsorID:  domain.StringPtr(sponsorID),
		SponsorLeg: domain.LegNone,
	}
	f.put(m)
	return m
}

func (f *fixture) volume(id string, bv, pv int64) *fixture {
	m := f.byID[id]
	m.Volume.PersonalBV = decimal.NewFromInt(bv)
	m.Volume.PersonalPV = decimal.NewFromInt(pv)
	return f
}

func (f *fixture) status(id string, s domain.MemberStatus) *fixture {
	f.byID[id].Status = s
	return f
}

func requireAmount(t *testing.T, want int64, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	require.True(t, decimal.NewFromInt(want).Equal(got), append([]interface{}{"want %d got %s", want, got.String()}, msgAndArgs...)...)
}

func byID(members []*domain.Member) map[string]*domain.Member {
	out := make(map[string]*domain.Member, len(members))
	for _, m := range members {
		out[m.MemberID] = m
	}
	return out
}
