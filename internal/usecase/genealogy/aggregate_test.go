package genealogy_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/LavaJover/shvark-genealogy-service/internal/usecase/genealogy"
	"github.com/stretchr/testify/require"
)

func inactiveWithActiveChildren() *fixture {
	f := newFixture("R")
	f.add("A", "R", domain.PositionLeft, "")
	f.add("C", "A", domain.PositionLeft, "")
	f.add("D", "A", domain.PositionRight, "")
	return f.volume("A", 500, 50).
		volume("C", 120, 12).
		volume("D", 80, 8).
		status("A", domain.MemberStatusInactive)
}

func TestAggregator_InactiveMemberFlashesOwnVolume(t *testing.T) {
	f := inactiveWithActiveChildren()
	agg := genealogy.NewAggregator(genealogy.NewPopulation(f.members), genealogy.FlashoutOwnVolume)

	a, err := agg.SubtreeOf("A")
	require.NoError(t, err)
	requireAmount(t, 200, a.BV)
	requireAmount(t, 20, a.PV)
	require.Equal(t, int64(3), a.TeamCount)
	require.Equal(t, int64(2), a.TeamActive)
	require.Equal(t, int64(1), a.TeamInactive)
}

func TestAggregator_SubtreeFlashout(t *testing.T) {
	f := inactiveWithActiveChildren()
	agg := genealogy.NewAggregator(genealogy.NewPopulation(f.members), genealogy.FlashoutSubtree)

	a, err := agg.SubtreeOf("A")
	require.NoError(t, err)
	requireAmount(t, 0, a.BV)
	requireAmount(t, 0, a.PV)
	require.Equal(t, int64(3), a.TeamCount)
}

func TestAggregator_InactiveLeafCountsOnlyHeads(t *testing.T) {
	f := newFixture("R")
	f.add("A", "R", domain.PositionRight, "")
	f.volume("A", 300, 30).status("A", domain.MemberStatusSuspended)
	pop := genealogy.NewPopulation(f.members)
	agg := genealogy.NewAggregator(pop, genealogy.FlashoutOwnVolume)

	legs := agg.Legs(pop.Lookup("R"))
	requireAmount(t, 0, legs.Right.BV)
	require.Equal(t, int64(1), legs.Right.TeamCount)
	require.Equal(t, int64(1), legs.Right.TeamInactive)
	require.Equal(t, genealogy.SubtreeTotals{}, legs.Left)
}

func TestAggregator_UnknownMember(t *testing.T) {
	agg := genealogy.NewAggregator(genealogy.NewPopulation(newFixture("R").members), genealogy.FlashoutOwnVolume)
	_, err := agg.SubtreeOf("nope")
	require.ErrorIs(t, err, domain.ErrMemberNotFound)
	require.Equal(t, genealogy.SubtreeTotals{}, agg.Subtree(genealogy.NoNode))
}

func randomTree(rng *rand.Rand, n int) *fixture {
	f := newFixture("m0")
	open := []string{"m0"}
	for i := 1; i < n; i++ {
		id := fmt.Sprintf("m%d", i)
		pi := rng.Intn(len(open))
		parent := f.byID[open[pi]]
		side := domain.PositionLeft
		if parent.LeftChildID != nil || (parent.RightChildID == nil && rng.Intn(2) == 1) {
			side = domain.PositionRight
		}
		f.add(id, parent.MemberID, side, "")
		if parent.LeftChildID != nil && parent.RightChildID != nil {
			open = append(open[:pi], open[pi+1:]...)
		}
		open = append(open, id)
		f.volume(id, int64(rng.Intn(500)), int64(rng.Intn(50)))
		if rng.Intn(4) == 0 {
			f.status(id, domain.MemberStatusInactive)
		}
	}
	return f
}

func countSubtree(pop *genealogy.Population, i genealogy.NodeIndex) int64 {
	if i == genealogy.NoNode {
		return 0
	}
	return 1 + countSubtree(pop, pop.Left(i)) + countSubtree(pop, pop.Right(i))
}

func TestAggregator_TeamCountsMatchPopulation(t *testing.T) {
	f := randomTree(rand.New(rand.NewSource(7)), 300)
	pop := genealogy.NewPopulation(f.members)
	require.Empty(t, pop.Issues())
	agg := genealogy.NewAggregator(pop, genealogy.FlashoutOwnVolume)

	for i := 0; i < pop.Len(); i++ {
		idx := genealogy.NodeIndex(i)
		legs := agg.Legs(idx)
		require.Equal(t, countSubtree(pop, idx), legs.Left.TeamCount+legs.Right.TeamCount+1)
		require.Equal(t, legs.Left.TeamCount, legs.Left.TeamActive+legs.Left.TeamInactive)
	}
}

func TestAggregator_DeepChain(t *testing.T) {
	const depth = 50000
	f := newFixture("m0")
	for i := 1; i < depth; i++ {
		f.add(fmt.Sprintf("m%d", i), fmt.Sprintf("m%d", i-1), domain.PositionLeft, "")
		f.volume(fmt.Sprintf("m%d", i), 1, 0)
	}
	agg := genealogy.NewAggregator(genealogy.NewPopulation(f.members), genealogy.FlashoutOwnVolume)

	root, err := agg.SubtreeOf("m0")
	require.NoError(t, err)
	require.Equal(t, int64(depth), root.TeamCount)
	requireAmount(t, depth-1, root.BV)
}

func TestAggregator_ReportsCycle(t *testing.T) {
	a := &domain.Member{MemberID: "A", Status: domain.MemberStatusActive, Position: domain.PositionRoot, LeftChildID: domain.StringPtr("B")}
	b := &domain.Member{MemberID: "B", Status: domain.MemberStatusActive, ParentID: domain.StringPtr("A"), Position: domain.PositionLeft, LeftChildID: domain.StringPtr("A")}
	agg := genealogy.NewAggregator(genealogy.NewPopulation([]*domain.Member{a, b}), genealogy.FlashoutOwnVolume)

	totals, err := agg.SubtreeOf("A")
	require.NoError(t, err)
	require.Equal(t, int64(2), totals.TeamCount)
	require.NotEmpty(t, agg.Issues())
	require.Equal(t, genealogy.IssueCycle, agg.Issues()[0].Kind)
}
