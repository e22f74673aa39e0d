package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	genealogydto "github.com/LavaJover/shvark-genealogy-service/internal/usecase/dto/genealogy"
	"github.com/LavaJover/shvark-genealogy-service/internal/usecase/genealogy"
)

const (
	defaultTreeDepth = 3
	maxTreeDepth     = 10
	defaultPageLimit = 50
	maxPageLimit     = 500
)

type GenealogyUsecase interface {
	Member(ctx context.Context, memberID string) (*domain.Member, error)
	Tree(ctx context.Context, memberID string, depth int) (*genealogydto.TreeNode, error)
	LegTeam(ctx context.Context, input *genealogydto.LegTeamInput) (*genealogydto.LegTeamOutput, error)
	Directs(ctx context.Context, sponsorID string, leg domain.Leg) ([]*domain.Member, error)
	ClassifyLeg(ctx context.Context, sponsorID, memberID string) (domain.Leg, error)
	Aggregate(ctx context.Context, memberID string, fresh bool) (*genealogydto.AggregateOutput, error)
}

type DefaultGenealogyUsecase struct {
	Store   domain.Store
	Options GenealogyOptions
}

func NewDefaultGenealogyUsecase(store domain.Store, options GenealogyOptions) *DefaultGenealogyUsecase {
	return &DefaultGenealogyUsecase{Store: store, Options: options}
}

func (uc *DefaultGenealogyUsecase) Member(ctx context.Context, memberID string) (*domain.Member, error) {
	return uc.Store.Members().GetMember(ctx, memberID)
}

// Tree returns the binary view below memberID, depth levels deep.
func (uc *DefaultGenealogyUsecase) Tree(ctx context.Context, memberID string, depth int) (*genealogydto.TreeNode, error) {
	if depth <= 0 {
		depth = defaultTreeDepth
	}
	if depth > maxTreeDepth {
		depth = maxTreeDepth
	}
	root, err := uc.Store.Members().GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return uc.subtree(ctx, root, depth)
}

func (uc *DefaultGenealogyUsecase) subtree(ctx context.Context, m *domain.Member, depth int) (*genealogydto.TreeNode, error) {
	node := &genealogydto.TreeNode{Member: m}
	if depth == 0 {
		return node, nil
	}
	for _, side := range []domain.Position{domain.PositionLeft, domain.PositionRight} {
		childID := m.Child(side)
		if childID == nil {
			continue
		}
		child, err := uc.Store.Members().GetMember(ctx, *childID)
		if err != nil {
			return nil, fmt.Errorf("%s child of %s: %w", side, m.MemberID, err)
		}
		sub, err := uc.subtree(ctx, child, depth-1)
		if err != nil {
			return nil, err
		}
		if side == domain.PositionLeft {
			node.Left = sub
		} else {
			node.Right = sub
		}
	}
	return node, nil
}

// LegTeam pages through the whole subtree under one of the member's legs in
// breadth first order. The total comes from the stored team ledger.
func (uc *DefaultGenealogyUsecase) LegTeam(ctx context.Context, input *genealogydto.LegTeamInput) (*genealogydto.LegTeamOutput, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 || input.Limit > maxPageLimit {
		input.Limit = defaultPageLimit
	}

	repo := uc.Store.Members()
	member, err := repo.GetMember(ctx, input.MemberID)
	if err != nil {
		return nil, err
	}

	var (
		start *string
		total int64
	)
	switch input.Leg {
	case domain.LegLeft:
		start, total = member.LeftChildID, member.Team.LeftTeamCount
	case domain.LegRight:
		start, total = member.RightChildID, member.Team.RightTeamCount
	default:
		return nil, fmt.Errorf("leg %q: %w", input.Leg, domain.ErrInvalidSide)
	}

	limit := int64(input.Limit)
	totalPages := (total + limit - 1) / limit
	if input.Page > 1 && int64(input.Page) > totalPages {
		return nil, fmt.Errorf("page %d of %d: %w", input.Page, totalPages, domain.ErrInvalidPage)
	}
	offset := int(int64(input.Page-1) * limit)
	want := offset + int(limit)
	var members []*domain.Member
	if start != nil {
		queue := []string{*start}
		for seen := 0; len(queue) > 0 && seen < want; seen++ {
			m, err := repo.GetMember(ctx, queue[0])
			if err != nil {
				return nil, err
			}
			queue = queue[1:]
			if seen >= offset {
				members = append(members, m)
			}
			for _, side := range []domain.Position{domain.PositionLeft, domain.PositionRight} {
				if id := m.Child(side); id != nil {
					queue = append(queue, *id)
				}
			}
		}
	}

	return &genealogydto.LegTeamOutput{
		Members: members,
		Pagination: genealogydto.Pagination{
			CurrentPage:  input.Page,
			TotalPages:   int32(totalPages),
			TotalItems:   total,
			ItemsPerPage: input.Limit,
		},
	}, nil
}

// Directs lists members recruited by sponsorID. LegNone returns all of them.
func (uc *DefaultGenealogyUsecase) Directs(ctx context.Context, sponsorID string, leg domain.Leg) ([]*domain.Member, error) {
	if _, err := uc.Store.Members().GetMember(ctx, sponsorID); err != nil {
		return nil, err
	}
	recruits, err := uc.Store.Members().ListBySponsor(ctx, sponsorID)
	if err != nil {
		return nil, err
	}
	if leg == "" || leg == domain.LegNone {
		return recruits, nil
	}
	filtered := recruits[:0]
	for _, m := range recruits {
		if m.SponsorLeg == leg {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

func (uc *DefaultGenealogyUsecase) ClassifyLeg(ctx context.Context, sponsorID, memberID string) (domain.Leg, error) {
	c := genealogy.NewLegClassifier(uc.Store.Members(), uc.Options.Policy.MaxDepth)
	leg, err := c.Classify(ctx, sponsorID, memberID)
	if err != nil && !errors.Is(err, domain.ErrOrphanDescendant) {
		return domain.LegNone, err
	}
	return leg, err
}

// Aggregate reports what the subtree rooted at memberID contributes to its
// parent. Without fresh it is derived from the member's stored ledgers;
// fresh recomputes it from a snapshot of the whole population.
func (uc *DefaultGenealogyUsecase) Aggregate(ctx context.Context, memberID string, fresh bool) (*genealogydto.AggregateOutput, error) {
	var totals genealogy.SubtreeTotals
	if fresh {
		snapshot, err := uc.Store.Snapshot(ctx)
		if err != nil {
			return nil, err
		}
		if totals, err = genealogy.Aggregate(snapshot, memberID, uc.Options.Policy.Flashout); err != nil {
			return nil, err
		}
	} else {
		m, err := uc.Store.Members().GetMember(ctx, memberID)
		if err != nil {
			return nil, err
		}
		totals = uc.Options.Policy.Flashout.Contribution(m, genealogy.StoredLegs(m))
	}
	return &genealogydto.AggregateOutput{
		MemberID:     memberID,
		BV:           totals.BV,
		PV:           totals.PV,
		TeamCount:    totals.TeamCount,
		TeamActive:   totals.TeamActive,
		TeamInactive: totals.TeamInactive,
	}, nil
}
