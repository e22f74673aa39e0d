package genealogy

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
)

// Placement is the open slot chosen for a new recruit.
type Placement struct {
	ParentID string
	Position domain.Position
	// ParentVersion is the parent's version when the slot was seen open.
	ParentVersion int64
	// Depth is the parent's distance below the sponsor.
	Depth int
}

// ResolvePlacement finds the shallowest open slot below sponsorID by breadth
// first search. At every node the preferred side is tried first, then the
// other one. An empty preferred side means left first.
func ResolvePlacement(ctx context.Context, src NodeSource, sponsorID string, preferred domain.Position, maxDepth int) (Placement, error) {
	order, err := sideOrder(preferred)
	if err != nil {
		return Placement{}, err
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	sponsor, err := src.GetMember(ctx, sponsorID)
	if errors.Is(err, domain.ErrMemberNotFound) {
		return Placement{}, fmt.Errorf("sponsor %s: %w", sponsorID, domain.ErrInvalidSponsor)
	}
	if err != nil {
		return Placement{}, fmt.Errorf("load sponsor %s: %w", sponsorID, err)
	}

	type item struct {
		member *domain.Member
		depth  int
	}
	queue := []item{{member: sponsor}}
	seen := map[string]struct{}{sponsor.MemberID: {}}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return Placement{}, err
		}
		cur := queue[0]
		queue = queue[1:]
		if cur.depth > maxDepth {
			return Placement{}, fmt.Errorf("sponsor %s: %w (depth %d)", sponsorID, domain.ErrPlacementExhausted, maxDepth)
		}

		for _, side := range order {
			if cur.member.Child(side) == nil {
				return Placement{
					ParentID:      cur.member.MemberID,
					Position:      side,
					ParentVersion: cur.member.Version,
					Depth:         cur.depth,
				}, nil
			}
		}

		for _, side := range order {
			childID := *cur.member.Child(side)
			if _, dup := seen[childID]; dup {
				return Placement{}, fmt.Errorf("member %s reached twice below sponsor %s: %w", childID, sponsorID, domain.ErrPlacementExhausted)
			}
			seen[childID] = struct{}{}
			child, err := src.GetMember(ctx, childID)
			if errors.Is(err, domain.ErrMemberNotFound) {
				return Placement{}, fmt.Errorf("%s slot of %s points to missing member %s: %w", side, cur.member.MemberID, childID, domain.ErrTreeCorrupted)
			}
			if err != nil {
				return Placement{}, fmt.Errorf("load member %s: %w", childID, err)
			}
			queue = append(queue, item{member: child, depth: cur.depth + 1})
		}
	}

	// A finite tree always has an open slot at its leaves.
	return Placement{}, fmt.Errorf("sponsor %s: %w", sponsorID, domain.ErrPlacementExhausted)
}

func sideOrder(preferred domain.Position) ([]domain.Position, error) {
	switch preferred {
	case "", domain.PositionLeft:
		return []domain.Position{domain.PositionLeft, domain.PositionRight}, nil
	case domain.PositionRight:
		return []domain.Position{domain.PositionRight, domain.PositionLeft}, nil
	}
	return nil, fmt.Errorf("preferred side %q: %w", preferred, domain.ErrInvalidSide)
}
