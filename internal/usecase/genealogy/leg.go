package genealogy

import (
	"context"
	"errors"
	"fmt"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
)

type legKey struct {
	sponsor string
	node    string
}

// LegClassifier answers which of a sponsor's two subtrees holds a member. It
// walks parent links, not sponsor links. Answers are memoized for every node
// of a walked path, so a classifier should live for one run only.
type LegClassifier struct {
	src      NodeSource
	maxDepth int
	memo     map[legKey]domain.Leg
}

func NewLegClassifier(src NodeSource, maxDepth int) *LegClassifier {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &LegClassifier{src: src, maxDepth: maxDepth, memo: make(map[legKey]domain.Leg)}
}

// Classify returns LegLeft or LegRight, or LegNone with an error matching
// domain.ErrOrphanDescendant when the member is not below the sponsor.
func (c *LegClassifier) Classify(ctx context.Context, sponsorID, memberID string) (domain.Leg, error) {
	if sponsorID == memberID {
		return domain.LegNone, &domain.OrphanDescendantError{SponsorID: sponsorID, MemberID: memberID}
	}

	cur, err := c.src.GetMember(ctx, memberID)
	if err != nil {
		return domain.LegNone, fmt.Errorf("classify %s: %w", memberID, err)
	}

	var path []string
	leg := domain.LegNone
	for depth := 0; ; depth++ {
		if known, ok := c.memo[legKey{sponsorID, cur.MemberID}]; ok {
			leg = known
			break
		}
		path = append(path, cur.MemberID)
		if cur.ParentID == nil {
			break
		}
		if *cur.ParentID == sponsorID {
			leg = cur.Position.Leg()
			break
		}
		if depth >= c.maxDepth {
			return domain.LegNone, fmt.Errorf("walk from %s exceeded %d levels: %w", memberID, c.maxDepth, domain.ErrTreeCorrupted)
		}
		parent, err := c.src.GetMember(ctx, *cur.ParentID)
		if errors.Is(err, domain.ErrMemberNotFound) {
			// A dangling parent ends the path like the root does.
			break
		}
		if err != nil {
			return domain.LegNone, fmt.Errorf("classify %s: %w", memberID, err)
		}
		cur = parent
	}

	for _, id := range path {
		c.memo[legKey{sponsorID, id}] = leg
	}
	if leg == domain.LegNone {
		return domain.LegNone, &domain.OrphanDescendantError{SponsorID: sponsorID, MemberID: memberID}
	}
	return leg, nil
}

// SponsorLeg resolves the leg a member is counted under for its sponsor,
// applying the orphan policy. orphan is set when the classifier found no
// path, whatever leg the policy chose.
func SponsorLeg(ctx context.Context, c *LegClassifier, policy OrphanPolicy, m *domain.Member) (leg domain.Leg, orphan bool, err error) {
	if m.SponsorID == nil || *m.SponsorID == m.MemberID {
		return domain.LegNone, false, nil
	}
	leg, err = c.Classify(ctx, *m.SponsorID, m.MemberID)
	if errors.Is(err, domain.ErrOrphanDescendant) {
		if policy == OrphanUsePosition {
			return m.Position.Leg(), true, nil
		}
		return domain.LegNone, true, nil
	}
	if err != nil {
		return domain.LegNone, false, err
	}
	return leg, false, nil
}
