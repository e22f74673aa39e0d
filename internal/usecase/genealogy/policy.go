// Package genealogy is the placement and aggregation engine of the binary
// tree: BFS spillover placement, sponsor leg classification, memoized subtree
// aggregation, sponsor direct counting and the batch and incremental
// recompute built from them. It reads members through domain.MemberRepository
// or an in-memory Population and never talks to a database directly.
package genealogy

import (
	"fmt"
	"strings"
)

// FlashoutPolicy decides what a non-active member reports upstream.
type FlashoutPolicy int

const (
	// FlashoutOwnVolume zeroes only the member's own volume; volume of its
	// downline still flows through it.
	FlashoutOwnVolume FlashoutPolicy = iota
	// FlashoutSubtree zeroes everything the member's subtree would report.
	FlashoutSubtree
)

func (p FlashoutPolicy) String() string {
	if p == FlashoutSubtree {
		return "subtree"
	}
	return "own-volume"
}

func ParseFlashoutPolicy(s string) (FlashoutPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "own-volume", "own":
		return FlashoutOwnVolume, nil
	case "subtree":
		return FlashoutSubtree, nil
	}
	return FlashoutOwnVolume, fmt.Errorf("unknown flashout policy %q", s)
}

// OrphanPolicy decides the sponsor leg of a member whose placement path never
// reaches its sponsor.
type OrphanPolicy int

const (
	// OrphanSkip counts the member toward neither leg.
	OrphanSkip OrphanPolicy = iota
	// OrphanUsePosition falls back to the member's own placement position.
	OrphanUsePosition
)

func (p OrphanPolicy) String() string {
	if p == OrphanUsePosition {
		return "use-position"
	}
	return "skip"
}

func ParseOrphanPolicy(s string) (OrphanPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return OrphanSkip, nil
	case "use-position", "position":
		return OrphanUsePosition, nil
	}
	return OrphanSkip, fmt.Errorf("unknown orphan policy %q", s)
}

const DefaultMaxDepth = 1000

type Policy struct {
	Flashout FlashoutPolicy
	Orphans  OrphanPolicy
	// MaxDepth bounds every upward walk and BFS level count. Zero means
	// DefaultMaxDepth.
	MaxDepth int
}

func DefaultPolicy() Policy {
	return Policy{Flashout: FlashoutOwnVolume, Orphans: OrphanSkip, MaxDepth: DefaultMaxDepth}
}

func (p Policy) maxDepth() int {
	if p.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return p.MaxDepth
}
