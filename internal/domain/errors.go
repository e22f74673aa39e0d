package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMemberNotFound         = errors.New("member not found")
	ErrDuplicateMember        = errors.New("member already exists")
	ErrRootExists             = errors.New("tree already has a root")
	ErrInvalidSponsor         = errors.New("invalid sponsor")
	ErrPlacementExhausted     = errors.New("placement search exceeded safety depth")
	ErrOrphanDescendant       = errors.New("member is not a descendant of its sponsor")
	ErrConcurrentSlotConflict = errors.New("concurrent placement conflict on slot")
	ErrSlotOccupied           = errors.New("slot already occupied")
	ErrAggregationDrift       = errors.New("stored aggregates drifted from recompute")
	ErrTreeCorrupted          = errors.New("genealogy tree is corrupted")
	ErrInvalidStatus          = errors.New("invalid member status")
	ErrInvalidSide            = errors.New("invalid side")
	ErrInvalidVolume          = errors.New("invalid volume")
	ErrInvalidMember          = errors.New("invalid member id")
	ErrInvalidPage            = errors.New("page out of range")
)

// OrphanDescendantError reports a member whose upward placement path never
// passes through its sponsor.
type OrphanDescendantError struct {
	SponsorID string
	MemberID  string
}

func (e *OrphanDescendantError) Error() string {
	return fmt.Sprintf("member %s is not placed under sponsor %s", e.MemberID, e.SponsorID)
}

func (e *OrphanDescendantError) Unwrap() error {
	return ErrOrphanDescendant
}
