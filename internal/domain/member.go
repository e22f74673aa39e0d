package domain

import "time"

type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "active"
	MemberStatusInactive  MemberStatus = "inactive"
	MemberStatusSuspended MemberStatus = "suspended"
)

func (s MemberStatus) Valid() bool {
	switch s {
	case MemberStatusActive, MemberStatusInactive, MemberStatusSuspended:
		return true
	}
	return false
}

// IsActive reports whether the member's volume counts upstream. Suspended
// members are flashed out the same way inactive ones are.
func (s MemberStatus) IsActive() bool {
	return s == MemberStatusActive
}

// Position is the side a member occupies under its placement parent.
type Position string

const (
	PositionLeft  Position = "left"
	PositionRight Position = "right"
	PositionRoot  Position = "root"
)

// Leg converts a child position to the leg it starts.
func (p Position) Leg() Leg {
	switch p {
	case PositionLeft:
		return LegLeft
	case PositionRight:
		return LegRight
	}
	return LegNone
}

// Leg is one of the two subtrees of a reference node.
type Leg string

const (
	LegLeft  Leg = "left"
	LegRight Leg = "right"
	LegNone  Leg = "none"
)

func ParseLeg(s string) (Leg, error) {
	switch Leg(s) {
	case LegLeft, LegRight, LegNone:
		return Leg(s), nil
	case "":
		return LegNone, nil
	}
	return LegNone, ErrInvalidSide
}

type Member struct {
	Key          string
	MemberID     string
	Status       MemberStatus
	ParentID     *string
	Position     Position
	LeftChildID  *string
	RightChildID *string
	SponsorID    *string
	SponsorLeg   Leg
	Volume       VolumeLedger
	Team         TeamLedger
	Directs      DirectLedger
	Version      int64
	JoinedAt     time.Time
	UpdatedAt    time.Time
}

func (m *Member) IsRoot() bool {
	return m.ParentID == nil
}

// Child returns the occupant id of the given slot, nil when the slot is open.
func (m *Member) Child(side Position) *string {
	switch side {
	case PositionLeft:
		return m.LeftChildID
	case PositionRight:
		return m.RightChildID
	}
	return nil
}

func (m *Member) SetChild(side Position, childID string) {
	id := childID
	switch side {
	case PositionLeft:
		m.LeftChildID = &id
	case PositionRight:
		m.RightChildID = &id
	}
}

// SponsoredBy reports whether sponsorID recruited the member.
func (m *Member) SponsoredBy(sponsorID string) bool {
	return m.SponsorID != nil && *m.SponsorID == sponsorID
}

// Clone returns a deep copy; pointer fields are not shared.
func (m *Member) Clone() *Member {
	c := *m
	c.ParentID = cloneID(m.ParentID)
	c.LeftChildID = cloneID(m.LeftChildID)
	c.RightChildID = cloneID(m.RightChildID)
	c.SponsorID = cloneID(m.SponsorID)
	return &c
}

// DerivedEqual compares everything the aggregation engine owns.
func (m *Member) DerivedEqual(o *Member) bool {
	return m.SponsorLeg == o.SponsorLeg &&
		m.Volume.Equal(o.Volume) &&
		m.Team == o.Team &&
		m.Directs == o.Directs
}

func cloneID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func StringPtr(s string) *string {
	return &s
}
