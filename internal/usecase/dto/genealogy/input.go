package genealogydto

import (
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/shopspring/decimal"
)

type PlaceMemberInput struct {
	// MemberID is generated when empty.
	MemberID      string
	SponsorID     string
	PreferredSide domain.Position
	// Status defaults to inactive until the joining package is paid.
	Status   domain.MemberStatus
	JoinedAt time.Time
}

type CreateRootInput struct {
	MemberID string
	Status   domain.MemberStatus
}

type CreditVolumeInput struct {
	MemberID    string
	BV          decimal.Decimal
	PV          decimal.Decimal
	EntryType   domain.VolumeEntryType
	ReferenceID string
}

type LegTeamInput struct {
	MemberID string
	Leg      domain.Leg
	Page     int32
	Limit    int32
}
