package genealogydto

import (
	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/shopspring/decimal"
)

type PlacementOutput struct {
	Member  *domain.Member
	Depth   int
	Retries int
}

type CreditVolumeOutput struct {
	Member *domain.Member
	// Applied is false when the reference was already credited.
	Applied bool
}

type TreeNode struct {
	Member *domain.Member
	Left   *TreeNode
	Right  *TreeNode
}

type Pagination struct {
	CurrentPage  int32
	TotalPages   int32
	TotalItems   int64
	ItemsPerPage int32
}

type LegTeamOutput struct {
	Members    []*domain.Member
	Pagination Pagination
}

type AggregateOutput struct {
	MemberID     string
	BV           decimal.Decimal
	PV           decimal.Decimal
	TeamCount    int64
	TeamActive   int64
	TeamInactive int64
}

type RecomputeOutput struct {
	Run *domain.ReconciliationRun
	// Shared is set when the call joined a run already in progress.
	Shared bool
}
