package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type VolumeEntryType string

const (
	VolumeEntryJoining         VolumeEntryType = "joining"
	VolumeEntryRepurchase      VolumeEntryType = "repurchase"
	VolumeEntryAdminAdjustment VolumeEntryType = "admin-adjustment"
)

func (t VolumeEntryType) Valid() bool {
	switch t {
	case VolumeEntryJoining, VolumeEntryRepurchase, VolumeEntryAdminAdjustment:
		return true
	}
	return false
}

// VolumeEntry is one personal-volume credit. ReferenceID makes redelivered
// credits idempotent per member.
type VolumeEntry struct {
	ID          string
	MemberID    string
	EntryType   VolumeEntryType
	BV          decimal.Decimal
	PV          decimal.Decimal
	ReferenceID string
	CreatedAt   time.Time
}
