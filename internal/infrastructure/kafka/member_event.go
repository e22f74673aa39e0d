package kafka

import (
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/shopspring/decimal"
)

type MemberStatusEvent struct {
	MemberID string `json:"member_id"`
	Status   string `json:"status"`
}

type VolumeCreditEvent struct {
	MemberID    string          `json:"member_id"`
	BV          decimal.Decimal `json:"bv"`
	PV          decimal.Decimal `json:"pv"`
	EntryType   string          `json:"entry_type"`
	ReferenceID string          `json:"reference_id"`
}

type LedgerEvent struct {
	MemberID   string              `json:"member_id"`
	Status     string              `json:"status"`
	SponsorLeg string              `json:"sponsor_leg"`
	Volume     domain.VolumeLedger `json:"volume"`
	Team       domain.TeamLedger   `json:"team"`
	Directs    domain.DirectLedger `json:"directs"`
	Version    int64               `json:"version"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func NewLedgerEvent(m *domain.Member) LedgerEvent {
	return LedgerEvent{
		MemberID:   m.MemberID,
		Status:     string(m.Status),
		SponsorLeg: string(m.SponsorLeg),
		Volume:     m.Volume,
		Team:       m.Team,
		Directs:    m.Directs,
		Version:    m.Version,
		UpdatedAt:  m.UpdatedAt,
	}
}
