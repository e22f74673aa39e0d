package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MemberModel struct {
	Key          string  `gorm:"primaryKey;type:uuid"`
	MemberID     string  `gorm:"uniqueIndex;not null"`
	Status       string  `gorm:"index;not null"`
	ParentID     *string `gorm:"index"`
	Position     string  `gorm:"not null"`
	LeftChildID  *string
	RightChildID *string
	SponsorID    *string `gorm:"index"`
	SponsorLeg   string  `gorm:"not null;default:none"`

	PersonalBV decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	PersonalPV decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	LeftLegBV  decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	LeftLegPV  decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	RightLegBV decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	RightLegPV decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	TotalBV    decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	TotalPV    decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`

	LeftTeamCount     int64 `gorm:"not null;default:0"`
	LeftTeamActive    int64 `gorm:"not null;default:0"`
	LeftTeamInactive  int64 `gorm:"not null;default:0"`
	RightTeamCount    int64 `gorm:"not null;default:0"`
	RightTeamActive   int64 `gorm:"not null;default:0"`
	RightTeamInactive int64 `gorm:"not null;default:0"`

	LeftDirectActive    int64 `gorm:"not null;default:0"`
	LeftDirectInactive  int64 `gorm:"not null;default:0"`
	RightDirectActive   int64 `gorm:"not null;default:0"`
	RightDirectInactive int64 `gorm:"not null;default:0"`

	Version   int64     `gorm:"not null;default:1"`
	JoinedAt  time.Time `gorm:"index"`
	UpdatedAt time.Time
}

func (MemberModel) TableName() string {
	return "members"
}
