package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type VolumeEntryModel struct {
	ID        string          `gorm:"primaryKey;type:uuid"`
	MemberID  string          `gorm:"not null;uniqueIndex:idx_volume_entry_reference"`
	EntryType string          `gorm:"not null"`
	BV        decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	PV        decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	// Null references are never deduplicated.
	ReferenceID *string   `gorm:"uniqueIndex:idx_volume_entry_reference"`
	CreatedAt   time.Time `gorm:"index"`
}

func (VolumeEntryModel) TableName() string {
	return "volume_entries"
}
