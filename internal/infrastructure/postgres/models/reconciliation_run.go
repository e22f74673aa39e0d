package models

import "time"

type ReconciliationRunModel struct {
	ID          string `gorm:"primaryKey;type:uuid"`
	Mode        string `gorm:"not null"`
	Population  int
	Corrections int
	Skipped     int
	Orphans     int
	Issues      int
	StartedAt   time.Time `gorm:"index"`
	FinishedAt  time.Time
	Error       string
}

func (ReconciliationRunModel) TableName() string {
	return "reconciliation_runs"
}
