package domain

import "time"

type ReconciliationMode string

const (
	ReconciliationBatch ReconciliationMode = "batch"
)

type ReconciliationRun struct {
	ID          string
	Mode        ReconciliationMode
	Population  int
	Corrections int
	Skipped     int
	Orphans     int
	Issues      int
	StartedAt   time.Time
	FinishedAt  time.Time
	Error       string
}
