package domain

import (
	"context"
	"time"
)

type AuditKind string

const (
	AuditOrphan     AuditKind = "orphan"
	AuditCorrection AuditKind = "correction"
	AuditIntegrity  AuditKind = "integrity"
)

// AuditEvent records something reconciliation noticed but did not fail on.
type AuditEvent struct {
	Kind      AuditKind
	MemberID  string
	SponsorID string
	RunID     string
	Detail    string
	CreatedAt time.Time
}

type AuditLogger interface {
	LogAudit(ctx context.Context, events ...AuditEvent) error
}
