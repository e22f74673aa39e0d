package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditEventModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	Kind      string `gorm:"not null"`
	MemberID  string `gorm:"not null;index:idx_genealogy_audit_events_member"`
	SponsorID *string
	RunID     *string `gorm:"type:uuid"`
	Detail    string
	CreatedAt time.Time
}

func (AuditEventModel) TableName() string {
	return "genealogy_audit_events"
}

// PGAuditLogger appends audit events to genealogy_audit_events.
type PGAuditLogger struct {
	db *gorm.DB
}

func NewPGAuditLogger(db *gorm.DB) *PGAuditLogger {
	return &PGAuditLogger{db: db}
}

func (l *PGAuditLogger) LogAudit(ctx context.Context, events ...domain.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]AuditEventModel, 0, len(events))
	now := time.Now().UTC()
	for _, e := range events {
		row := AuditEventModel{
			ID:        uuid.NewString(),
			Kind:      string(e.Kind),
			MemberID:  e.MemberID,
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		}
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if e.SponsorID != "" {
			row.SponsorID = domain.StringPtr(e.SponsorID)
		}
		if e.RunID != "" {
			row.RunID = domain.StringPtr(e.RunID)
		}
		rows = append(rows, row)
	}
	return l.db.WithContext(ctx).CreateInBatches(rows, 200).Error
}

// SlogAuditLogger writes audit events to the process log only.
type SlogAuditLogger struct {
	logger *slog.Logger
}

func NewSlogAuditLogger(logger *slog.Logger) *SlogAuditLogger {
	return &SlogAuditLogger{logger: logger}
}

func (l *SlogAuditLogger) LogAudit(ctx context.Context, events ...domain.AuditEvent) error {
	for _, e := range events {
		l.logger.WarnContext(ctx, "genealogy audit",
			"kind", e.Kind,
			"member_id", e.MemberID,
			"sponsor_id", e.SponsorID,
			"run_id", e.RunID,
			"detail", e.Detail,
		)
	}
	return nil
}
