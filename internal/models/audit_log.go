package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry records one effective action against a report. Entries are
// insert-only and never updated; every successful mutation of a report
// writes exactly one entry in the same transaction.
type AuditLogEntry struct {
	ID            uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReportID      uuid.UUID        `gorm:"type:uuid;not null;index" json:"report_id"`
	Action        ModerationAction `gorm:"not null;size:20" json:"action"`
	Note          *string          `gorm:"size:1000" json:"note,omitempty"`
	PerformedByID uuid.UUID        `gorm:"type:uuid;not null;index" json:"performed_by_id"`
	CreatedAt     time.Time        `gorm:"index" json:"created_at"`

	Report      Report `gorm:"foreignKey:ReportID" json:"-"`
	PerformedBy User   `gorm:"foreignKey:PerformedByID" json:"-"`
}

func (AuditLogEntry) TableName() string {
	return "audit_log_entries"
}
