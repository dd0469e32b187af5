package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/trustdesk/backend/internal/dto"
	"github.com/trustdesk/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200

	// auditTailSize is how many trailing audit entries a report view carries.
	auditTailSize = 10
)

// ReportFilter narrows List. Zero values mean "no constraint".
type ReportFilter struct {
	Status       models.ReportStatus
	Type         models.ReportType
	AssignedToID *uuid.UUID
	Limit        int
	Offset       int
}

func (f *ReportFilter) normalize() error {
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidParameter, f.Status)
	}
	if f.Type != "" && !f.Type.Valid() {
		return fmt.Errorf("%w: unknown report type %q", ErrInvalidParameter, f.Type)
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return nil
}

// ReportView joins a report with reporter/assignee identity and the tail of
// its audit trail, for display only.
type ReportView struct {
	Report     models.Report          `json:"report"`
	Reporter   *dto.UserSummary       `json:"reporter,omitempty"`
	Assignee   *dto.UserSummary       `json:"assignee,omitempty"`
	AuditTrail []models.AuditLogEntry `json:"audit_trail"`
}

// SQLReportStore is the Postgres-backed ReportStore. Reads are lock-free;
// Update serializes per report through a row lock and version check.
type SQLReportStore struct {
	db *gorm.DB
}

func NewSQLReportStore(db *gorm.DB) *SQLReportStore {
	return &SQLReportStore{db: db}
}

func (s *SQLReportStore) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return &report, nil
}

func (s *SQLReportStore) List(ctx context.Context, filter ReportFilter) ([]models.Report, int64, error) {
	if err := filter.normalize(); err != nil {
		return nil, 0, err
	}

	var reports []models.Report
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Report{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.AssignedToID != nil {
		query = query.Where("assigned_to_id = ?", *filter.AssignedToID)
	}
	query.Count(&total)

	if err := query.Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&reports).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, total, nil
}

func (s *SQLReportStore) View(ctx context.Context, id uuid.UUID) (*ReportView, error) {
	var report models.Report
	err := s.db.WithContext(ctx).
		Preload("Reporter").
		Preload("Assignee").
		First(&report, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}

	var trail []models.AuditLogEntry
	err = s.db.WithContext(ctx).
		Where("report_id = ?", id).
		Order("created_at DESC").
		Limit(auditTailSize).
		Find(&trail).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load audit trail: %w", err)
	}

	view := &ReportView{
		Report:     report,
		Reporter:   dto.SummarizeUser(&report.Reporter),
		AuditTrail: trail,
	}
	if report.Assignee != nil {
		view.Assignee = dto.SummarizeUser(report.Assignee)
	}
	return view, nil
}

// Update runs fn against the report row locked at expectedVersion and commits
// the mutated report and the returned audit entry in one transaction. A stale
// version is rejected with ErrVersionConflict before fn runs, so a losing
// caller triggers no side effects.
func (s *SQLReportStore) Update(ctx context.Context, id uuid.UUID, expectedVersion int64, fn UpdateFunc) (*models.Report, error) {
	var updated *models.Report

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report models.Report
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&report, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReportNotFound
			}
			return fmt.Errorf("failed to lock report: %w", err)
		}
		if report.Version != expectedVersion {
			return ErrVersionConflict
		}

		entry, err := fn(&report)
		if err != nil {
			return err
		}

		report.Version++
		if err := tx.Save(&report).Error; err != nil {
			return fmt.Errorf("failed to persist report: %w", err)
		}

		entry.ID = uuid.New()
		entry.ReportID = report.ID
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append audit entry: %w", err)
		}

		updated = &report
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
