package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trustdesk/backend/internal/dto"
	"github.com/trustdesk/backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrAlreadyBlocked    = errors.New("user already blocked")
	ErrSelfBlock         = errors.New("cannot block yourself")
	ErrReporterSuspended = errors.New("reporter account is suspended")
)

// ReportService covers the flows outside the workflow engine: report intake
// (a plain insert into state NEW) and user-level blocking.
type ReportService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db, now: time.Now}
}

// CreateReport files a new report in state NEW with no resolution and no
// assignee. A reporter under an active suspension cannot file.
func (s *ReportService) CreateReport(ctx context.Context, reporterID uuid.UUID, req *dto.CreateReportRequest) (*models.Report, error) {
	reportType := models.ReportType(req.Type)
	if !reportType.Valid() {
		return nil, fmt.Errorf("%w: unknown report type %q", ErrInvalidParameter, req.Type)
	}
	if strings.TrimSpace(req.Reason) == "" {
		return nil, fmt.Errorf("%w: reason is required", ErrMissingParameter)
	}

	report := models.Report{
		ID:         uuid.New(),
		Type:       reportType,
		ReporterID: reporterID,
		Reason:     req.Reason,
		Status:     models.StatusNew,
		Version:    1,
	}
	if err := setSubject(&report, req); err != nil {
		return nil, err
	}

	var reporter models.User
	if err := s.db.WithContext(ctx).First(&reporter, "id = ?", reporterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load reporter: %w", err)
	}
	if reporter.SuspensionActive(s.now()) {
		return nil, ErrReporterSuspended
	}

	if err := s.db.WithContext(ctx).Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	return &report, nil
}

// setSubject copies exactly one subject reference, matching the report type.
func setSubject(report *models.Report, req *dto.CreateReportRequest) error {
	refs := map[models.ReportType]string{
		models.TypeEvent:   req.EventID,
		models.TypePost:    req.PostID,
		models.TypeComment: req.CommentID,
		models.TypeUser:    req.UserID,
		models.TypeMedia:   req.MediaID,
	}

	for t, ref := range refs {
		if t == report.Type {
			continue
		}
		if ref != "" {
			return fmt.Errorf("%w: subject %s does not match report type %s", ErrInvalidParameter, t, report.Type)
		}
	}

	ref := refs[report.Type]
	if ref == "" {
		return fmt.Errorf("%w: report of type %s requires its subject reference", ErrMissingParameter, report.Type)
	}

	switch report.Type {
	case models.TypeEvent:
		report.EventID = &ref
	case models.TypePost:
		report.PostID = &ref
	case models.TypeComment:
		report.CommentID = &ref
	case models.TypeUser:
		report.UserID = &ref
	case models.TypeMedia:
		report.MediaID = &ref
	}
	return nil
}

func (s *ReportService) BlockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	if blockerID == blockedID {
		return ErrSelfBlock
	}

	var existing models.Block
	if err := s.db.WithContext(ctx).Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).First(&existing).Error; err == nil {
		return ErrAlreadyBlocked
	}

	block := models.Block{
		ID:        uuid.New(),
		BlockerID: blockerID,
		BlockedID: blockedID,
	}
	return s.db.WithContext(ctx).Create(&block).Error
}

func (s *ReportService) UnblockUser(ctx context.Context, blockerID, blockedID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&models.Block{}).Error
}

func (s *ReportService) GetBlockedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var blocks []models.Block
	if err := s.db.WithContext(ctx).Where("blocker_id = ?", userID).Find(&blocks).Error; err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(blocks))
	for i, b := range blocks {
		ids[i] = b.BlockedID
	}
	return ids, nil
}
