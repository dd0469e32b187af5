package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trustdesk/backend/internal/models"
)

// Actor is the authenticated principal performing a moderation call. It is
// threaded explicitly through the engine so authorization is testable
// without any request context.
type Actor struct {
	ID    uuid.UUID
	Email string
}

// Authorizer answers whether a principal may perform moderation actions.
type Authorizer interface {
	CanModerate(ctx context.Context, actor Actor) (bool, error)
}

// UserDirectory applies and lifts account sanctions. The engine never
// touches user rows directly.
type UserDirectory interface {
	Suspend(ctx context.Context, userID uuid.UUID, until time.Time) error
	ClearSuspension(ctx context.Context, userID uuid.UUID) error
}

// ContentDeleter removes the underlying flagged content.
type ContentDeleter interface {
	Delete(ctx context.Context, contentType models.ReportType, subjectRef string) error
}

// ReportStore is the persistence boundary of the workflow engine. Update is
// a transactional compare-and-swap: the callback runs with the report row
// locked at the expected version, and the mutated report plus the returned
// audit entry commit as one unit or not at all.
type ReportStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Report, error)
	List(ctx context.Context, filter ReportFilter) ([]models.Report, int64, error)
	View(ctx context.Context, id uuid.UUID) (*ReportView, error)
	Update(ctx context.Context, id uuid.UUID, expectedVersion int64, fn UpdateFunc) (*models.Report, error)
}

// UpdateFunc validates and mutates a report in place, returning the single
// audit entry to append alongside it.
type UpdateFunc func(r *models.Report) (*models.AuditLogEntry, error)

// ActionParams carries the optional inputs of an action. SanctionDurationDays
// is a pointer so an omitted duration and an explicit zero are told apart.
type ActionParams struct {
	Note                 string
	AssignedToID         *uuid.UUID
	TargetUserID         *uuid.UUID
	SanctionType         models.SanctionType
	SanctionDurationDays *int
}

// WorkflowService is the moderation workflow engine: it validates an action
// against the report's current status and the actor's capability, computes
// the transition, invokes side-effect collaborators and commits the report
// mutation with exactly one audit entry.
type WorkflowService struct {
	store   ReportStore
	authz   Authorizer
	users   UserDirectory
	content ContentDeleter
	now     func() time.Time
}

func NewWorkflowService(store ReportStore, authz Authorizer, users UserDirectory, content ContentDeleter) *WorkflowService {
	return &WorkflowService{
		store:   store,
		authz:   authz,
		users:   users,
		content: content,
		now:     time.Now,
	}
}

// ApplyAction is the single mutation entry point for reports. Errors leave
// zero trace: no status change, no side effect, no audit entry.
func (s *WorkflowService) ApplyAction(ctx context.Context, reportID uuid.UUID, action models.ModerationAction, params ActionParams, actor Actor) (*models.Report, error) {
	ok, err := s.authz.CanModerate(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("%w: authorization check: %v", ErrDependencyFailure, err)
	}
	if !ok {
		return nil, ErrUnauthorized
	}

	if !action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidParameter, action)
	}
	if err := validateParams(action, params); err != nil {
		return nil, err
	}

	current, err := s.store.Get(ctx, reportID)
	if err != nil {
		return nil, err
	}

	return s.store.Update(ctx, reportID, current.Version, func(r *models.Report) (*models.AuditLogEntry, error) {
		return s.transition(ctx, r, action, params, actor)
	})
}

// validateParams rejects malformed requests before any state is read for
// mutation purposes, so invalid input never reaches a collaborator.
func validateParams(action models.ModerationAction, params ActionParams) error {
	switch action {
	case models.ActionAssign:
		if params.AssignedToID == nil {
			return fmt.Errorf("%w: ASSIGN requires assigned_to_id", ErrMissingParameter)
		}
	case models.ActionAddNote:
		if params.Note == "" {
			return fmt.Errorf("%w: ADD_NOTE requires a note", ErrMissingParameter)
		}
	case models.ActionSanctionUser:
		if params.SanctionType == "" {
			return fmt.Errorf("%w: SANCTION_USER requires sanction_type", ErrMissingParameter)
		}
		if !params.SanctionType.Valid() {
			return fmt.Errorf("%w: unknown sanction type %q", ErrInvalidParameter, params.SanctionType)
		}
		if params.TargetUserID == nil {
			return fmt.Errorf("%w: SANCTION_USER requires target_user_id", ErrMissingParameter)
		}
		if params.SanctionType == models.SanctionSuspend {
			if params.SanctionDurationDays == nil {
				return fmt.Errorf("%w: SUSPEND requires sanction_duration_days", ErrMissingParameter)
			}
			if *params.SanctionDurationDays <= 0 {
				return fmt.Errorf("%w: sanction_duration_days must be positive, got %d", ErrInvalidParameter, *params.SanctionDurationDays)
			}
		}
	case models.ActionApprove, models.ActionReject, models.ActionEscalate,
		models.ActionInReview, models.ActionDeleteContent:
		// no parameters required
	}
	return nil
}

// reviewable statuses accept terminal actions (approve/reject/delete/sanction).
func reviewable(status models.ReportStatus) bool {
	return status == models.StatusNew || status == models.StatusInReview || status == models.StatusEscalated
}

func invalidTransition(status models.ReportStatus, action models.ModerationAction) error {
	return fmt.Errorf("%w: %s from status %s", ErrInvalidAction, action, status)
}

// transition applies the action to the loaded report. It runs inside the
// store's unit of work: any error here rolls everything back.
func (s *WorkflowService) transition(ctx context.Context, r *models.Report, action models.ModerationAction, params ActionParams, actor Actor) (*models.AuditLogEntry, error) {
	var note *string
	if params.Note != "" {
		n := params.Note
		note = &n
	}

	switch action {
	case models.ActionApprove:
		if !reviewable(r.Status) {
			return nil, invalidTransition(r.Status, action)
		}
		resolve(r, models.StatusResolved, models.ResolutionApproved)

	case models.ActionReject:
		if !reviewable(r.Status) {
			return nil, invalidTransition(r.Status, action)
		}
		resolve(r, models.StatusResolved, models.ResolutionRejected)

	case models.ActionEscalate:
		if r.Status != models.StatusNew && r.Status != models.StatusInReview {
			return nil, invalidTransition(r.Status, action)
		}
		r.Status = models.StatusEscalated

	case models.ActionInReview:
		if r.Status != models.StatusNew {
			return nil, invalidTransition(r.Status, action)
		}
		r.Status = models.StatusInReview

	case models.ActionAssign:
		if r.Status == models.StatusResolved {
			return nil, invalidTransition(r.Status, action)
		}
		r.AssignedToID = params.AssignedToID
		if note == nil {
			n := "Assigned to moderator: " + params.AssignedToID.String()
			note = &n
		}

	case models.ActionAddNote:
		// annotation only, allowed from every status including RESOLVED

	case models.ActionDeleteContent:
		if !reviewable(r.Status) {
			return nil, invalidTransition(r.Status, action)
		}
		ref, ok := r.SubjectRef()
		if !ok {
			return nil, fmt.Errorf("%w: report %s has no subject reference", ErrInvalidParameter, r.ID)
		}
		if err := s.content.Delete(ctx, r.Type, ref); err != nil {
			return nil, fmt.Errorf("%w: content deletion: %v", ErrDependencyFailure, err)
		}
		resolve(r, models.StatusActioned, models.ResolutionContentDeleted)

	case models.ActionSanctionUser:
		if !reviewable(r.Status) {
			return nil, invalidTransition(r.Status, action)
		}
		if err := s.applySanction(ctx, params); err != nil {
			return nil, err
		}
		resolve(r, models.StatusActioned, models.ResolutionUserSanctioned)
	}

	return &models.AuditLogEntry{
		ReportID:      r.ID,
		Action:        action,
		Note:          note,
		PerformedByID: actor.ID,
	}, nil
}

func resolve(r *models.Report, status models.ReportStatus, resolution models.Resolution) {
	r.Status = status
	r.Resolution = &resolution
}

func (s *WorkflowService) applySanction(ctx context.Context, params ActionParams) error {
	target := *params.TargetUserID

	if params.SanctionType == models.SanctionSuspend {
		until := s.now().Add(time.Duration(*params.SanctionDurationDays) * 24 * time.Hour)
		if err := s.users.Suspend(ctx, target, until); err != nil {
			return sanctionError(err)
		}
		return nil
	}

	// Any non-suspend sanction clears an existing suspension.
	if err := s.users.ClearSuspension(ctx, target); err != nil {
		return sanctionError(err)
	}
	return nil
}

func sanctionError(err error) error {
	if errors.Is(err, ErrUserNotFound) {
		return err
	}
	return fmt.Errorf("%w: user sanction: %v", ErrDependencyFailure, err)
}
