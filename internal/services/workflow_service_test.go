package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/trustdesk/backend/internal/dto"
	"github.com/trustdesk/backend/internal/models"
)

// memStore is an in-memory ReportStore with the same compare-and-swap
// contract as the SQL store.
type memStore struct {
	mu       sync.Mutex
	reports  map[uuid.UUID]*models.Report
	audits   map[uuid.UUID][]models.AuditLogEntry
	getCalls int
}

func newMemStore(reports ...*models.Report) *memStore {
	s := &memStore{
		reports: make(map[uuid.UUID]*models.Report),
		audits:  make(map[uuid.UUID][]models.AuditLogEntry),
	}
	for _, r := range reports {
		cp := *r
		s.reports[r.ID] = &cp
	}
	return s
}

func (s *memStore) Get(_ context.Context, id uuid.UUID) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	r, ok := s.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) List(_ context.Context, filter ReportFilter) ([]models.Report, int64, error) {
	if err := filter.normalize(); err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Report
	for _, r := range s.reports {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		out = append(out, *r)
	}
	return out, int64(len(out)), nil
}

func (s *memStore) View(ctx context.Context, id uuid.UUID) (*ReportView, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &ReportView{
		Report:     *r,
		Reporter:   dto.SummarizeUser(&r.Reporter),
		AuditTrail: s.audits[id],
	}, nil
}

func (s *memStore) Update(_ context.Context, id uuid.UUID, expectedVersion int64, fn UpdateFunc) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	if r.Version != expectedVersion {
		return nil, ErrVersionConflict
	}

	cp := *r
	entry, err := fn(&cp)
	if err != nil {
		return nil, err
	}

	cp.Version++
	s.reports[id] = &cp

	e := *entry
	e.ID = uuid.New()
	e.ReportID = id
	e.CreatedAt = time.Now()
	s.audits[id] = append(s.audits[id], e)

	out := cp
	return &out, nil
}

func (s *memStore) report(id uuid.UUID) models.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.reports[id]
}

func (s *memStore) auditCount(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audits[id])
}

func (s *memStore) lastAudit(id uuid.UUID) models.AuditLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.audits[id]
	return entries[len(entries)-1]
}

type fakeAuthz struct {
	allow bool
	err   error
}

func (a *fakeAuthz) CanModerate(context.Context, Actor) (bool, error) {
	return a.allow, a.err
}

type fakeDirectory struct {
	mu        sync.Mutex
	suspended map[uuid.UUID]time.Time
	cleared   []uuid.UUID
	err       error
}

func (d *fakeDirectory) Suspend(_ context.Context, userID uuid.UUID, until time.Time) error {
	if d.err != nil {
		return d.err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.suspended == nil {
		d.suspended = make(map[uuid.UUID]time.Time)
	}
	d.suspended[userID] = until
	return nil
}

func (d *fakeDirectory) ClearSuspension(_ context.Context, userID uuid.UUID) error {
	if d.err != nil {
		return d.err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cleared = append(d.cleared, userID)
	return nil
}

type deleteCall struct {
	contentType models.ReportType
	subjectRef  string
}

type fakeDeleter struct {
	mu    sync.Mutex
	calls []deleteCall
	err   error
}

func (d *fakeDeleter) Delete(_ context.Context, contentType models.ReportType, subjectRef string) error {
	if d.err != nil {
		return d.err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, deleteCall{contentType: contentType, subjectRef: subjectRef})
	return nil
}

func newReport(status models.ReportStatus) *models.Report {
	postID := "post-123"
	return &models.Report{
		ID:         uuid.New(),
		Type:       models.TypePost,
		PostID:     &postID,
		ReporterID: uuid.New(),
		Reason:     "spam",
		Status:     status,
		Version:    1,
	}
}

type engineEnv struct {
	store *memStore
	authz *fakeAuthz
	dir   *fakeDirectory
	del   *fakeDeleter
	svc   *WorkflowService
	actor Actor
}

func newEngineEnv(reports ...*models.Report) *engineEnv {
	env := &engineEnv{
		store: newMemStore(reports...),
		authz: &fakeAuthz{allow: true},
		dir:   &fakeDirectory{},
		del:   &fakeDeleter{},
		actor: Actor{ID: uuid.New(), Email: "mod@trustdesk.test"},
	}
	env.svc = NewWorkflowService(env.store, env.authz, env.dir, env.del)
	return env
}

func intPtr(v int) *int { return &v }

func TestApplyActionApprove(t *testing.T) {
	r := newReport(models.StatusNew)
	env := newEngineEnv(r)

	updated, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionApprove, ActionParams{}, env.actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusResolved, updated.Status)
	require.NotNil(t, updated.Resolution)
	require.Equal(t, models.ResolutionApproved, *updated.Resolution)
	require.Equal(t, int64(2), updated.Version)

	require.Equal(t, 1, env.store.auditCount(r.ID))
	entry := env.store.lastAudit(r.ID)
	require.Equal(t, models.ActionApprove, entry.Action)
	require.Equal(t, env.actor.ID, entry.PerformedByID)
}

func TestApplyActionRejectFromEscalated(t *testing.T) {
	r := newReport(models.StatusEscalated)
	env := newEngineEnv(r)

	updated, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionReject, ActionParams{Note: "duplicate"}, env.actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusResolved, updated.Status)
	require.Equal(t, models.ResolutionRejected, *updated.Resolution)

	entry := env.store.lastAudit(r.ID)
	require.NotNil(t, entry.Note)
	require.Equal(t, "duplicate", *entry.Note)
}

func TestApplyActionInReviewOnlyFromNew(t *testing.T) {
	r := newReport(models.StatusNew)
	env := newEngineEnv(r)

	updated, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionInReview, ActionParams{}, env.actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusInReview, updated.Status)
	require.Nil(t, updated.Resolution)

	// a second IN_REVIEW is not a valid transition anymore
	_, err = env.svc.ApplyAction(context.Background(), r.ID, models.ActionInReview, ActionParams{}, env.actor)
	require.ErrorIs(t, err, ErrInvalidAction)
	require.Equal(t, 1, env.store.auditCount(r.ID))
}

func TestApplyActionEscalate(t *testing.T) {
	r := newReport(models.StatusInReview)
	env := newEngineEnv(r)

	updated, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionEscalate, ActionParams{}, env.actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusEscalated, updated.Status)
	require.Nil(t, updated.Resolution)
}

func TestResolvedIsAbsorbing(t *testing.T) {
	resolution := models.ResolutionApproved
	r := newReport(models.StatusResolved)
	r.Resolution = &resolution
	env := newEngineEnv(r)

	modID := uuid.New()
	blocked := []struct {
		action models.ModerationAction
		params ActionParams
	}{
		{models.ActionApprove, ActionParams{}},
		{models.ActionReject, ActionParams{}},
		{models.ActionEscalate, ActionParams{}},
		{models.ActionInReview, ActionParams{}},
		{models.ActionAssign, ActionParams{AssignedToID: &modID}},
		{models.ActionDeleteContent, ActionParams{}},
		{models.ActionSanctionUser, ActionParams{
			SanctionType:         models.SanctionSuspend,
			TargetUserID:         &modID,
			SanctionDurationDays: intPtr(3),
		}},
	}

	for _, tc := range blocked {
		_, err := env.svc.ApplyAction(context.Background(), r.ID, tc.action, tc.params, env.actor)
		require.ErrorIs(t, err, ErrInvalidAction, "action %s must be rejected on RESOLVED", tc.action)
	}

	stored := env.store.report(r.ID)
	require.Equal(t, models.StatusResolved, stored.Status)
	require.Equal(t, models.ResolutionApproved, *stored.Resolution)
	require.Equal(t, 0, env.store.auditCount(r.ID))
	require.Empty(t, env.del.calls)
	require.Empty(t, env.dir.suspended)
}

func TestAddNoteOnResolved(t *testing.T) {
	resolution := models.ResolutionRejected
	r := newReport(models.StatusResolved)
	r.Resolution = &resolution
	env := newEngineEnv(r)

	updated, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionAddNote, ActionParams{Note: "appeal received"}, env.actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusResolved, updated.Status)
	require.Equal(t, models.ResolutionRejected, *updated.Resolution)

	require.Equal(t, 1, env.store.auditCount(r.ID))
	entry := env.store.lastAudit(r.ID)
	require.Equal(t, models.ActionAddNote, entry.Action)
	require.Equal(t, "appeal received", *entry.Note)
}

func TestAddNoteRequiresNote(t *testing.T) {
	r := newReport(models.StatusNew)
	env := newEngineEnv(r)

	_, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionAddNote, ActionParams{}, env.actor)
	require.ErrorIs(t, err, ErrMissingParameter)
	require.Equal(t, 0, env.store.auditCount(r.ID))
}

func TestAssignSetsModeratorAndAutoNote(t *testing.T) {
	r := newReport(models.StatusNew)
	env := newEngineEnv(r)
	modID := uuid.New()

	updated, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionAssign, ActionParams{AssignedToID: &modID}, env.actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusNew, updated.Status, "ASSIGN must not change status")
	require.NotNil(t, updated.AssignedToID)
	require.Equal(t, modID, *updated.AssignedToID)

	entry := env.store.lastAudit(r.ID)
	require.Equal(t, models.ActionAssign, entry.Action)
	require.NotNil(t, entry.Note)
	require.Equal(t, "Assigned to moderator: "+modID.String(), *entry.Note)
}

func TestAssignKeepsCallerNote(t *testing.T) {
	r := newReport(models.StatusInReview)
	env := newEngineEnv(r)
	modID := uuid.New()

	_, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionAssign, ActionParams{AssignedToID: &modID, Note: "taking this one"}, env.actor)
	require.NoError(t, err)

	entry := env.store.lastAudit(r.ID)
	require.Equal(t, "taking this one", *entry.Note)
}

func TestAssignRequiresAssignee(t *testing.T) {
	r := newReport(models.StatusNew)
	env := newEngineEnv(r)

	_, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionAssign, ActionParams{}, env.actor)
	require.ErrorIs(t, err, ErrMissingParameter)
	require.Equal(t, 0, env.store.auditCount(r.ID))
}

func TestDeleteContentInvokesDeleterOnce(t *testing.T) {
	r := newReport(models.StatusInReview)
	env := newEngineEnv(r)

	updated, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionDeleteContent, ActionParams{}, env.actor)
	require.NoError(t, err)
	require.Equal(t, models.StatusActioned, updated.Status)
	require.Equal(t, models.ResolutionContentDeleted, *updated.Resolution)

	require.Len(t, env.del.calls, 1)
	require.Equal(t, models.TypePost, env.del.calls[0].contentType)
	require.Equal(t, "post-123", env.del.calls[0].subjectRef)
}

func TestDeleteContentDependencyFailureRollsBack(t *testing.T) {
	r := newReport(models.StatusNew)
	env := newEngineEnv(r)
	env.del.err = context.DeadlineExceeded

	_, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionDeleteContent, ActionParams{}, env.actor)
	require.ErrorIs(t, err, ErrDependencyFailure)
	require.True(t, IsRetryable(err))

	stored := env.store.report(r.ID)
	require.Equal(t, models.StatusNew, stored.Status)
	require.Nil(t, stored.Resolution)
	require.Equal(t, int64(1), stored.Version)
	require.Equal(t, 0, env.store.auditCount(r.ID))
}

func TestSanctionSuspendSevenDays(t *testing.T) {
	r := newReport(models.StatusNew)
	env := newEngineEnv(r)
	target := uuid.New()

	before := time.Now()
	updated, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionSanctionUser, ActionParams{
		SanctionType:         models.SanctionSuspend,
		TargetUserID:         &target,
		SanctionDurationDays: intPtr(7),
	}, env.actor)
	after := time.Now()

	require.NoError(t, err)
	require.Equal(t, models.StatusActioned, updated.Status)
	require.Equal(t, models.ResolutionUserSanctioned, *updated.Resolution)

	until, ok := env.dir.suspended[target]
	require.True(t, ok, "sanction applier must be invoked on the target")
	require.False(t, until.Before(before.Add(7*24*time.Hour-time.Second)))
	require.False(t, until.After(after.Add(7*24*time.Hour+time.Second)))
}

func TestSanctionZeroDurationRejectedBeforeAnyWrite(t *testing.T) {
	r := newReport(models.StatusNew)
	env := newEngineEnv(r)
	target := uuid.New()

	_, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionSanctionUser, ActionParams{
		SanctionType:         models.SanctionSuspend,
		TargetUserID:         &target,
		SanctionDurationDays: intPtr(0),
	}, env.actor)
	require.ErrorIs(t, err, ErrInvalidParameter)
	require.False(t, IsRetryable(err))

	require.Empty(t, env.dir.suspended)
	require.Equal(t, 0, env.store.auditCount(r.ID))
	require.Equal(t, models.StatusNew, env.store.report(r.ID).Status)
}

func TestSanctionMissingDuration(t *testing.T) {
	r := newReport(models.StatusNew)
	env := newEngineEnv(r)
	target := uuid.New()

	_, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionSanctionUser, ActionParams{
		SanctionType: models.SanctionSuspend,
		TargetUserID: &target,
	}, env.actor)
	require.ErrorIs(t, err, ErrMissingParameter)
	require.Empty(t, env.dir.suspended)
}

func TestSanctionWarnClearsSuspension(t *testing.T) {
	r := newReport(models.StatusEscalated)
	env := newEngineEnv(r)
	target := uuid.New()

	updated, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionSanctionUser, ActionParams{
		SanctionType: models.SanctionWarn,
		TargetUserID: &target,
	}, env.actor)
	require.NoError(t, err)
	require.Equal(t, models.ResolutionUserSanctioned, *updated.Resolution)
	require.Equal(t, []uuid.UUID{target}, env.dir.cleared)
	require.Empty(t, env.dir.suspended)
}

func TestSanctionUnknownType(t *testing.T) {
	r := newReport(models.StatusNew)
	env := newEngineEnv(r)
	target := uuid.New()

	_, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionSanctionUser, ActionParams{
		SanctionType: models.SanctionType("BANISH"),
		TargetUserID: &target,
	}, env.actor)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSanctionTargetNotFound(t *testing.T) {
	r := newReport(models.StatusNew)
	env := newEngineEnv(r)
	env.dir.err = ErrUserNotFound
	target := uuid.New()

	_, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionSanctionUser, ActionParams{
		SanctionType:         models.SanctionSuspend,
		TargetUserID:         &target,
		SanctionDurationDays: intPtr(3),
	}, env.actor)
	require.ErrorIs(t, err, ErrUserNotFound)
	require.Equal(t, 0, env.store.auditCount(r.ID))
}

func TestUnauthorizedLeavesZeroTrace(t *testing.T) {
	r := newReport(models.StatusNew)
	env := newEngineEnv(r)
	env.authz.allow = false

	_, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionApprove, ActionParams{}, env.actor)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.False(t, IsRetryable(err))

	require.Equal(t, 0, env.store.getCalls, "state must not be read before authorization")
	require.Equal(t, 0, env.store.auditCount(r.ID))
	require.Equal(t, models.StatusNew, env.store.report(r.ID).Status)
}

func TestUnknownActionToken(t *testing.T) {
	r := newReport(models.StatusNew)
	env := newEngineEnv(r)

	_, err := env.svc.ApplyAction(context.Background(), r.ID, models.ModerationAction("OBLITERATE"), ActionParams{}, env.actor)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestApplyActionReportNotFound(t *testing.T) {
	env := newEngineEnv()

	_, err := env.svc.ApplyAction(context.Background(), uuid.New(), models.ActionApprove, ActionParams{}, env.actor)
	require.ErrorIs(t, err, ErrReportNotFound)
}

// gateStore releases both concurrent callers from Get at the same version so
// they race into the compare-and-swap.
type gateStore struct {
	*memStore
	barrier *sync.WaitGroup
}

func (s *gateStore) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	r, err := s.memStore.Get(ctx, id)
	s.barrier.Done()
	s.barrier.Wait()
	return r, err
}

func TestConcurrentResolutionExactlyOneWins(t *testing.T) {
	r := newReport(models.StatusNew)
	mem := newMemStore(r)
	barrier := &sync.WaitGroup{}
	barrier.Add(2)
	store := &gateStore{memStore: mem, barrier: barrier}

	authz := &fakeAuthz{allow: true}
	svc := NewWorkflowService(store, authz, &fakeDirectory{}, &fakeDeleter{})
	actor := Actor{ID: uuid.New(), Email: "mod@trustdesk.test"}

	results := make(chan error, 2)
	go func() {
		_, err := svc.ApplyAction(context.Background(), r.ID, models.ActionApprove, ActionParams{}, actor)
		results <- err
	}()
	go func() {
		_, err := svc.ApplyAction(context.Background(), r.ID, models.ActionReject, ActionParams{}, actor)
		results <- err
	}()

	errs := []error{<-results, <-results}
	var conflicts, successes int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		default:
			require.ErrorIs(t, err, ErrVersionConflict)
			conflicts++
		}
	}
	require.Equal(t, 1, successes, "exactly one resolution must commit")
	require.Equal(t, 1, conflicts, "the loser must see a version conflict")

	stored := mem.report(r.ID)
	require.Equal(t, models.StatusResolved, stored.Status)
	require.Equal(t, 1, mem.auditCount(r.ID), "only the winner may leave an audit entry")
}

func TestAuthorizationOracleFailure(t *testing.T) {
	r := newReport(models.StatusNew)
	env := newEngineEnv(r)
	env.authz.err = context.DeadlineExceeded
	env.authz.allow = false

	_, err := env.svc.ApplyAction(context.Background(), r.ID, models.ActionApprove, ActionParams{}, env.actor)
	require.ErrorIs(t, err, ErrDependencyFailure)
	require.True(t, IsRetryable(err))
}
