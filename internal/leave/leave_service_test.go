package leave_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"go-leaveflow/internal/balance"
	balanceerrors "go-leaveflow/internal/balance/errors"
	"go-leaveflow/internal/directory"
	"go-leaveflow/internal/leave"
	leaveerrors "go-leaveflow/internal/leave/errors"
	"go-leaveflow/internal/messaging/kafka"
	"go-leaveflow/internal/workflow"
	workflowerrors "go-leaveflow/internal/workflow/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeLeaveRepository struct {
	withTxFn               func(tx *sql.Tx) leave.Repository
	createFn               func(ctx context.Context, l *leave.LeaveRequest) error
	findAllByCompanyFn     func(ctx context.Context, companyID, status string) ([]leave.LeaveRequest, error)
	findAllByEmployeeFn    func(ctx context.Context, companyID, employeeID string) ([]leave.LeaveRequest, error)
	findByIDAndCompanyFn   func(ctx context.Context, companyID, id string) (*leave.LeaveRequest, error)
	lockByIDAndCompanyFn   func(ctx context.Context, companyID, id string) (*leave.LeaveRequest, error)
	updateTransitionFn     func(ctx context.Context, l *leave.LeaveRequest) error
	hardDeleteFn           func(ctx context.Context, companyID, id string) error
	hasOverlappingPeriodFn func(ctx context.Context, companyID, employeeID string, startDate, endDate time.Time, excludeID *string) (bool, error)
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.LeaveRequest) error {
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) FindAllByCompany(ctx context.Context, companyID, status string) ([]leave.LeaveRequest, error) {
	if f.findAllByCompanyFn != nil {
		return f.findAllByCompanyFn(ctx, companyID, status)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]leave.LeaveRequest, error) {
	if f.findAllByEmployeeFn != nil {
		return f.findAllByEmployeeFn(ctx, companyID, employeeID)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*leave.LeaveRequest, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) LockByIDAndCompany(ctx context.Context, companyID, id string) (*leave.LeaveRequest, error) {
	if f.lockByIDAndCompanyFn != nil {
		return f.lockByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, leaveerrors.ErrLeaveNotFound
}

func (f *fakeLeaveRepository) UpdateTransition(ctx context.Context, l *leave.LeaveRequest) error {
	if f.updateTransitionFn != nil {
		return f.updateTransitionFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) HardDelete(ctx context.Context, companyID, id string) error {
	if f.hardDeleteFn != nil {
		return f.hardDeleteFn(ctx, companyID, id)
	}
	return nil
}

func (f *fakeLeaveRepository) HasOverlappingPeriod(ctx context.Context, companyID, employeeID string, startDate, endDate time.Time, excludeID *string) (bool, error) {
	if f.hasOverlappingPeriodFn != nil {
		return f.hasOverlappingPeriodFn(ctx, companyID, employeeID, startDate, endDate, excludeID)
	}
	return false, nil
}

// balanceRecorder records ledger movements by (company, employee, type).
type balanceRecorder struct {
	ensured  [][]string
	debited  [][]string
	credited [][]string
	debitErr error
}

func (b *balanceRecorder) WithTx(tx *sql.Tx) balance.Repository {
	return b
}

func (b *balanceRecorder) Get(ctx context.Context, companyID, employeeID, leaveType string, year int) (*balance.LeaveBalance, error) {
	return nil, balanceerrors.ErrBalanceNotFound
}

func (b *balanceRecorder) Ensure(ctx context.Context, companyID, employeeID, leaveType string, year int, entitled float64) error {
	b.ensured = append(b.ensured, []string{companyID, employeeID, leaveType})
	return nil
}

func (b *balanceRecorder) Debit(ctx context.Context, companyID, employeeID, leaveType string, year int, days float64) error {
	if b.debitErr != nil {
		return b.debitErr
	}
	b.debited = append(b.debited, []string{companyID, employeeID, leaveType})
	return nil
}

func (b *balanceRecorder) Credit(ctx context.Context, companyID, employeeID, leaveType string, year int, days float64) error {
	b.credited = append(b.credited, []string{companyID, employeeID, leaveType})
	return nil
}

type fakeOutboxRepository struct {
	createdEvents []kafka.OutboxEvent
	createFn      func(ctx context.Context, event kafka.OutboxEvent) error
}

func (f *fakeOutboxRepository) WithTx(tx *sql.Tx) kafka.OutboxRepository {
	return f
}

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	f.createdEvents = append(f.createdEvents, event)
	if f.createFn != nil {
		return f.createFn(ctx, event)
	}
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error {
	return nil
}

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type fakeCounterRepository struct {
	next int64
}

func (f *fakeCounterRepository) GetNextValue(ctx context.Context, companyID, counterType string) (int64, error) {
	f.next++
	return f.next, nil
}

type fakeResolver struct {
	resolveFn func(ctx context.Context, input workflow.ResolveInput) (*workflow.ResolvedWorkflow, error)
}

func (f *fakeResolver) Resolve(ctx context.Context, input workflow.ResolveInput) (*workflow.ResolvedWorkflow, error) {
	return f.resolveFn(ctx, input)
}

type fakeDirectory struct {
	users     map[string]*directory.User
	approvers map[string][]directory.User
}

func (f *fakeDirectory) GetUser(ctx context.Context, companyID, id string) (*directory.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, directory.ErrUserNotFound
}

func (f *fakeDirectory) ApproversByRole(ctx context.Context, companyID, role string) ([]directory.User, error) {
	return f.approvers[role], nil
}

func (f *fakeDirectory) ApproversByPosition(ctx context.Context, companyID, positionID string) ([]directory.User, error) {
	return f.approvers[positionID], nil
}

func (f *fakeDirectory) InvalidateApproverCache(ctx context.Context, companyID, role string) {}

type fakeCalendar struct {
	days float64
	err  error
}

func (f *fakeCalendar) BusinessDays(ctx context.Context, companyID string, start, end time.Time) (float64, error) {
	return f.days, f.err
}

func twoLevelChain() *workflow.ResolvedWorkflow {
	return &workflow.ResolvedWorkflow{
		Source: workflow.SourcePosition,
		Levels: []workflow.ResolvedLevel{
			{Level: 1, Role: workflow.RoleTeamLead, Required: true},
			{Level: 2, Role: workflow.RoleManager, Required: true},
		},
	}
}

type leaveServiceDeps struct {
	db       *sql.DB
	sqlMock  sqlmock.Sqlmock
	service  leave.Service
	repo     *fakeLeaveRepository
	balances *balanceRecorder
	outbox   *fakeOutboxRepository
	resolver *fakeResolver
	dir      *fakeDirectory
	calendar *fakeCalendar
}

func setupLeaveServiceTest(t *testing.T) *leaveServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeLeaveRepository{}
	balances := &balanceRecorder{}
	outbox := &fakeOutboxRepository{}
	counterRepo := &fakeCounterRepository{}
	resolver := &fakeResolver{
		resolveFn: func(ctx context.Context, input workflow.ResolveInput) (*workflow.ResolvedWorkflow, error) {
			return twoLevelChain(), nil
		},
	}
	dir := &fakeDirectory{
		users: map[string]*directory.User{},
		approvers: map[string][]directory.User{
			workflow.RoleTeamLead: {{ID: uuid.New(), Role: workflow.RoleTeamLead}},
			workflow.RoleManager:  {{ID: uuid.New(), Role: workflow.RoleManager}},
		},
	}
	calendar := &fakeCalendar{days: 3}

	svc := leave.NewService(db, repo, balances, outbox, counterRepo, resolver, dir, calendar)

	return &leaveServiceDeps{
		db:       db,
		sqlMock:  sqlMock,
		service:  svc,
		repo:     repo,
		balances: balances,
		outbox:   outbox,
		resolver: resolver,
		dir:      dir,
		calendar: calendar,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func TestLeaveService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	actorID := uuid.New().String()

	requester := func() *directory.User {
		return &directory.User{
			ID:        uuid.MustParse(actorID),
			CompanyID: uuid.MustParse(companyID),
			FullName:  "Dina Rahma",
			Role:      workflow.RoleEmployee,
		}
	}

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.dir.users[actorID] = requester()
		expectTx(t, deps.sqlMock, true)

		req := leave.CreateLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: "2026-03-02",
			EndDate:   "2026-03-04",
			Reason:    "Family event",
		}

		deps.repo.createFn = func(ctx context.Context, l *leave.LeaveRequest) error {
			assert.Equal(t, uuid.MustParse(companyID), l.CompanyID)
			assert.Equal(t, uuid.MustParse(actorID), l.EmployeeID)
			assert.Equal(t, leave.StatusPending, l.Status)
			assert.Equal(t, 3.0, l.NumberOfDays)
			assert.Equal(t, []int{1, 2}, l.Metadata.RequiredApprovalLevels)
			assert.Equal(t, 0, l.Metadata.CurrentApprovalLevel)
			assert.NotNil(t, l.Metadata.WorkflowDetails)
			assert.Equal(t, 1, l.Version)
			return nil
		}

		resp, err := deps.service.Create(ctx, companyID, actorID, req)

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.Equal(t, "LR-2026-00001", resp.RequestNumber)
		assert.Equal(t, []int{1, 2}, resp.RequiredApprovalLevels)
		assert.Equal(t, leave.RequestTypeFullDay, resp.RequestType)
		assert.Len(t, deps.outbox.createdEvents, 1)
		assert.Equal(t, "leave.requested", deps.outbox.createdEvents[0].EventType)
		assert.Equal(t, [][]string{{companyID, actorID, "ANNUAL"}}, deps.balances.ensured)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success half day books half a day", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.dir.users[actorID] = requester()
		deps.calendar.days = 1
		expectTx(t, deps.sqlMock, true)

		req := leave.CreateLeaveRequest{
			LeaveType:   "ANNUAL",
			RequestType: leave.RequestTypeHalfDayMorning,
			StartDate:   "2026-03-02",
			EndDate:     "2026-03-02",
			Reason:      "Doctor visit",
		}

		resp, err := deps.service.Create(ctx, companyID, actorID, req)

		assert.NoError(t, err)
		assert.Equal(t, 0.5, resp.NumberOfDays)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative half day spanning multiple dates", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		req := leave.CreateLeaveRequest{
			LeaveType:   "ANNUAL",
			RequestType: leave.RequestTypeHalfDayAfternoon,
			StartDate:   "2026-03-02",
			EndDate:     "2026-03-03",
			Reason:      "Errand",
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req)

		assert.ErrorIs(t, err, leaveerrors.ErrHalfDayMultipleDays)
	})

	t.Run("negative no working days", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.dir.users[actorID] = requester()
		deps.calendar.days = 0

		req := leave.CreateLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: "2026-03-07",
			EndDate:   "2026-03-08",
			Reason:    "Weekend only",
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req)

		assert.ErrorIs(t, err, leaveerrors.ErrNoWorkingDays)
	})

	t.Run("negative overlap period", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.dir.users[actorID] = requester()
		deps.repo.hasOverlappingPeriodFn = func(ctx context.Context, cid, eid string, startDate, endDate time.Time, excludeID *string) (bool, error) {
			assert.Nil(t, excludeID)
			return true, nil
		}

		req := leave.CreateLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: "2026-03-02",
			EndDate:   "2026-03-04",
			Reason:    "Family event",
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req)

		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
	})

	t.Run("negative no workflow configured", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.dir.users[actorID] = requester()
		deps.resolver.resolveFn = func(ctx context.Context, input workflow.ResolveInput) (*workflow.ResolvedWorkflow, error) {
			return nil, workflowerrors.ErrNoWorkflowConfigured
		}

		req := leave.CreateLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: "2026-03-02",
			EndDate:   "2026-03-04",
			Reason:    "Family event",
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req)

		assert.ErrorIs(t, err, workflowerrors.ErrNoWorkflowConfigured)
	})

	t.Run("negative required level without approvers", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.dir.users[actorID] = requester()
		deps.dir.approvers[workflow.RoleManager] = nil

		req := leave.CreateLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: "2026-03-02",
			EndDate:   "2026-03-04",
			Reason:    "Family event",
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req)

		assert.ErrorIs(t, err, workflowerrors.ErrNoEligibleApprovers)
	})

	t.Run("negative invalid date format", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		req := leave.CreateLeaveRequest{
			LeaveType: "ANNUAL",
			StartDate: "03/02/2026",
			EndDate:   "2026-03-04",
			Reason:    "Family event",
		}

		_, err := deps.service.Create(ctx, companyID, actorID, req)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)
	})
}

func pendingRequest(companyID, employeeID string, chain *workflow.ResolvedWorkflow) *leave.LeaveRequest {
	return &leave.LeaveRequest{
		ID:            uuid.New(),
		CompanyID:     uuid.MustParse(companyID),
		EmployeeID:    uuid.MustParse(employeeID),
		RequestNumber: "LR-2026-00042",
		LeaveType:     "ANNUAL",
		RequestType:   leave.RequestTypeFullDay,
		StartDate:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC),
		NumberOfDays:  3,
		Status:        leave.StatusPending,
		Metadata: leave.Metadata{
			RequiredApprovalLevels: chain.RequiredLevels(),
			CurrentApprovalLevel:   0,
			WorkflowDetails:        chain,
		},
		Version:   1,
		CreatedBy: uuid.MustParse(employeeID),
	}
}

func TestLeaveService_RecordDecision(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	employeeID := uuid.New().String()
	teamLeadID := uuid.New().String()
	managerID := uuid.New().String()
	adminID := uuid.New().String()

	setupActors := func(deps *leaveServiceDeps) {
		deps.dir.users[teamLeadID] = &directory.User{
			ID: uuid.MustParse(teamLeadID), FullName: "Tio Lead", Role: workflow.RoleTeamLead,
		}
		deps.dir.users[managerID] = &directory.User{
			ID: uuid.MustParse(managerID), FullName: "Mira Manager", Role: workflow.RoleManager,
		}
		deps.dir.users[adminID] = &directory.User{
			ID: uuid.MustParse(adminID), FullName: "Ada Admin", Role: workflow.RoleAdmin,
		}
	}

	t.Run("success level one makes request partially approved", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		setupActors(deps)

		l := pendingRequest(companyID, employeeID, twoLevelChain())
		expectTx(t, deps.sqlMock, true)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		resp, err := deps.service.RecordDecision(ctx, companyID, teamLeadID, l.ID.String(), leave.DecisionRequest{
			Decision: leave.DecisionApprove,
			Comments: "Coverage arranged",
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPartiallyApproved, resp.Status)
		assert.Equal(t, 1, resp.CurrentApprovalLevel)
		assert.Len(t, resp.ApprovalHistory, 1)
		assert.Equal(t, teamLeadID, resp.ApprovalHistory[0].ApproverID)
		assert.False(t, resp.IsFullyApproved)
		assert.Empty(t, deps.balances.debited)
		assert.Len(t, deps.outbox.createdEvents, 1)
		assert.Equal(t, "leave.level_approved", deps.outbox.createdEvents[0].EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success final level approves and debits balance", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		setupActors(deps)

		l := pendingRequest(companyID, employeeID, twoLevelChain())
		l.Status = leave.StatusPartiallyApproved
		l.Metadata.CurrentApprovalLevel = 1
		l.Metadata.ApprovalHistory = []leave.ApprovalRecord{
			{Level: 1, ApproverID: teamLeadID, ApproverName: "Tio Lead", ApprovedAt: time.Now().UTC()},
		}
		expectTx(t, deps.sqlMock, true)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		resp, err := deps.service.RecordDecision(ctx, companyID, managerID, l.ID.String(), leave.DecisionRequest{
			Decision: leave.DecisionApprove,
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.True(t, resp.IsFullyApproved)
		assert.Equal(t, 2, resp.CurrentApprovalLevel)
		assert.Equal(t, [][]string{{companyID, employeeID, "ANNUAL"}}, deps.balances.debited)
		assert.Len(t, deps.outbox.createdEvents, 1)
		assert.Equal(t, "leave.approved", deps.outbox.createdEvents[0].EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success admin override acts at pending level", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		setupActors(deps)

		l := pendingRequest(companyID, employeeID, twoLevelChain())
		expectTx(t, deps.sqlMock, true)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		resp, err := deps.service.RecordDecision(ctx, companyID, adminID, l.ID.String(), leave.DecisionRequest{
			Decision: leave.DecisionApprove,
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPartiallyApproved, resp.Status)
		assert.Equal(t, adminID, resp.ApprovalHistory[0].ApproverID)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success rejection terminates chain", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		setupActors(deps)

		l := pendingRequest(companyID, employeeID, twoLevelChain())
		expectTx(t, deps.sqlMock, true)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		resp, err := deps.service.RecordDecision(ctx, companyID, teamLeadID, l.ID.String(), leave.DecisionRequest{
			Decision: leave.DecisionReject,
			Comments: "Short staffed that week",
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusRejected, resp.Status)
		assert.NotNil(t, resp.ApproverComments)
		assert.Equal(t, "Short staffed that week", *resp.ApproverComments)
		assert.Empty(t, resp.ApprovalHistory)
		assert.Equal(t, "leave.rejected", deps.outbox.createdEvents[0].EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative rejection without comments", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		setupActors(deps)

		_, err := deps.service.RecordDecision(ctx, companyID, teamLeadID, uuid.New().String(), leave.DecisionRequest{
			Decision: leave.DecisionReject,
		})

		assert.ErrorIs(t, err, leaveerrors.ErrRejectionReasonRequired)
	})

	t.Run("negative higher level acting out of order", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		setupActors(deps)

		l := pendingRequest(companyID, employeeID, twoLevelChain())
		expectTx(t, deps.sqlMock, false)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		_, err := deps.service.RecordDecision(ctx, companyID, managerID, l.ID.String(), leave.DecisionRequest{
			Decision: leave.DecisionApprove,
		})

		assert.ErrorIs(t, err, leaveerrors.ErrNotEligible)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative duplicate approval at recorded level", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		setupActors(deps)

		l := pendingRequest(companyID, employeeID, twoLevelChain())
		l.Status = leave.StatusPartiallyApproved
		l.Metadata.CurrentApprovalLevel = 1
		l.Metadata.ApprovalHistory = []leave.ApprovalRecord{
			{Level: 1, ApproverID: teamLeadID, ApproverName: "Tio Lead", ApprovedAt: time.Now().UTC()},
		}
		expectTx(t, deps.sqlMock, false)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		_, err := deps.service.RecordDecision(ctx, companyID, teamLeadID, l.ID.String(), leave.DecisionRequest{
			Decision: leave.DecisionApprove,
		})

		assert.ErrorIs(t, err, leaveerrors.ErrDuplicateApproval)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative decision on terminal request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		setupActors(deps)

		l := pendingRequest(companyID, employeeID, twoLevelChain())
		l.Status = leave.StatusRejected
		expectTx(t, deps.sqlMock, false)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		_, err := deps.service.RecordDecision(ctx, companyID, teamLeadID, l.ID.String(), leave.DecisionRequest{
			Decision: leave.DecisionApprove,
		})

		assert.ErrorIs(t, err, leaveerrors.ErrTerminalStatus)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative concurrent writer wins", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		setupActors(deps)

		l := pendingRequest(companyID, employeeID, twoLevelChain())
		expectTx(t, deps.sqlMock, false)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}
		deps.repo.updateTransitionFn = func(ctx context.Context, l *leave.LeaveRequest) error {
			return leaveerrors.ErrVersionConflict
		}

		_, err := deps.service.RecordDecision(ctx, companyID, teamLeadID, l.ID.String(), leave.DecisionRequest{
			Decision: leave.DecisionApprove,
		})

		assert.ErrorIs(t, err, leaveerrors.ErrVersionConflict)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_Cancel(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	employeeID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		l := pendingRequest(companyID, employeeID, twoLevelChain())
		expectTx(t, deps.sqlMock, true)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		resp, err := deps.service.Cancel(ctx, companyID, employeeID, l.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusCancelled, resp.Status)
		assert.Equal(t, "leave.cancelled", deps.outbox.createdEvents[0].EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative not owner", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		l := pendingRequest(companyID, employeeID, twoLevelChain())
		expectTx(t, deps.sqlMock, false)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		_, err := deps.service.Cancel(ctx, companyID, uuid.New().String(), l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrNotOwner)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative already partially approved", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		l := pendingRequest(companyID, employeeID, twoLevelChain())
		l.Status = leave.StatusPartiallyApproved
		expectTx(t, deps.sqlMock, false)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		_, err := deps.service.Cancel(ctx, companyID, employeeID, l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrCancelNotPending)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestLeaveService_DeletionFlow(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	employeeID := uuid.New().String()
	managerID := uuid.New().String()

	approvedRequest := func() *leave.LeaveRequest {
		l := pendingRequest(companyID, employeeID, twoLevelChain())
		l.Status = leave.StatusApproved
		l.Metadata.CurrentApprovalLevel = 2
		l.Metadata.IsFullyApproved = true
		l.Metadata.ApprovalHistory = []leave.ApprovalRecord{
			{Level: 1, ApproverID: uuid.New().String(), ApprovedAt: time.Now().UTC()},
			{Level: 2, ApproverID: uuid.New().String(), ApprovedAt: time.Now().UTC()},
		}
		return l
	}

	t.Run("success request deletion", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		l := approvedRequest()
		expectTx(t, deps.sqlMock, true)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		resp, err := deps.service.RequestDeletion(ctx, companyID, employeeID, l.ID.String())

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPendingDeletion, resp.Status)
		assert.Equal(t, "leave.deletion_requested", deps.outbox.createdEvents[0].EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative deletion of pending request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		l := pendingRequest(companyID, employeeID, twoLevelChain())
		expectTx(t, deps.sqlMock, false)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		_, err := deps.service.RequestDeletion(ctx, companyID, employeeID, l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrDeletionNotAllowed)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative deletion already pending", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		l := approvedRequest()
		l.Status = leave.StatusPendingDeletion
		expectTx(t, deps.sqlMock, false)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		_, err := deps.service.RequestDeletion(ctx, companyID, employeeID, l.ID.String())

		assert.ErrorIs(t, err, leaveerrors.ErrDeletionAlreadyPending)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success approve deletion credits and removes", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.dir.users[managerID] = &directory.User{
			ID: uuid.MustParse(managerID), FullName: "Mira Manager", Role: workflow.RoleManager,
		}

		l := approvedRequest()
		l.Status = leave.StatusPendingDeletion
		l.Metadata.OriginalStatus = leave.StatusApproved
		expectTx(t, deps.sqlMock, true)

		hardDeleted := false
		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}
		deps.repo.hardDeleteFn = func(ctx context.Context, cid, id string) error {
			hardDeleted = true
			return nil
		}

		_, err := deps.service.DecideDeletion(ctx, companyID, managerID, l.ID.String(), leave.DeletionDecisionRequest{
			Decision: leave.DecisionApprove,
		})

		assert.NoError(t, err)
		assert.True(t, hardDeleted)
		assert.Equal(t, [][]string{{companyID, employeeID, "ANNUAL"}}, deps.balances.credited)
		assert.Equal(t, "leave.deletion_approved", deps.outbox.createdEvents[0].EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("success reject deletion restores approved status", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		deps.dir.users[managerID] = &directory.User{
			ID: uuid.MustParse(managerID), FullName: "Mira Manager", Role: workflow.RoleManager,
		}

		l := approvedRequest()
		l.Status = leave.StatusPendingDeletion
		l.Metadata.OriginalStatus = leave.StatusApproved
		l.Metadata.DeletionRequestedBy = employeeID
		expectTx(t, deps.sqlMock, true)

		deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
			return l, nil
		}

		resp, err := deps.service.DecideDeletion(ctx, companyID, managerID, l.ID.String(), leave.DeletionDecisionRequest{
			Decision: leave.DecisionReject,
			Comments: "Leave already consumed",
		})

		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.Empty(t, deps.balances.credited)
		assert.Equal(t, "leave.deletion_rejected", deps.outbox.createdEvents[0].EventType)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative deletion decision below manager level", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		teamLeadID := uuid.New().String()
		deps.dir.users[teamLeadID] = &directory.User{
			ID: uuid.MustParse(teamLeadID), Role: workflow.RoleTeamLead,
		}

		_, err := deps.service.DecideDeletion(ctx, companyID, teamLeadID, uuid.New().String(), leave.DeletionDecisionRequest{
			Decision: leave.DecisionApprove,
		})

		assert.ErrorIs(t, err, leaveerrors.ErrDeletionApproverLevel)
	})
}

func TestLeaveService_InsufficientBalanceRollsBack(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	employeeID := uuid.New().String()
	managerID := uuid.New().String()

	deps := setupLeaveServiceTest(t)
	defer deps.db.Close()

	deps.dir.users[managerID] = &directory.User{
		ID: uuid.MustParse(managerID), FullName: "Mira Manager", Role: workflow.RoleManager,
	}

	l := pendingRequest(companyID, employeeID, twoLevelChain())
	l.Status = leave.StatusPartiallyApproved
	l.Metadata.CurrentApprovalLevel = 1
	l.Metadata.ApprovalHistory = []leave.ApprovalRecord{
		{Level: 1, ApproverID: uuid.New().String(), ApprovedAt: time.Now().UTC()},
	}
	expectTx(t, deps.sqlMock, false)

	deps.repo.lockByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*leave.LeaveRequest, error) {
		return l, nil
	}
	deps.balances.debitErr = errors.New("insufficient balance")

	_, err := deps.service.RecordDecision(ctx, companyID, managerID, l.ID.String(), leave.DecisionRequest{
		Decision: leave.DecisionApprove,
	})

	assert.Error(t, err)
	assert.Empty(t, deps.outbox.createdEvents)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}
