package leave

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go-leaveflow/internal/balance"
	"go-leaveflow/internal/directory"
	"go-leaveflow/internal/events"
	leaveerrors "go-leaveflow/internal/leave/errors"
	"go-leaveflow/internal/messaging/kafka"
	"go-leaveflow/internal/shared/contextutil"
	"go-leaveflow/internal/shared/counter"
	"go-leaveflow/internal/workflow"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	counterTypeLeaveRequest = "leave_request"
	aggregateTypeLeave      = "leave_request"
)

// defaultEntitlements seeds the balance ledger row the first time a leave
// type is used in a year. UNPAID leave carries no ledger at all.
var defaultEntitlements = map[string]float64{
	"ANNUAL":  20,
	"SICK":    10,
	"SPECIAL": 5,
}

// BusinessDayCounter is satisfied by the holiday calendar.
type BusinessDayCounter interface {
	BusinessDays(ctx context.Context, companyID string, start, end time.Time) (float64, error)
}

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreateLeaveRequest) (LeaveResponse, error)
	GetAll(ctx context.Context, companyID, status string) ([]LeaveResponse, error)
	GetMine(ctx context.Context, companyID, actorID string) ([]LeaveResponse, error)
	GetByID(ctx context.Context, companyID, id string) (LeaveResponse, error)
	// RecordDecision applies one approval or rejection at the request's
	// next pending level.
	RecordDecision(ctx context.Context, companyID, actorID, id string, req DecisionRequest) (LeaveResponse, error)
	Cancel(ctx context.Context, companyID, actorID, id string) (LeaveResponse, error)
	RequestDeletion(ctx context.Context, companyID, actorID, id string) (LeaveResponse, error)
	DecideDeletion(ctx context.Context, companyID, actorID, id string, req DeletionDecisionRequest) (LeaveResponse, error)
}

type service struct {
	db          *sql.DB
	repo        Repository
	balanceRepo balance.Repository
	outboxRepo  kafka.OutboxRepository
	counterRepo counter.Repository
	resolver    workflow.Resolver
	directory   directory.Service
	calendar    BusinessDayCounter
	logger      *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	balanceRepo balance.Repository,
	outboxRepo kafka.OutboxRepository,
	counterRepo counter.Repository,
	resolver workflow.Resolver,
	dir directory.Service,
	calendar BusinessDayCounter,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:          db,
		repo:        repo,
		balanceRepo: balanceRepo,
		outboxRepo:  outboxRepo,
		counterRepo: counterRepo,
		resolver:    resolver,
		directory:   dir,
		calendar:    calendar,
		logger:      l,
	}
}

func (s *service) Create(ctx context.Context, companyID, actorID string, req CreateLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("create leave requested",
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	companyUUID, actorUUID, startDate, endDate, err := validateCreateRequest(companyID, actorID, &req)
	if err != nil {
		s.logger.Warn("create leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	requester, err := s.directory.GetUser(ctx, companyID, actorID)
	if err != nil {
		return LeaveResponse{}, err
	}

	days, err := s.calendar.BusinessDays(ctx, companyID, startDate, endDate)
	if err != nil {
		s.logger.Error("create leave business day count failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if days == 0 {
		return LeaveResponse{}, leaveerrors.ErrNoWorkingDays
	}
	if IsHalfDay(req.RequestType) {
		days = 0.5
	}

	overlap, err := s.repo.HasOverlappingPeriod(ctx, companyID, actorID, startDate, endDate, nil)
	if err != nil {
		s.logger.Error("create leave overlap check failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if overlap {
		s.logger.Warn("create leave overlap detected",
			zap.String("company_id", companyID),
			zap.String("employee_id", actorID),
		)
		return LeaveResponse{}, leaveerrors.ErrLeaveOverlap
	}

	resolved, err := s.resolver.Resolve(ctx, workflow.ResolveInput{
		CompanyID:     companyID,
		RequesterID:   actorID,
		RequesterRole: requester.Role,
		NumberOfDays:  days,
		PositionID:    requester.PositionID,
		DepartmentID:  requester.DepartmentID,
	})
	if err != nil {
		s.logger.Warn("create leave workflow resolution failed",
			zap.String("role", requester.Role),
			zap.Float64("days", days),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}
	if err := workflow.ValidateLevelSequence(resolved.Levels); err != nil {
		return LeaveResponse{}, err
	}

	// Every required level must resolve to at least one approver now;
	// surfacing the gap at submission beats a chain stuck mid-flight.
	for _, lvl := range resolved.Levels {
		if _, err := workflow.EligibleApprovers(ctx, s.directory, companyID, lvl); err != nil {
			s.logger.Warn("create leave approver resolution failed",
				zap.Int("level", lvl.Level),
				zap.Error(err),
			)
			return LeaveResponse{}, err
		}
	}

	seq, err := s.counterRepo.GetNextValue(ctx, companyID, counterTypeLeaveRequest)
	if err != nil {
		s.logger.Error("create leave request number failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	l := &LeaveRequest{
		ID:            uuid.New(),
		CompanyID:     companyUUID,
		EmployeeID:    actorUUID,
		RequestNumber: fmt.Sprintf("LR-%d-%05d", startDate.Year(), seq),
		LeaveType:     req.LeaveType,
		RequestType:   req.RequestType,
		StartDate:     startDate,
		EndDate:       endDate,
		NumberOfDays:  days,
		Reason:        req.Reason,
		Status:        StatusPending,
		Metadata: Metadata{
			RequiredApprovalLevels: resolved.RequiredLevels(),
			CurrentApprovalLevel:   0,
			WorkflowDetails:        resolved,
		},
		Version:   1,
		CreatedBy: actorUUID,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	if entitled, tracked := defaultEntitlements[l.LeaveType]; tracked {
		if err := s.balanceRepo.WithTx(tx).Ensure(ctx, companyID, actorID, l.LeaveType, startDate.Year(), entitled); err != nil {
			s.logger.Error("create leave ensure balance failed", zap.Error(err))
			return LeaveResponse{}, err
		}
	}

	if err := qtx.Create(ctx, l); err != nil {
		s.logger.Error("create leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := s.stageRequestedEvent(ctx, tx, l); err != nil {
		s.logger.Error("create leave stage event failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("create leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("request_number", l.RequestNumber),
		zap.Ints("required_levels", l.Metadata.RequiredApprovalLevels),
		zap.Float64("days", days),
	)
	return mapToLeaveResponse(l), nil
}

func (s *service) GetAll(ctx context.Context, companyID, status string) ([]LeaveResponse, error) {
	requests, err := s.repo.FindAllByCompany(ctx, companyID, status)
	if err != nil {
		return nil, err
	}
	responses := make([]LeaveResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, mapToLeaveResponse(&requests[i]))
	}
	return responses, nil
}

func (s *service) GetMine(ctx context.Context, companyID, actorID string) ([]LeaveResponse, error) {
	requests, err := s.repo.FindAllByEmployee(ctx, companyID, actorID)
	if err != nil {
		return nil, err
	}
	responses := make([]LeaveResponse, 0, len(requests))
	for i := range requests {
		responses = append(responses, mapToLeaveResponse(&requests[i]))
	}
	return responses, nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (LeaveResponse, error) {
	l, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	return mapToLeaveResponse(l), nil
}

func (s *service) RecordDecision(ctx context.Context, companyID, actorID, id string, req DecisionRequest) (LeaveResponse, error) {
	if req.Decision != DecisionApprove && req.Decision != DecisionReject {
		return LeaveResponse{}, leaveerrors.ErrInvalidDecision
	}
	if req.Decision == DecisionReject && req.Comments == "" {
		return LeaveResponse{}, leaveerrors.ErrRejectionReasonRequired
	}

	actor, err := s.directory.GetUser(ctx, companyID, actorID)
	if err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("record decision begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.LockByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return LeaveResponse{}, err
	}

	if !IsOpenForApproval(l.Status) {
		return LeaveResponse{}, leaveerrors.ErrTerminalStatus
	}

	resolved := l.Metadata.WorkflowDetails
	if resolved == nil || len(resolved.Levels) == 0 {
		s.logger.Error("record decision missing workflow details",
			zap.String("leave_id", id),
		)
		return LeaveResponse{}, leaveerrors.ErrTerminalStatus
	}

	nextLevel := l.Metadata.CurrentApprovalLevel + 1
	if err := checkEligibility(actor, resolved, &l.Metadata, nextLevel); err != nil {
		s.logger.Warn("record decision eligibility failed",
			zap.String("leave_id", id),
			zap.String("actor_role", actor.Role),
			zap.Int("next_level", nextLevel),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	eventType := ""
	switch req.Decision {
	case DecisionReject:
		l.Status = StatusRejected
		l.ApproverComments = &req.Comments
		eventType = "leave.rejected"

	case DecisionApprove:
		l.Metadata.ApprovalHistory = append(l.Metadata.ApprovalHistory, ApprovalRecord{
			Level:        nextLevel,
			ApproverID:   actor.ID.String(),
			ApproverName: actor.FullName,
			ApprovedAt:   time.Now().UTC(),
			Comments:     req.Comments,
		})
		l.Metadata.CurrentApprovalLevel = nextLevel

		if nextLevel >= l.Metadata.MaxRequiredLevel() {
			l.Status = StatusApproved
			l.Metadata.IsFullyApproved = true
			eventType = "leave.approved"

			if _, tracked := defaultEntitlements[l.LeaveType]; tracked {
				err := s.balanceRepo.WithTx(tx).Debit(
					ctx, companyID, l.EmployeeID.String(), l.LeaveType,
					l.StartDate.Year(), l.NumberOfDays,
				)
				if err != nil {
					s.logger.Warn("record decision balance debit failed",
						zap.String("leave_id", id),
						zap.Float64("days", l.NumberOfDays),
						zap.Error(err),
					)
					return LeaveResponse{}, err
				}
			}
		} else {
			l.Status = StatusPartiallyApproved
			eventType = "leave.level_approved"
		}

		if err := l.Metadata.Validate(); err != nil {
			s.logger.Error("record decision metadata invariant violated", zap.Error(err))
			return LeaveResponse{}, err
		}
	}

	if err := qtx.UpdateTransition(ctx, l); err != nil {
		return LeaveResponse{}, err
	}

	if err := s.stageDecidedEvent(ctx, tx, l, eventType, actorID, nextLevel); err != nil {
		s.logger.Error("record decision stage event failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("record decision commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("record decision success",
		zap.String("leave_id", id),
		zap.String("decision", req.Decision),
		zap.Int("level", nextLevel),
		zap.String("status", l.Status),
	)
	return mapToLeaveResponse(l), nil
}

// checkEligibility enforces strict level ordering. A chain member whose
// level is already recorded gets a duplicate error; anyone else not
// matching the pending level is rejected, unless the role overrides.
func checkEligibility(actor *directory.User, resolved *workflow.ResolvedWorkflow, m *Metadata, nextLevel int) error {
	chainLevel := workflow.UserChainLevel(actor, resolved)
	if chainLevel != 0 && m.HasLevelApproval(chainLevel) {
		return leaveerrors.ErrDuplicateApproval
	}
	if chainLevel == nextLevel {
		return nil
	}
	if workflow.HasAdminOverride(actor.Role) {
		return nil
	}
	return leaveerrors.ErrNotEligible
}

func (s *service) Cancel(ctx context.Context, companyID, actorID, id string) (LeaveResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.LockByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return LeaveResponse{}, err
	}

	if l.EmployeeID.String() != actorID {
		return LeaveResponse{}, leaveerrors.ErrNotOwner
	}
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrCancelNotPending
	}

	l.Status = StatusCancelled

	if err := qtx.UpdateTransition(ctx, l); err != nil {
		return LeaveResponse{}, err
	}
	if err := s.stageDecidedEvent(ctx, tx, l, "leave.cancelled", actorID, 0); err != nil {
		return LeaveResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("cancel leave success", zap.String("leave_id", id))
	return mapToLeaveResponse(l), nil
}

func (s *service) RequestDeletion(ctx context.Context, companyID, actorID, id string) (LeaveResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("request deletion begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.LockByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return LeaveResponse{}, err
	}

	if l.EmployeeID.String() != actorID {
		return LeaveResponse{}, leaveerrors.ErrNotOwner
	}
	if l.Status == StatusPendingDeletion {
		return LeaveResponse{}, leaveerrors.ErrDeletionAlreadyPending
	}
	if l.Status != StatusApproved {
		return LeaveResponse{}, leaveerrors.ErrDeletionNotAllowed
	}

	now := time.Now().UTC()
	l.Metadata.OriginalStatus = l.Status
	l.Metadata.DeletionRequestedBy = actorID
	l.Metadata.DeletionRequestedAt = &now
	l.Status = StatusPendingDeletion

	if err := qtx.UpdateTransition(ctx, l); err != nil {
		return LeaveResponse{}, err
	}
	if err := s.stageDecidedEvent(ctx, tx, l, "leave.deletion_requested", actorID, 0); err != nil {
		return LeaveResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("request deletion commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("request deletion success", zap.String("leave_id", id))
	return mapToLeaveResponse(l), nil
}

func (s *service) DecideDeletion(ctx context.Context, companyID, actorID, id string, req DeletionDecisionRequest) (LeaveResponse, error) {
	if req.Decision != DecisionApprove && req.Decision != DecisionReject {
		return LeaveResponse{}, leaveerrors.ErrInvalidDecision
	}
	if req.Decision == DecisionReject && req.Comments == "" {
		return LeaveResponse{}, leaveerrors.ErrRejectionReasonRequired
	}

	actor, err := s.directory.GetUser(ctx, companyID, actorID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if !workflow.IsManagerOrAbove(actor.Role) {
		return LeaveResponse{}, leaveerrors.ErrDeletionApproverLevel
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide deletion begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.LockByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.Status != StatusPendingDeletion {
		return LeaveResponse{}, leaveerrors.ErrNoPendingDeletion
	}

	eventType := ""
	switch req.Decision {
	case DecisionApprove:
		// Approved deletion returns the booked days to the ledger before
		// the row disappears.
		if _, tracked := defaultEntitlements[l.LeaveType]; tracked {
			err := s.balanceRepo.WithTx(tx).Credit(
				ctx, companyID, l.EmployeeID.String(), l.LeaveType,
				l.StartDate.Year(), l.NumberOfDays,
			)
			if err != nil {
				s.logger.Error("decide deletion balance credit failed", zap.Error(err))
				return LeaveResponse{}, err
			}
		}
		if err := qtx.HardDelete(ctx, companyID, id); err != nil {
			return LeaveResponse{}, err
		}
		eventType = "leave.deletion_approved"

	case DecisionReject:
		now := time.Now().UTC()
		restored := l.Metadata.OriginalStatus
		if restored == "" {
			restored = StatusApproved
		}
		l.Status = restored
		l.Metadata.OriginalStatus = ""
		l.Metadata.DeletionRequestedBy = ""
		l.Metadata.DeletionRequestedAt = nil
		l.Metadata.DeletionRejectedBy = actorID
		l.Metadata.DeletionRejectedAt = &now
		l.Metadata.DeletionRejectionComments = req.Comments

		if err := qtx.UpdateTransition(ctx, l); err != nil {
			return LeaveResponse{}, err
		}
		eventType = "leave.deletion_rejected"
	}

	if err := s.stageDecidedEvent(ctx, tx, l, eventType, actorID, 0); err != nil {
		s.logger.Error("decide deletion stage event failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("decide deletion commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("decide deletion success",
		zap.String("leave_id", id),
		zap.String("decision", req.Decision),
	)
	return mapToLeaveResponse(l), nil
}

func (s *service) stageRequestedEvent(ctx context.Context, tx *sql.Tx, l *LeaveRequest) error {
	event, err := kafka.NewOutboxEvent(
		contextutil.GetRequestID(ctx),
		aggregateTypeLeave,
		l.ID.String(),
		"leave.requested",
		events.LeaveRequestedTopic,
		events.LeaveRequestedEvent{
			EventType:    "leave.requested",
			LeaveID:      l.ID.String(),
			CompanyID:    l.CompanyID.String(),
			EmployeeID:   l.EmployeeID.String(),
			LeaveType:    l.LeaveType,
			NumberOfDays: l.NumberOfDays,
			OccurredAt:   time.Now().UTC(),
		},
	)
	if err != nil {
		return err
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, event)
}

func (s *service) stageDecidedEvent(ctx context.Context, tx *sql.Tx, l *LeaveRequest, eventType, actorID string, level int) error {
	event, err := kafka.NewOutboxEvent(
		contextutil.GetRequestID(ctx),
		aggregateTypeLeave,
		l.ID.String(),
		eventType,
		events.LeaveDecidedTopic,
		events.LeaveDecidedEvent{
			EventType:  eventType,
			LeaveID:    l.ID.String(),
			CompanyID:  l.CompanyID.String(),
			EmployeeID: l.EmployeeID.String(),
			Status:     l.Status,
			Level:      level,
			DecidedBy:  actorID,
			OccurredAt: time.Now().UTC(),
		},
	)
	if err != nil {
		return err
	}
	return s.outboxRepo.WithTx(tx).Create(ctx, event)
}

func validateCreateRequest(companyID, actorID string, req *CreateLeaveRequest) (uuid.UUID, uuid.UUID, time.Time, time.Time, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidActorID
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	if startDate.After(endDate) {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateRange
	}

	if req.RequestType == "" {
		req.RequestType = RequestTypeFullDay
	}
	if IsHalfDay(req.RequestType) && !startDate.Equal(endDate) {
		return uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrHalfDayMultipleDays
	}

	return companyUUID, actorUUID, startDate, endDate, nil
}
