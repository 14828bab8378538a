package workflow

import (
	"context"
	"sort"

	workflowerrors "go-leaveflow/internal/workflow/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:generate mockgen -source=workflow_service.go -destination=mock/workflow_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID string, req CreateWorkflowRequest) (WorkflowResponse, error)
	GetAll(ctx context.Context, companyID string) ([]WorkflowResponse, error)
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("workflow.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("workflow.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) Create(ctx context.Context, companyID string, req CreateWorkflowRequest) (WorkflowResponse, error) {
	s.logger.Debug("create workflow requested",
		zap.String("company_id", companyID),
		zap.String("name", req.Name),
		zap.Int("levels", len(req.ApprovalLevels)),
	)

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return WorkflowResponse{}, workflowerrors.ErrInvalidDayRange
	}
	if req.MinDays <= 0 || req.MinDays > req.MaxDays {
		return WorkflowResponse{}, workflowerrors.ErrInvalidDayRange
	}

	if req.LeaveCategoryID != nil {
		cat, err := s.repo.GetLeaveCategory(ctx, companyID, *req.LeaveCategoryID)
		if err != nil {
			return WorkflowResponse{}, err
		}
		if len(req.ApprovalLevels) > cat.MaxApprovalLevels {
			s.logger.Warn("workflow exceeds category level bound",
				zap.String("category_id", *req.LeaveCategoryID),
				zap.Int("levels", len(req.ApprovalLevels)),
				zap.Int("max_levels", cat.MaxApprovalLevels),
			)
			return WorkflowResponse{}, workflowerrors.ErrTooManyLevels
		}
	}

	sort.Slice(req.ApprovalLevels, func(i, j int) bool {
		return req.ApprovalLevels[i].Level < req.ApprovalLevels[j].Level
	})
	resolved := make([]ResolvedLevel, len(req.ApprovalLevels))
	for i, lr := range req.ApprovalLevels {
		resolved[i] = ResolvedLevel{Level: lr.Level, Required: true}
	}
	if err := ValidateLevelSequence(resolved); err != nil {
		return WorkflowResponse{}, err
	}

	wf := &CustomWorkflow{
		ID:              uuid.New(),
		CompanyID:       companyUUID,
		Name:            req.Name,
		LeaveCategoryID: uuidPtr(req.LeaveCategoryID),
		MinDays:         req.MinDays,
		MaxDays:         req.MaxDays,
		DepartmentID:    uuidPtr(req.DepartmentID),
		PositionID:      uuidPtr(req.PositionID),
		IsActive:        true,
		IsDefault:       req.IsDefault,
	}
	for _, lr := range req.ApprovalLevels {
		required := true
		if lr.IsRequired != nil {
			required = *lr.IsRequired
		}
		wf.Levels = append(wf.Levels, CustomWorkflowLevel{
			ID:           uuid.New(),
			WorkflowID:   wf.ID,
			Level:        lr.Level,
			PositionID:   uuidPtr(lr.PositionID),
			DepartmentID: uuidPtr(lr.DepartmentID),
			FallbackRole: lr.FallbackRole,
			IsRequired:   required,
		})
	}

	if err := s.repo.Create(ctx, wf); err != nil {
		s.logger.Error("create workflow persist failed", zap.Error(err))
		return WorkflowResponse{}, err
	}
	s.logger.Info("create workflow success",
		zap.String("workflow_id", wf.ID.String()),
		zap.String("company_id", companyID),
	)

	return mapToWorkflowResponse(*wf), nil
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]WorkflowResponse, error) {
	workflows, err := s.repo.FindAllByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	resp := make([]WorkflowResponse, len(workflows))
	for i, wf := range workflows {
		resp[i] = mapToWorkflowResponse(wf)
	}
	return resp, nil
}

func uuidPtr(s *string) *uuid.UUID {
	if s == nil || *s == "" {
		return nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil
	}
	return &id
}

func strPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	v := id.String()
	return &v
}

func mapToWorkflowResponse(wf CustomWorkflow) WorkflowResponse {
	resp := WorkflowResponse{
		ID:              wf.ID.String(),
		CompanyID:       wf.CompanyID.String(),
		Name:            wf.Name,
		LeaveCategoryID: strPtr(wf.LeaveCategoryID),
		MinDays:         wf.MinDays,
		MaxDays:         wf.MaxDays,
		DepartmentID:    strPtr(wf.DepartmentID),
		PositionID:      strPtr(wf.PositionID),
		IsActive:        wf.IsActive,
		IsDefault:       wf.IsDefault,
	}
	for _, wl := range wf.Levels {
		resp.ApprovalLevels = append(resp.ApprovalLevels, WorkflowLevelResponse{
			Level:        wl.Level,
			PositionID:   strPtr(wl.PositionID),
			DepartmentID: strPtr(wl.DepartmentID),
			FallbackRole: wl.FallbackRole,
			IsRequired:   wl.IsRequired,
		})
	}
	return resp
}
