package workflow

import (
	"context"

	workflowerrors "go-leaveflow/internal/workflow/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// customResolver selects the most specific active CustomWorkflow covering
// the requested duration. Specificity order: department+position match,
// then department-only, then position-only, then the default workflow.
type customResolver struct {
	repo   Repository
	logger *zap.Logger
}

func (r *customResolver) Resolve(ctx context.Context, input ResolveInput) (*ResolvedWorkflow, error) {
	candidates, err := r.repo.FindActiveForDuration(ctx, input.CompanyID, input.NumberOfDays)
	if err != nil {
		return nil, err
	}

	best := pickMostSpecific(candidates, input)
	if best == nil {
		r.logger.Warn("no custom workflow matches request",
			zap.String("company_id", input.CompanyID),
			zap.String("requester_id", input.RequesterID),
			zap.Float64("number_of_days", input.NumberOfDays),
		)
		return nil, workflowerrors.ErrNoWorkflowConfigured
	}

	levels := make([]ResolvedLevel, len(best.Levels))
	for i, wl := range best.Levels {
		lvl := ResolvedLevel{
			Level:      wl.Level,
			PositionID: wl.PositionID,
			Required:   wl.IsRequired,
		}
		if wl.PositionID == nil {
			lvl.Role = fallbackRole(wl.FallbackRole)
		}
		levels[i] = lvl
	}
	if err := ValidateLevelSequence(levels); err != nil {
		r.logger.Error("custom workflow has a broken level sequence",
			zap.String("workflow_id", best.ID.String()),
			zap.String("workflow_name", best.Name),
		)
		return nil, err
	}

	resolved := &ResolvedWorkflow{
		Source: SourceCustom,
		Name:   best.Name,
		Levels: levels,
	}
	r.logger.Debug("resolved custom workflow",
		zap.String("workflow_id", best.ID.String()),
		zap.String("workflow_name", best.Name),
		zap.Int("levels", len(levels)),
	)
	return resolved, nil
}

func pickMostSpecific(candidates []CustomWorkflow, input ResolveInput) *CustomWorkflow {
	var best *CustomWorkflow
	bestScore := -1

	for i := range candidates {
		wf := &candidates[i]
		score, ok := specificity(wf, input)
		if !ok {
			continue
		}
		if score > bestScore {
			best = wf
			bestScore = score
		}
	}
	return best
}

// specificity scores a candidate against the request scope; ok is false
// when the candidate is scoped to a different department/position/category.
func specificity(wf *CustomWorkflow, input ResolveInput) (int, bool) {
	if wf.LeaveCategoryID != nil {
		if input.LeaveCategoryID == nil || *wf.LeaveCategoryID != *input.LeaveCategoryID {
			return 0, false
		}
	}

	deptScoped := wf.DepartmentID != nil
	posScoped := wf.PositionID != nil

	if deptScoped && !uuidMatches(wf.DepartmentID, input.DepartmentID) {
		return 0, false
	}
	if posScoped && !uuidMatches(wf.PositionID, input.PositionID) {
		return 0, false
	}

	switch {
	case deptScoped && posScoped:
		return 3, true
	case deptScoped:
		return 2, true
	case posScoped:
		return 1, true
	case wf.IsDefault:
		return 0, true
	default:
		// Unscoped and not marked default: never selected.
		return 0, false
	}
}

func uuidMatches(want, got *uuid.UUID) bool {
	return got != nil && *want == *got
}

// fallbackRole maps a configured fallback set name to a directory role.
func fallbackRole(name string) string {
	switch name {
	case "teamLead":
		return RoleTeamLead
	case "manager":
		return RoleManager
	case "departmentHead":
		return RoleDepartmentHead
	case "hr":
		return RoleHR
	case "superAdmin":
		return RoleSuperAdmin
	default:
		// Unknown fallback keeps the chain resolvable by admins only.
		return RoleAdmin
	}
}
