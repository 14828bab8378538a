package workflow

import (
	"context"

	workflowerrors "go-leaveflow/internal/workflow/errors"

	"go.uber.org/zap"
)

// positionResolver derives the approval chain purely from the requester's
// role, independent of leave category. Chains:
//
//	Intern    -> Team Lead, Manager, HR, Admin (all durations)
//	Team Lead -> Manager, HR            (short leave, up to 2 days)
//	             Manager, HR, Admin     (3 days and longer)
//	Manager   -> HR
//	HR        -> Admin
//
// Any other role has no chain here. The legacy system treated that as
// auto-approved; that was a configuration gap, so it is an error now.
type positionResolver struct {
	logger *zap.Logger
}

func (r *positionResolver) Resolve(ctx context.Context, input ResolveInput) (*ResolvedWorkflow, error) {
	chain, ok := positionChain(input.RequesterRole, input.NumberOfDays)
	if !ok {
		r.logger.Warn("no position chain for requester role",
			zap.String("company_id", input.CompanyID),
			zap.String("requester_id", input.RequesterID),
			zap.String("role", input.RequesterRole),
		)
		return nil, workflowerrors.ErrNoWorkflowConfigured
	}

	levels := make([]ResolvedLevel, len(chain))
	for i, role := range chain {
		levels[i] = ResolvedLevel{
			Level:    i + 1,
			Role:     role,
			Required: true,
		}
	}
	if err := ValidateLevelSequence(levels); err != nil {
		return nil, err
	}

	resolved := &ResolvedWorkflow{
		Source: SourcePosition,
		Levels: levels,
	}
	r.logger.Debug("resolved position workflow",
		zap.String("requester_id", input.RequesterID),
		zap.String("role", input.RequesterRole),
		zap.Float64("number_of_days", input.NumberOfDays),
		zap.Int("levels", len(levels)),
	)
	return resolved, nil
}

func positionChain(requesterRole string, days float64) ([]string, bool) {
	switch requesterRole {
	case RoleIntern:
		return []string{RoleTeamLead, RoleManager, RoleHR, RoleAdmin}, true
	case RoleTeamLead:
		if DurationCategory(days) == DurationShort {
			return []string{RoleManager, RoleHR}, true
		}
		return []string{RoleManager, RoleHR, RoleAdmin}, true
	case RoleManager:
		return []string{RoleHR}, true
	case RoleHR:
		return []string{RoleAdmin}, true
	default:
		return nil, false
	}
}
