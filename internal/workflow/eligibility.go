package workflow

import (
	"context"

	"go-leaveflow/internal/directory"
	workflowerrors "go-leaveflow/internal/workflow/errors"
)

// EligibleApprovers resolves a level's approver descriptor to concrete
// users via the organization directory. An empty set for a required level
// is a configuration error, never an implicit approval.
func EligibleApprovers(ctx context.Context, dir directory.Service, companyID string, lvl ResolvedLevel) ([]directory.User, error) {
	var (
		users []directory.User
		err   error
	)
	if lvl.PositionID != nil {
		users, err = dir.ApproversByPosition(ctx, companyID, lvl.PositionID.String())
	} else {
		users, err = dir.ApproversByRole(ctx, companyID, lvl.Role)
	}
	if err != nil {
		return nil, err
	}
	if len(users) == 0 && lvl.Required {
		return nil, workflowerrors.ErrNoEligibleApprovers
	}
	return users, nil
}

// UserMatchesLevel reports whether a user satisfies a level's approver
// descriptor directly (same position, or same role).
func UserMatchesLevel(u *directory.User, lvl ResolvedLevel) bool {
	if lvl.PositionID != nil {
		return u.PositionID != nil && *u.PositionID == *lvl.PositionID
	}
	return u.Role == lvl.Role
}

// UserChainLevel returns the chain position whose descriptor the user
// satisfies, or 0 when the user appears nowhere in the chain.
func UserChainLevel(u *directory.User, rw *ResolvedWorkflow) int {
	for _, lvl := range rw.Levels {
		if UserMatchesLevel(u, lvl) {
			return lvl.Level
		}
	}
	return 0
}
