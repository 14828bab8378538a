package workflow

import (
	"context"

	workflowerrors "go-leaveflow/internal/workflow/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Workflow sources. The legacy system kept the position table as a silent
// override of the configured workflows; here exactly one source is
// authoritative, chosen by configuration.
const (
	SourcePosition = "position"
	SourceCustom   = "custom"
)

// ResolveInput carries everything the resolver may consult about a new
// leave request.
type ResolveInput struct {
	CompanyID       string
	RequesterID     string
	RequesterRole   string
	NumberOfDays    float64
	PositionID      *uuid.UUID
	DepartmentID    *uuid.UUID
	LeaveCategoryID *uuid.UUID
}

// ResolvedLevel describes one required sign-off: either a role or a
// position identifies the eligible approvers.
type ResolvedLevel struct {
	Level      int        `json:"level"`
	Role       string     `json:"role,omitempty"`
	PositionID *uuid.UUID `json:"position_id,omitempty"`
	Required   bool       `json:"required"`
}

// ResolvedWorkflow is persisted into the leave request's metadata at
// creation time so approval checks stay deterministic even if the
// configuration changes afterwards.
type ResolvedWorkflow struct {
	Source string          `json:"source"`
	Name   string          `json:"name,omitempty"`
	Levels []ResolvedLevel `json:"levels"`
}

// RequiredLevels returns the ordered level numbers of the chain.
func (rw *ResolvedWorkflow) RequiredLevels() []int {
	levels := make([]int, len(rw.Levels))
	for i, l := range rw.Levels {
		levels[i] = l.Level
	}
	return levels
}

// LevelAt returns the definition for a level number, or nil.
func (rw *ResolvedWorkflow) LevelAt(level int) *ResolvedLevel {
	for i := range rw.Levels {
		if rw.Levels[i].Level == level {
			return &rw.Levels[i]
		}
	}
	return nil
}

// MaxLevel returns the highest level number of the chain.
func (rw *ResolvedWorkflow) MaxLevel() int {
	maxLevel := 0
	for _, l := range rw.Levels {
		if l.Level > maxLevel {
			maxLevel = l.Level
		}
	}
	return maxLevel
}

// ValidateLevelSequence enforces the chain invariant: contiguous ascending
// levels starting at 1, no gaps, no duplicates.
func ValidateLevelSequence(levels []ResolvedLevel) error {
	if len(levels) == 0 {
		return workflowerrors.ErrInvalidLevelSequence
	}
	for i, l := range levels {
		if l.Level != i+1 {
			return workflowerrors.ErrInvalidLevelSequence
		}
	}
	return nil
}

//go:generate mockgen -source=resolver.go -destination=mock/resolver_mock.go -package=mock
type Resolver interface {
	Resolve(ctx context.Context, input ResolveInput) (*ResolvedWorkflow, error)
}

// NewResolver selects the authoritative strategy. source comes from the
// WORKFLOW_SOURCE environment variable; position is the default.
func NewResolver(source string, repo Repository, logger ...*zap.Logger) (Resolver, error) {
	l := zap.L().Named("workflow.resolver")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("workflow.resolver")
	}

	switch source {
	case SourcePosition, "":
		return &positionResolver{logger: l}, nil
	case SourceCustom:
		return &customResolver{repo: repo, logger: l}, nil
	default:
		return nil, workflowerrors.ErrUnknownSource
	}
}
