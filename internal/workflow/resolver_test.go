package workflow_test

import (
	"context"
	"testing"

	"go-leaveflow/internal/directory"
	"go-leaveflow/internal/workflow"
	workflowerrors "go-leaveflow/internal/workflow/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeWorkflowRepository struct {
	findActiveForDurationFn func(ctx context.Context, companyID string, days float64) ([]workflow.CustomWorkflow, error)
	getLeaveCategoryFn      func(ctx context.Context, companyID, id string) (*workflow.LeaveCategory, error)
	createFn                func(ctx context.Context, wf *workflow.CustomWorkflow) error
	findAllByCompanyFn      func(ctx context.Context, companyID string) ([]workflow.CustomWorkflow, error)
}

func (f *fakeWorkflowRepository) FindActiveForDuration(ctx context.Context, companyID string, days float64) ([]workflow.CustomWorkflow, error) {
	if f.findActiveForDurationFn != nil {
		return f.findActiveForDurationFn(ctx, companyID, days)
	}
	return nil, nil
}

func (f *fakeWorkflowRepository) GetLeaveCategory(ctx context.Context, companyID, id string) (*workflow.LeaveCategory, error) {
	if f.getLeaveCategoryFn != nil {
		return f.getLeaveCategoryFn(ctx, companyID, id)
	}
	return nil, workflowerrors.ErrCategoryNotFound
}

func (f *fakeWorkflowRepository) Create(ctx context.Context, wf *workflow.CustomWorkflow) error {
	if f.createFn != nil {
		return f.createFn(ctx, wf)
	}
	return nil
}

func (f *fakeWorkflowRepository) FindAllByCompany(ctx context.Context, companyID string) ([]workflow.CustomWorkflow, error) {
	if f.findAllByCompanyFn != nil {
		return f.findAllByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func chainRoles(rw *workflow.ResolvedWorkflow) []string {
	roles := make([]string, len(rw.Levels))
	for i, l := range rw.Levels {
		roles[i] = l.Role
	}
	return roles
}

func TestNewResolver(t *testing.T) {
	repo := &fakeWorkflowRepository{}

	t.Run("defaults to position source", func(t *testing.T) {
		r, err := workflow.NewResolver("", repo)
		assert.NoError(t, err)
		assert.NotNil(t, r)
	})

	t.Run("custom source", func(t *testing.T) {
		r, err := workflow.NewResolver(workflow.SourceCustom, repo)
		assert.NoError(t, err)
		assert.NotNil(t, r)
	})

	t.Run("negative unknown source", func(t *testing.T) {
		_, err := workflow.NewResolver("hybrid", repo)
		assert.ErrorIs(t, err, workflowerrors.ErrUnknownSource)
	})
}

func TestPositionResolver(t *testing.T) {
	ctx := context.Background()
	resolver, err := workflow.NewResolver(workflow.SourcePosition, nil)
	assert.NoError(t, err)

	input := func(role string, days float64) workflow.ResolveInput {
		return workflow.ResolveInput{
			CompanyID:     uuid.New().String(),
			RequesterID:   uuid.New().String(),
			RequesterRole: role,
			NumberOfDays:  days,
		}
	}

	t.Run("intern gets full chain regardless of duration", func(t *testing.T) {
		for _, days := range []float64{0.5, 3, 14} {
			rw, err := resolver.Resolve(ctx, input(workflow.RoleIntern, days))
			assert.NoError(t, err)
			assert.Equal(t, []string{
				workflow.RoleTeamLead, workflow.RoleManager, workflow.RoleHR, workflow.RoleAdmin,
			}, chainRoles(rw))
			assert.Equal(t, []int{1, 2, 3, 4}, rw.RequiredLevels())
		}
	})

	t.Run("team lead short leave skips admin", func(t *testing.T) {
		rw, err := resolver.Resolve(ctx, input(workflow.RoleTeamLead, 1.5))
		assert.NoError(t, err)
		assert.Equal(t, []string{workflow.RoleManager, workflow.RoleHR}, chainRoles(rw))
	})

	t.Run("team lead longer leave includes admin", func(t *testing.T) {
		rw, err := resolver.Resolve(ctx, input(workflow.RoleTeamLead, 5))
		assert.NoError(t, err)
		assert.Equal(t, []string{workflow.RoleManager, workflow.RoleHR, workflow.RoleAdmin}, chainRoles(rw))
	})

	t.Run("manager answers only to hr", func(t *testing.T) {
		rw, err := resolver.Resolve(ctx, input(workflow.RoleManager, 10))
		assert.NoError(t, err)
		assert.Equal(t, []string{workflow.RoleHR}, chainRoles(rw))
	})

	t.Run("hr answers only to admin", func(t *testing.T) {
		rw, err := resolver.Resolve(ctx, input(workflow.RoleHR, 2))
		assert.NoError(t, err)
		assert.Equal(t, []string{workflow.RoleAdmin}, chainRoles(rw))
	})

	t.Run("negative role without a chain", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, input(workflow.RoleEmployee, 3))
		assert.ErrorIs(t, err, workflowerrors.ErrNoWorkflowConfigured)
	})
}

func TestCustomResolver(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	deptID := uuid.New()
	posID := uuid.New()

	mkWorkflow := func(name string, dept, pos *uuid.UUID, isDefault bool, fallbacks ...string) workflow.CustomWorkflow {
		wf := workflow.CustomWorkflow{
			ID:           uuid.New(),
			CompanyID:    companyID,
			Name:         name,
			MinDays:      0.5,
			MaxDays:      30,
			DepartmentID: dept,
			PositionID:   pos,
			IsActive:     true,
			IsDefault:    isDefault,
		}
		for i, fb := range fallbacks {
			wf.Levels = append(wf.Levels, workflow.CustomWorkflowLevel{
				ID:           uuid.New(),
				WorkflowID:   wf.ID,
				Level:        i + 1,
				FallbackRole: fb,
				IsRequired:   true,
			})
		}
		return wf
	}

	input := workflow.ResolveInput{
		CompanyID:     companyID.String(),
		RequesterID:   uuid.New().String(),
		RequesterRole: workflow.RoleEmployee,
		NumberOfDays:  3,
		DepartmentID:  &deptID,
		PositionID:    &posID,
	}

	newCustomResolver := func(candidates []workflow.CustomWorkflow) workflow.Resolver {
		repo := &fakeWorkflowRepository{
			findActiveForDurationFn: func(ctx context.Context, cid string, days float64) ([]workflow.CustomWorkflow, error) {
				return candidates, nil
			},
		}
		r, err := workflow.NewResolver(workflow.SourceCustom, repo)
		assert.NoError(t, err)
		return r
	}

	t.Run("department and position scope beats broader scopes", func(t *testing.T) {
		resolver := newCustomResolver([]workflow.CustomWorkflow{
			mkWorkflow("default", nil, nil, true, "manager"),
			mkWorkflow("dept", &deptID, nil, false, "manager", "hr"),
			mkWorkflow("dept+pos", &deptID, &posID, false, "teamLead", "manager", "hr"),
		})

		rw, err := resolver.Resolve(ctx, input)

		assert.NoError(t, err)
		assert.Equal(t, "dept+pos", rw.Name)
		assert.Equal(t, workflow.SourceCustom, rw.Source)
		assert.Equal(t, []string{
			workflow.RoleTeamLead, workflow.RoleManager, workflow.RoleHR,
		}, chainRoles(rw))
	})

	t.Run("mismatched scope falls through to default", func(t *testing.T) {
		otherDept := uuid.New()
		resolver := newCustomResolver([]workflow.CustomWorkflow{
			mkWorkflow("other dept", &otherDept, nil, false, "manager", "hr"),
			mkWorkflow("default", nil, nil, true, "manager"),
		})

		rw, err := resolver.Resolve(ctx, input)

		assert.NoError(t, err)
		assert.Equal(t, "default", rw.Name)
	})

	t.Run("unscoped non-default is never selected", func(t *testing.T) {
		resolver := newCustomResolver([]workflow.CustomWorkflow{
			mkWorkflow("orphan", nil, nil, false, "manager"),
		})

		_, err := resolver.Resolve(ctx, input)

		assert.ErrorIs(t, err, workflowerrors.ErrNoWorkflowConfigured)
	})

	t.Run("negative no candidates", func(t *testing.T) {
		resolver := newCustomResolver(nil)

		_, err := resolver.Resolve(ctx, input)

		assert.ErrorIs(t, err, workflowerrors.ErrNoWorkflowConfigured)
	})

	t.Run("negative broken level sequence", func(t *testing.T) {
		wf := mkWorkflow("gapped", &deptID, nil, false, "manager", "hr")
		wf.Levels[1].Level = 3
		resolver := newCustomResolver([]workflow.CustomWorkflow{wf})

		_, err := resolver.Resolve(ctx, input)

		assert.ErrorIs(t, err, workflowerrors.ErrInvalidLevelSequence)
	})

	t.Run("unknown fallback role maps to admin", func(t *testing.T) {
		resolver := newCustomResolver([]workflow.CustomWorkflow{
			mkWorkflow("default", nil, nil, true, "somethingElse"),
		})

		rw, err := resolver.Resolve(ctx, input)

		assert.NoError(t, err)
		assert.Equal(t, []string{workflow.RoleAdmin}, chainRoles(rw))
	})
}

type staticDirectory struct {
	byRole     map[string][]directory.User
	byPosition map[string][]directory.User
}

func (d *staticDirectory) GetUser(ctx context.Context, companyID, id string) (*directory.User, error) {
	return nil, directory.ErrUserNotFound
}

func (d *staticDirectory) ApproversByRole(ctx context.Context, companyID, role string) ([]directory.User, error) {
	return d.byRole[role], nil
}

func (d *staticDirectory) ApproversByPosition(ctx context.Context, companyID, positionID string) ([]directory.User, error) {
	return d.byPosition[positionID], nil
}

func (d *staticDirectory) InvalidateApproverCache(ctx context.Context, companyID, role string) {}

func TestEligibleApprovers(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	posID := uuid.New()

	dir := &staticDirectory{
		byRole: map[string][]directory.User{
			workflow.RoleManager: {{ID: uuid.New(), Role: workflow.RoleManager}},
		},
		byPosition: map[string][]directory.User{
			posID.String(): {{ID: uuid.New(), PositionID: &posID}},
		},
	}

	t.Run("role level resolves holders", func(t *testing.T) {
		users, err := workflow.EligibleApprovers(ctx, dir, companyID, workflow.ResolvedLevel{
			Level: 1, Role: workflow.RoleManager, Required: true,
		})
		assert.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("position level resolves holders", func(t *testing.T) {
		users, err := workflow.EligibleApprovers(ctx, dir, companyID, workflow.ResolvedLevel{
			Level: 1, PositionID: &posID, Required: true,
		})
		assert.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("negative empty required level", func(t *testing.T) {
		_, err := workflow.EligibleApprovers(ctx, dir, companyID, workflow.ResolvedLevel{
			Level: 2, Role: workflow.RoleHR, Required: true,
		})
		assert.ErrorIs(t, err, workflowerrors.ErrNoEligibleApprovers)
	})

	t.Run("empty optional level passes", func(t *testing.T) {
		users, err := workflow.EligibleApprovers(ctx, dir, companyID, workflow.ResolvedLevel{
			Level: 2, Role: workflow.RoleHR, Required: false,
		})
		assert.NoError(t, err)
		assert.Empty(t, users)
	})
}

func TestUserChainLevel(t *testing.T) {
	posID := uuid.New()
	chain := &workflow.ResolvedWorkflow{
		Source: workflow.SourceCustom,
		Levels: []workflow.ResolvedLevel{
			{Level: 1, PositionID: &posID, Required: true},
			{Level: 2, Role: workflow.RoleHR, Required: true},
		},
	}

	t.Run("matches by position", func(t *testing.T) {
		u := &directory.User{ID: uuid.New(), Role: workflow.RoleTeamLead, PositionID: &posID}
		assert.Equal(t, 1, workflow.UserChainLevel(u, chain))
	})

	t.Run("matches by role", func(t *testing.T) {
		u := &directory.User{ID: uuid.New(), Role: workflow.RoleHR}
		assert.Equal(t, 2, workflow.UserChainLevel(u, chain))
	})

	t.Run("outside the chain", func(t *testing.T) {
		u := &directory.User{ID: uuid.New(), Role: workflow.RoleManager}
		assert.Equal(t, 0, workflow.UserChainLevel(u, chain))
	})
}
