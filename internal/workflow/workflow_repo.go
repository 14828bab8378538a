package workflow

import (
	"context"
	"errors"

	workflowerrors "go-leaveflow/internal/workflow/errors"

	"go-leaveflow/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=workflow_repo.go -destination=mock/workflow_repo_mock.go -package=mock
type Repository interface {
	// FindActiveForDuration returns every active workflow whose day range
	// covers the requested duration, levels preloaded in order.
	FindActiveForDuration(ctx context.Context, companyID string, days float64) ([]CustomWorkflow, error)
	GetLeaveCategory(ctx context.Context, companyID, id string) (*LeaveCategory, error)
	Create(ctx context.Context, wf *CustomWorkflow) error
	FindAllByCompany(ctx context.Context, companyID string) ([]CustomWorkflow, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindActiveForDuration(ctx context.Context, companyID string, days float64) ([]CustomWorkflow, error) {
	var workflows []CustomWorkflow
	err := r.db.WithContext(ctx).
		Preload("Levels", func(db *gorm.DB) *gorm.DB {
			return db.Order("level ASC")
		}).
		Scopes(tenant.Scope(companyID)).
		Where("is_active = true").
		Where("min_days <= ? AND max_days >= ?", days, days).
		Order("created_at ASC").
		Find(&workflows).Error
	return workflows, err
}

func (r *repository) GetLeaveCategory(ctx context.Context, companyID, id string) (*LeaveCategory, error) {
	var cat LeaveCategory
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&cat, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, workflowerrors.ErrCategoryNotFound
		}
		return nil, err
	}
	return &cat, nil
}

func (r *repository) Create(ctx context.Context, wf *CustomWorkflow) error {
	return r.db.WithContext(ctx).Create(wf).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]CustomWorkflow, error) {
	var workflows []CustomWorkflow
	err := r.db.WithContext(ctx).
		Preload("Levels", func(db *gorm.DB) *gorm.DB {
			return db.Order("level ASC")
		}).
		Scopes(tenant.Scope(companyID)).
		Order("created_at DESC").
		Find(&workflows).Error
	return workflows, err
}
