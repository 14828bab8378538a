package holiday

import (
	"context"
	"time"

	"go-leaveflow/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=holiday_repo.go -destination=mock/holiday_repo_mock.go -package=mock
type Repository interface {
	ListBetween(ctx context.Context, companyID string, start, end time.Time) ([]Holiday, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListBetween(ctx context.Context, companyID string, start, end time.Time) ([]Holiday, error) {
	var holidays []Holiday
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("date BETWEEN ? AND ?", start, end).
		Order("date ASC").
		Find(&holidays).Error
	return holidays, err
}
