package directory

import (
	"context"

	"go-leaveflow/internal/tenant"

	"gorm.io/gorm"
)

//go:generate mockgen -source=directory_repo.go -destination=mock/directory_repo_mock.go -package=mock
type Repository interface {
	GetByID(ctx context.Context, companyID, id string) (*User, error)
	ListByPosition(ctx context.Context, companyID, positionID string) ([]User, error)
	ListByRole(ctx context.Context, companyID, role string) ([]User, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetByID(ctx context.Context, companyID, id string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&u, "id = ?", id).Error
	return &u, err
}

func (r *repository) ListByPosition(ctx context.Context, companyID, positionID string) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("position_id = ?", positionID).
		Where("is_active = true").
		Find(&users).Error
	return users, err
}

func (r *repository) ListByRole(ctx context.Context, companyID, role string) ([]User, error) {
	var users []User
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("role = ?", role).
		Where("is_active = true").
		Find(&users).Error
	return users, err
}
