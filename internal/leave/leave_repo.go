package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	leaveerrors "go-leaveflow/internal/leave/errors"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindAllByCompany(ctx context.Context, companyID string, status string) ([]LeaveRequest, error)
	FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]LeaveRequest, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error)
	// LockByIDAndCompany reads the row FOR UPDATE inside the current
	// transaction so concurrent transitions serialize on the request.
	LockByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error)
	// UpdateTransition persists a state transition guarded by the version
	// the caller read. Zero rows affected means a concurrent writer won.
	UpdateTransition(ctx context.Context, l *LeaveRequest) error
	// HardDelete removes the row permanently. Used by the deletion
	// sub-flow after its approval; regular reads never see the row again.
	HardDelete(ctx context.Context, companyID, id string) error
	HasOverlappingPeriod(ctx context.Context, companyID, employeeID string, startDate, endDate time.Time, excludeID *string) (bool, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

type sqlRunner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *repository) runner() (sqlRunner, error) {
	if r.tx != nil {
		return r.tx, nil
	}
	return r.db.DB()
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	runner, err := r.runner()
	if err != nil {
		return err
	}

	metadata, err := l.Metadata.Value()
	if err != nil {
		return err
	}

	query := `
INSERT INTO leave_requests (
    id, company_id, employee_id, request_number, leave_type, request_type,
    start_date, end_date, number_of_days, reason, status, metadata,
    version, created_by, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
`
	_, err = runner.ExecContext(ctx, query,
		l.ID, l.CompanyID, l.EmployeeID, l.RequestNumber, l.LeaveType, l.RequestType,
		l.StartDate, l.EndDate, l.NumberOfDays, l.Reason, l.Status, metadata,
		l.Version, l.CreatedBy,
	)
	return err
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, status string) ([]LeaveRequest, error) {
	db := r.db.WithContext(ctx).
		Where("company_id = ?", companyID)
	if status != "" {
		db = db.Where("status = ?", status)
	}

	var requests []LeaveRequest
	err := db.Order("created_at DESC").Find(&requests).Error
	return requests, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]LeaveRequest, error) {
	var requests []LeaveRequest
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("employee_id = ?", employeeID).
		Order("start_date DESC").
		Find(&requests).Error
	return requests, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		First(&l, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	return &l, nil
}

const lockColumns = `
id, company_id, employee_id, request_number, leave_type, request_type,
start_date, end_date, number_of_days, reason, status, approver_comments,
metadata, version, created_by, created_at, updated_at
`

func (r *repository) LockByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error) {
	runner, err := r.runner()
	if err != nil {
		return nil, err
	}

	query := `
SELECT ` + lockColumns + `
FROM leave_requests
WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
FOR UPDATE
`
	row := runner.QueryRowContext(ctx, query, id, companyID)

	var l LeaveRequest
	var comments sql.NullString
	err = row.Scan(
		&l.ID, &l.CompanyID, &l.EmployeeID, &l.RequestNumber, &l.LeaveType, &l.RequestType,
		&l.StartDate, &l.EndDate, &l.NumberOfDays, &l.Reason, &l.Status, &comments,
		&l.Metadata, &l.Version, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	if comments.Valid {
		l.ApproverComments = &comments.String
	}
	return &l, nil
}

func (r *repository) UpdateTransition(ctx context.Context, l *LeaveRequest) error {
	runner, err := r.runner()
	if err != nil {
		return err
	}

	metadata, err := l.Metadata.Value()
	if err != nil {
		return err
	}

	query := `
UPDATE leave_requests
SET status = $1,
    approver_comments = $2,
    metadata = $3,
    version = version + 1,
    updated_at = NOW()
WHERE id = $4 AND company_id = $5 AND version = $6 AND deleted_at IS NULL
`
	res, err := runner.ExecContext(ctx, query,
		l.Status, l.ApproverComments, metadata,
		l.ID, l.CompanyID, l.Version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return leaveerrors.ErrVersionConflict
	}
	l.Version++
	return nil
}

func (r *repository) HardDelete(ctx context.Context, companyID, id string) error {
	runner, err := r.runner()
	if err != nil {
		return err
	}

	query := `DELETE FROM leave_requests WHERE id = $1 AND company_id = $2`
	res, err := runner.ExecContext(ctx, query, id, companyID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return leaveerrors.ErrLeaveNotFound
	}
	return nil
}

func (r *repository) HasOverlappingPeriod(ctx context.Context, companyID, employeeID string, startDate, endDate time.Time, excludeID *string) (bool, error) {
	db := r.db.WithContext(ctx).
		Model(&LeaveRequest{}).
		Where("company_id = ?", companyID).
		Where("employee_id = ?", employeeID).
		Where("status NOT IN ?", []string{StatusRejected, StatusCancelled}).
		Where("NOT (end_date < ? OR start_date > ?)", startDate, endDate)

	if excludeID != nil && *excludeID != "" {
		db = db.Where("id <> ?", *excludeID)
	}

	var count int64
	err := db.Count(&count).Error
	return count > 0, err
}
