package balance

import (
	"context"
	"database/sql"
	"errors"

	balanceerrors "go-leaveflow/internal/balance/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Get(ctx context.Context, companyID, employeeID, leaveType string, year int) (*LeaveBalance, error)
	// Ensure creates a zero-usage ledger row when none exists yet.
	Ensure(ctx context.Context, companyID, employeeID, leaveType string, year int, entitled float64) error
	// Debit moves days to Used; fails when the remaining entitlement is
	// smaller than days.
	Debit(ctx context.Context, companyID, employeeID, leaveType string, year int, days float64) error
	// Credit returns days to the ledger, flooring Used at zero.
	Credit(ctx context.Context, companyID, employeeID, leaveType string, year int, days float64) error
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

type execer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}

func (r *repository) execer() execer {
	if r.tx != nil {
		return r.tx
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return failingExecer{err: err}
	}
	return sqlDB
}

type failingExecer struct{ err error }

func (f failingExecer) ExecContext(context.Context, string, ...any) (sql.Result, error) {
	return nil, f.err
}

func (r *repository) Get(ctx context.Context, companyID, employeeID, leaveType string, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("employee_id = ?", employeeID).
		Where("leave_type = ?", leaveType).
		Where("year = ?", year).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, balanceerrors.ErrBalanceNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *repository) Ensure(ctx context.Context, companyID, employeeID, leaveType string, year int, entitled float64) error {
	query := `
INSERT INTO leave_balances (company_id, employee_id, leave_type, year, entitled, used, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 0, NOW(), NOW())
`
	_, err := r.execer().ExecContext(ctx, query, companyID, employeeID, leaveType, year, entitled)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			// Row already exists; nothing to do.
			return nil
		}
		return err
	}
	return nil
}

func (r *repository) Debit(ctx context.Context, companyID, employeeID, leaveType string, year int, days float64) error {
	query := `
UPDATE leave_balances
SET used = used + $5, updated_at = NOW()
WHERE company_id = $1
  AND employee_id = $2
  AND leave_type = $3
  AND year = $4
  AND entitled - used >= $5
`
	res, err := r.execer().ExecContext(ctx, query, companyID, employeeID, leaveType, year, days)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, getErr := r.Get(ctx, companyID, employeeID, leaveType, year); getErr != nil {
			return getErr
		}
		return balanceerrors.ErrInsufficientBalance
	}
	return nil
}

func (r *repository) Credit(ctx context.Context, companyID, employeeID, leaveType string, year int, days float64) error {
	query := `
UPDATE leave_balances
SET used = GREATEST(used - $5, 0), updated_at = NOW()
WHERE company_id = $1
  AND employee_id = $2
  AND leave_type = $3
  AND year = $4
`
	res, err := r.execer().ExecContext(ctx, query, companyID, employeeID, leaveType, year, days)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return balanceerrors.ErrBalanceNotFound
	}
	return nil
}
