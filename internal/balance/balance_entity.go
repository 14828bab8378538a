package balance

import (
	"time"

	"github.com/google/uuid"
)

// LeaveBalance is the per-employee ledger row for one leave type and year.
// Used is only ever moved inside the same transaction as the leave request
// status change that justifies it.
type LeaveBalance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_balances_owner"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_balances_owner"`
	LeaveType  string    `gorm:"type:varchar(30);not null;uniqueIndex:idx_balances_owner"`
	Year       int       `gorm:"not null;uniqueIndex:idx_balances_owner"`

	Entitled float64 `gorm:"type:numeric(5,1);not null;default:0"`
	Used     float64 `gorm:"type:numeric(5,1);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveBalance) TableName() string {
	return "leave_balances"
}
