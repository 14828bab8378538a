package leave

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"go-leaveflow/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LeaveRequest struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_company_status"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee_dates"`
	RequestNumber string    `gorm:"type:varchar(20);not null"`

	LeaveType    string    `gorm:"type:varchar(30);not null;default:'ANNUAL'"`
	RequestType  string    `gorm:"type:varchar(30);not null;default:'FULL_DAY'"`
	StartDate    time.Time `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	EndDate      time.Time `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	NumberOfDays float64   `gorm:"type:numeric(5,1);not null"`
	Reason       string    `gorm:"type:text"`

	Status           string   `gorm:"type:varchar(30);not null;default:'PENDING';index:idx_leave_requests_company_status"`
	ApproverComments *string  `gorm:"type:text"`
	Metadata         Metadata `gorm:"type:jsonb;not null"`
	// Version backs the optimistic concurrency check: every transition
	// updates the row only when the version it read is still current.
	Version int `gorm:"not null;default:1"`

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index:idx_leave_requests_deleted_at"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

// ApprovalRecord is one completed sign-off in the chain.
type ApprovalRecord struct {
	Level        int       `json:"level"`
	ApproverID   string    `json:"approver_id"`
	ApproverName string    `json:"approver_name"`
	ApprovedAt   time.Time `json:"approved_at"`
	Comments     string    `json:"comments,omitempty"`
}

// Metadata is the typed workflow state of a request. The legacy system
// kept this as an untyped JSON bag; every field is validated on write
// here and the whole struct round-trips through a jsonb column.
type Metadata struct {
	RequiredApprovalLevels []int                      `json:"required_approval_levels"`
	CurrentApprovalLevel   int                        `json:"current_approval_level"`
	ApprovalHistory        []ApprovalRecord           `json:"approval_history,omitempty"`
	IsFullyApproved        bool                       `json:"is_fully_approved"`
	WorkflowDetails        *workflow.ResolvedWorkflow `json:"workflow_details,omitempty"`

	DeletionRequestedBy       string     `json:"deletion_requested_by,omitempty"`
	DeletionRequestedAt       *time.Time `json:"deletion_requested_at,omitempty"`
	DeletionRejectedBy        string     `json:"deletion_rejected_by,omitempty"`
	DeletionRejectedAt        *time.Time `json:"deletion_rejected_at,omitempty"`
	DeletionRejectionComments string     `json:"deletion_rejection_comments,omitempty"`
	OriginalStatus            string     `json:"original_status,omitempty"`
}

// Value implements driver.Valuer for the jsonb column.
func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for the jsonb column.
func (m *Metadata) Scan(value any) error {
	if value == nil {
		*m = Metadata{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported metadata column type %T", value)
	}
}

// MaxRequiredLevel returns the highest required level, 0 for an empty chain.
func (m *Metadata) MaxRequiredLevel() int {
	maxLevel := 0
	for _, l := range m.RequiredApprovalLevels {
		if l > maxLevel {
			maxLevel = l
		}
	}
	return maxLevel
}

// HasLevelApproval reports whether a level is already present in history.
func (m *Metadata) HasLevelApproval(level int) bool {
	for _, rec := range m.ApprovalHistory {
		if rec.Level == level {
			return true
		}
	}
	return false
}

// Validate enforces the metadata invariants before every persist.
func (m *Metadata) Validate() error {
	for i, l := range m.RequiredApprovalLevels {
		if l != i+1 {
			return fmt.Errorf("required approval levels must be contiguous from 1, got %v", m.RequiredApprovalLevels)
		}
	}
	if len(m.ApprovalHistory) != m.CurrentApprovalLevel {
		return fmt.Errorf("approval history length %d does not match current level %d",
			len(m.ApprovalHistory), m.CurrentApprovalLevel)
	}
	highest := 0
	for _, rec := range m.ApprovalHistory {
		if rec.Level > highest {
			highest = rec.Level
		}
	}
	if highest != m.CurrentApprovalLevel {
		return fmt.Errorf("highest recorded level %d does not match current level %d",
			highest, m.CurrentApprovalLevel)
	}
	return nil
}
