package workflow

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomWorkflow is an administrator-configured approval chain, selected by
// leave duration and optionally scoped to a department, position or leave
// category. Read-only to the resolver.
type CustomWorkflow struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_workflows_company_active"`
	Name            string     `gorm:"type:varchar(255);not null"`
	LeaveCategoryID *uuid.UUID `gorm:"type:uuid"`
	MinDays         float64    `gorm:"type:numeric(5,1);not null"`
	MaxDays         float64    `gorm:"type:numeric(5,1);not null"`
	DepartmentID    *uuid.UUID `gorm:"type:uuid"`
	PositionID      *uuid.UUID `gorm:"type:uuid"`
	IsActive        bool       `gorm:"not null;default:true;index:idx_workflows_company_active"`
	IsDefault       bool       `gorm:"not null;default:false"`

	Levels []CustomWorkflowLevel `gorm:"foreignKey:WorkflowID"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (CustomWorkflow) TableName() string {
	return "custom_workflows"
}

// CustomWorkflowLevel is one step of a custom chain. A step points either
// at a position (all holders are eligible) or at a fallback role set.
type CustomWorkflowLevel struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	WorkflowID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Level        int        `gorm:"not null"`
	PositionID   *uuid.UUID `gorm:"type:uuid"`
	DepartmentID *uuid.UUID `gorm:"type:uuid"`
	FallbackRole string     `gorm:"type:varchar(50)"`
	IsRequired   bool       `gorm:"not null;default:true"`
}

func (CustomWorkflowLevel) TableName() string {
	return "custom_workflow_levels"
}

// LeaveCategory bounds the day ranges and level counts an administrator
// may configure. Category management is outside this service.
type LeaveCategory struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID         uuid.UUID `gorm:"type:uuid;not null;index"`
	Name              string    `gorm:"type:varchar(255);not null"`
	DefaultMinDays    float64   `gorm:"type:numeric(5,1);not null;default:0.5"`
	DefaultMaxDays    float64   `gorm:"type:numeric(5,1);not null;default:30"`
	MaxApprovalLevels int       `gorm:"not null;default:4"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LeaveCategory) TableName() string {
	return "leave_categories"
}
