package workflow

type WorkflowLevelRequest struct {
	Level        int     `json:"level" binding:"required,min=1"`
	PositionID   *string `json:"position_id" binding:"omitempty,uuid"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
	FallbackRole string  `json:"fallback_role" binding:"omitempty,oneof=teamLead manager departmentHead hr superAdmin"`
	IsRequired   *bool   `json:"is_required"`
}

type CreateWorkflowRequest struct {
	Name            string                 `json:"name" binding:"required"`
	LeaveCategoryID *string                `json:"leave_category_id" binding:"omitempty,uuid"`
	MinDays         float64                `json:"min_days" binding:"required,min=0.5"`
	MaxDays         float64                `json:"max_days" binding:"required"`
	DepartmentID    *string                `json:"department_id" binding:"omitempty,uuid"`
	PositionID      *string                `json:"position_id" binding:"omitempty,uuid"`
	IsDefault       bool                   `json:"is_default"`
	ApprovalLevels  []WorkflowLevelRequest `json:"approval_levels" binding:"required,min=1,dive"`
}

type WorkflowLevelResponse struct {
	Level        int     `json:"level"`
	PositionID   *string `json:"position_id,omitempty"`
	DepartmentID *string `json:"department_id,omitempty"`
	FallbackRole string  `json:"fallback_role,omitempty"`
	IsRequired   bool    `json:"is_required"`
}

type WorkflowResponse struct {
	ID              string                  `json:"id"`
	CompanyID       string                  `json:"company_id"`
	Name            string                  `json:"name"`
	LeaveCategoryID *string                 `json:"leave_category_id,omitempty"`
	MinDays         float64                 `json:"min_days"`
	MaxDays         float64                 `json:"max_days"`
	DepartmentID    *string                 `json:"department_id,omitempty"`
	PositionID      *string                 `json:"position_id,omitempty"`
	IsActive        bool                    `json:"is_active"`
	IsDefault       bool                    `json:"is_default"`
	ApprovalLevels  []WorkflowLevelResponse `json:"approval_levels"`
}
