package leave

import (
	"time"

	"go-leaveflow/internal/workflow"
)

type CreateLeaveRequest struct {
	LeaveType   string `json:"leave_type" binding:"required,oneof=ANNUAL SICK UNPAID SPECIAL"`
	RequestType string `json:"request_type" binding:"omitempty,oneof=FULL_DAY HALF_DAY_MORNING HALF_DAY_AFTERNOON"`
	StartDate   string `json:"start_date" binding:"required"`
	EndDate     string `json:"end_date" binding:"required"`
	Reason      string `json:"reason" binding:"required,min=3"`
}

type DecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Comments string `json:"comments" binding:"omitempty,max=500"`
}

type DeletionDecisionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Comments string `json:"comments" binding:"omitempty,max=500"`
}

type ApprovalRecordResponse struct {
	Level        int       `json:"level"`
	ApproverID   string    `json:"approver_id"`
	ApproverName string    `json:"approver_name"`
	ApprovedAt   time.Time `json:"approved_at"`
	Comments     string    `json:"comments,omitempty"`
}

type LeaveResponse struct {
	ID            string  `json:"id"`
	RequestNumber string  `json:"request_number"`
	EmployeeID    string  `json:"employee_id"`
	LeaveType     string  `json:"leave_type"`
	RequestType   string  `json:"request_type"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	NumberOfDays  float64 `json:"number_of_days"`
	Reason        string  `json:"reason"`
	Status        string  `json:"status"`

	RequiredApprovalLevels []int                      `json:"required_approval_levels"`
	CurrentApprovalLevel   int                        `json:"current_approval_level"`
	ApprovalHistory        []ApprovalRecordResponse   `json:"approval_history"`
	IsFullyApproved        bool                       `json:"is_fully_approved"`
	Workflow               *workflow.ResolvedWorkflow `json:"workflow,omitempty"`

	ApproverComments *string   `json:"approver_comments,omitempty"`
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func mapToLeaveResponse(l *LeaveRequest) LeaveResponse {
	history := make([]ApprovalRecordResponse, 0, len(l.Metadata.ApprovalHistory))
	for _, rec := range l.Metadata.ApprovalHistory {
		history = append(history, ApprovalRecordResponse{
			Level:        rec.Level,
			ApproverID:   rec.ApproverID,
			ApproverName: rec.ApproverName,
			ApprovedAt:   rec.ApprovedAt,
			Comments:     rec.Comments,
		})
	}

	return LeaveResponse{
		ID:            l.ID.String(),
		RequestNumber: l.RequestNumber,
		EmployeeID:    l.EmployeeID.String(),
		LeaveType:     l.LeaveType,
		RequestType:   l.RequestType,
		StartDate:     l.StartDate.Format("2006-01-02"),
		EndDate:       l.EndDate.Format("2006-01-02"),
		NumberOfDays:  l.NumberOfDays,
		Reason:        l.Reason,
		Status:        l.Status,

		RequiredApprovalLevels: l.Metadata.RequiredApprovalLevels,
		CurrentApprovalLevel:   l.Metadata.CurrentApprovalLevel,
		ApprovalHistory:        history,
		IsFullyApproved:        l.Metadata.IsFullyApproved,
		Workflow:               l.Metadata.WorkflowDetails,

		ApproverComments: l.ApproverComments,
		Version:          l.Version,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}
