package events

import "time"

const LeaveDecidedTopic = "hr.leave.decision.v1"

// LeaveDecidedEvent is emitted on every approval-chain transition:
// per-level approvals, final approval, rejection, cancellation and the
// deletion sub-flow outcomes.
type LeaveDecidedEvent struct {
	EventType  string    `json:"event_type"`
	LeaveID    string    `json:"leave_id"`
	CompanyID  string    `json:"company_id"`
	EmployeeID string    `json:"employee_id"`
	Status     string    `json:"status"`
	Level      int       `json:"level,omitempty"`
	DecidedBy  string    `json:"decided_by"`
	OccurredAt time.Time `json:"occurred_at"`
}
