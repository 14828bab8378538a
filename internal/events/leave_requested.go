package events

import "time"

const LeaveRequestedTopic = "hr.leave.requested.v1"

type LeaveRequestedEvent struct {
	EventType    string    `json:"event_type"`
	LeaveID      string    `json:"leave_id"`
	CompanyID    string    `json:"company_id"`
	EmployeeID   string    `json:"employee_id"`
	LeaveType    string    `json:"leave_type"`
	NumberOfDays float64   `json:"number_of_days"`
	OccurredAt   time.Time `json:"occurred_at"`
}
