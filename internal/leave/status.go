package leave

// Approval chain statuses. PENDING_DELETION belongs to the deletion
// sub-flow and is only reachable from APPROVED.
const (
	StatusPending           = "PENDING"
	StatusPartiallyApproved = "PARTIALLY_APPROVED"
	StatusApproved          = "APPROVED"
	StatusRejected          = "REJECTED"
	StatusCancelled         = "CANCELLED"
	StatusPendingDeletion   = "PENDING_DELETION"
)

const (
	RequestTypeFullDay          = "FULL_DAY"
	RequestTypeHalfDayMorning   = "HALF_DAY_MORNING"
	RequestTypeHalfDayAfternoon = "HALF_DAY_AFTERNOON"
)

const (
	DecisionApprove = "APPROVE"
	DecisionReject  = "REJECT"
)

// IsOpenForApproval reports whether the request still accepts chain
// decisions.
func IsOpenForApproval(status string) bool {
	return status == StatusPending || status == StatusPartiallyApproved
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(status string) bool {
	return status == StatusRejected || status == StatusCancelled
}

// IsHalfDay reports whether a request type books half a working day.
func IsHalfDay(requestType string) bool {
	return requestType == RequestTypeHalfDayMorning || requestType == RequestTypeHalfDayAfternoon
}
