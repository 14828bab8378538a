package leaveerrors

import (
	"net/http"

	"go-leaveflow/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrHalfDayMultipleDays = apperror.New(
		apperror.CodeInvalidInput,
		"half-day requests must start and end on the same date",
		http.StatusBadRequest,
	)
	ErrNoWorkingDays = apperror.New(
		apperror.CodeInvalidInput,
		"the requested period contains no working days",
		http.StatusBadRequest,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"leave already exists in overlapping period",
		http.StatusConflict,
	)
	ErrTerminalStatus = apperror.New(
		apperror.CodeInvalidState,
		"leave request is already in a terminal status",
		http.StatusBadRequest,
	)
	ErrNotEligible = apperror.New(
		apperror.CodeForbidden,
		"you are not eligible to act at the current approval level",
		http.StatusForbidden,
	)
	ErrDuplicateApproval = apperror.New(
		apperror.CodeConflict,
		"this approval level has already been recorded",
		http.StatusConflict,
	)
	ErrVersionConflict = apperror.New(
		apperror.CodeConflict,
		"leave request was modified concurrently, please retry",
		http.StatusConflict,
	)
	ErrNotOwner = apperror.New(
		apperror.CodeForbidden,
		"only the owner of the leave request may perform this action",
		http.StatusForbidden,
	)
	ErrCancelNotPending = apperror.New(
		apperror.CodeInvalidState,
		"only pending leave requests can be cancelled",
		http.StatusBadRequest,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"comments are required when rejecting",
		http.StatusBadRequest,
	)
	ErrDeletionNotAllowed = apperror.New(
		apperror.CodeInvalidState,
		"deletion can only be requested for an approved leave request",
		http.StatusBadRequest,
	)
	ErrDeletionAlreadyPending = apperror.New(
		apperror.CodeConflict,
		"a deletion request is already pending for this leave request",
		http.StatusConflict,
	)
	ErrNoPendingDeletion = apperror.New(
		apperror.CodeInvalidState,
		"this leave request has no pending deletion request",
		http.StatusBadRequest,
	)
	ErrDeletionApproverLevel = apperror.New(
		apperror.CodeForbidden,
		"deletion requests can only be decided by a manager-level approver or above",
		http.StatusForbidden,
	)
	ErrInvalidDecision = apperror.New(
		apperror.CodeInvalidInput,
		"decision must be APPROVE or REJECT",
		http.StatusBadRequest,
	)
)
