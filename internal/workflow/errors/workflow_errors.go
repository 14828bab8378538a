package workflowerrors

import (
	"net/http"

	"go-leaveflow/internal/shared/apperror"
)

var (
	ErrNoWorkflowConfigured = apperror.New(
		apperror.CodeInvalidState,
		"no approval workflow configured for this request",
		http.StatusUnprocessableEntity,
	)
	ErrNoEligibleApprovers = apperror.New(
		apperror.CodeInvalidState,
		"no eligible approvers found for a required approval level",
		http.StatusUnprocessableEntity,
	)
	ErrInvalidLevelSequence = apperror.New(
		apperror.CodeInvalidState,
		"approval levels must be contiguous starting at 1 with no duplicates",
		http.StatusUnprocessableEntity,
	)
	ErrWorkflowNotFound = apperror.New(
		apperror.CodeNotFound,
		"workflow not found",
		http.StatusNotFound,
	)
	ErrCategoryNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave category not found",
		http.StatusNotFound,
	)
	ErrTooManyLevels = apperror.New(
		apperror.CodeInvalidInput,
		"workflow exceeds the category's maximum number of approval levels",
		http.StatusBadRequest,
	)
	ErrInvalidDayRange = apperror.New(
		apperror.CodeInvalidInput,
		"min_days must be positive and not greater than max_days",
		http.StatusBadRequest,
	)
	ErrUnknownSource = apperror.New(
		apperror.CodeInvalidState,
		"unknown workflow source configured",
		http.StatusInternalServerError,
	)
)
