package balanceerrors

import (
	"net/http"

	"go-leaveflow/internal/shared/apperror"
)

var (
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave balance not found for this employee, leave type and year",
		http.StatusNotFound,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInvalidState,
		"insufficient leave balance",
		http.StatusUnprocessableEntity,
	)
)
