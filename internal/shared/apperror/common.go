package apperror

import (
	"fmt"
	"net/http"
)

var (
	ErrNotFound = New(
		CodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrForbidden = New(
		CodeForbidden,
		"You do not have permission to access this resource",
		http.StatusForbidden,
	)

	ErrInternal = New(
		CodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)

	ErrUnauthorized = New(
		CodeUnauthorized,
		"Authentication is required",
		http.StatusUnauthorized,
	)

	ErrInvalidInput = New(
		CodeInvalidInput,
		"The provided input is invalid",
		http.StatusBadRequest,
	)

	ErrInvalidToken = New(
		CodeUnauthorized,
		"Invalid or malformed token",
		http.StatusUnauthorized,
	)

	ErrTokenExpired = New(
		CodeUnauthorized,
		"Token has expired",
		http.StatusUnauthorized,
	)
)

// RequiredField builds a validation error for a missing field
func RequiredField(field string) *AppError {
	return New(
		CodeInvalidInput,
		fmt.Sprintf("%s is required", field),
		http.StatusBadRequest,
	)
}

// InvalidField builds a validation error for a malformed field
func InvalidField(field string) *AppError {
	return New(
		CodeInvalidInput,
		fmt.Sprintf("%s is invalid", field),
		http.StatusBadRequest,
	)
}
