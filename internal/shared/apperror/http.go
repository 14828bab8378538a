package apperror

import (
	"errors"
	"net/http"
)

type HTTPError struct {
	Status  int
	Code    string
	Message string
	Details any
}

// ToHTTP maps any error to an HTTP representation. AppErrors keep their
// code and status; everything else becomes an opaque 500.
func ToHTTP(err error) HTTPError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return HTTPError{
			Status:  appErr.HTTPStatus,
			Code:    appErr.Code,
			Message: appErr.Message,
		}
	}
	return HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    CodeInternalError,
		Message: "An unexpected error occurred",
	}
}
