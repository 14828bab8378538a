package directory

import (
	"net/http"

	"go-leaveflow/internal/shared/apperror"
)

var ErrUserNotFound = apperror.New(
	apperror.CodeNotFound,
	"user not found",
	http.StatusNotFound,
)
