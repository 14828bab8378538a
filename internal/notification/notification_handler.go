package notification

import (
	"net/http"

	"go-leaveflow/internal/shared/apperror"
	"go-leaveflow/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("notification.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) List(c *gin.Context) {
	companyID := c.GetString("company_id")
	userID := c.GetString("user_id")
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.service.List(c.Request.Context(), companyID, userID, unreadOnly)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, notifications, nil)
}

func (h *Handler) MarkRead(c *gin.Context) {
	companyID := c.GetString("company_id")
	userID := c.GetString("user_id")
	id := c.Param("id")

	if err := h.service.MarkRead(c.Request.Context(), companyID, userID, id); err != nil {
		httpErr := apperror.ToHTTP(err)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id}, nil)
}
