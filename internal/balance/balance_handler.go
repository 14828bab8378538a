package balance

import (
	"net/http"
	"strconv"

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
	l := zap.L().Named("balance.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) GetMine(c *gin.Context) {
	companyID := c.GetString("company_id")
	userID := c.GetString("user_id")

	leaveType := c.DefaultQuery("leave_type", "ANNUAL")
	year, _ := strconv.Atoi(c.Query("year"))

	resp, err := h.service.Get(c.Request.Context(), companyID, userID, leaveType, year)
	if err != nil {
		httpErr := apperror.ToHTTP(err)
		h.logger.Warn("balance request failed",
			zap.String("leave_type", leaveType),
			zap.Int("status", httpErr.Status),
		)
		response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
