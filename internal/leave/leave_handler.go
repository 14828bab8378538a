package leave

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
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("leave request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) writeBindingError(c *gin.Context, err error) {
	h.logger.Warn("leave payload validation failed", zap.Error(err))
	mapped := apperror.ToHTTP(apperror.MapValidationError(err))
	response.Error(c, mapped.Status, "VALIDATION_ERROR", mapped.Message, err.Error())
}

func (h *Handler) Create(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := c.GetString("user_id")

	var req CreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindingError(c, err)
		return
	}

	resp, err := h.service.Create(c.Request.Context(), companyID, actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	companyID := c.GetString("company_id")
	status := c.Query("status")

	resp, err := h.service.GetAll(c.Request.Context(), companyID, status)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetMine(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := c.GetString("user_id")

	resp, err := h.service.GetMine(c.Request.Context(), companyID, actorID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetByID(c *gin.Context) {
	companyID := c.GetString("company_id")
	id := c.Param("id")

	resp, err := h.service.GetByID(c.Request.Context(), companyID, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Decide(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := c.GetString("user_id")
	id := c.Param("id")

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindingError(c, err)
		return
	}

	resp, err := h.service.RecordDecision(c.Request.Context(), companyID, actorID, id, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Cancel(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := c.GetString("user_id")
	id := c.Param("id")

	resp, err := h.service.Cancel(c.Request.Context(), companyID, actorID, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) RequestDeletion(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := c.GetString("user_id")
	id := c.Param("id")

	resp, err := h.service.RequestDeletion(c.Request.Context(), companyID, actorID, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) DecideDeletion(c *gin.Context) {
	companyID := c.GetString("company_id")
	actorID := c.GetString("user_id")
	id := c.Param("id")

	var req DeletionDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeBindingError(c, err)
		return
	}

	resp, err := h.service.DecideDeletion(c.Request.Context(), companyID, actorID, id, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
