package handler

import (
	"net/http"

	"docflow/internal/middleware"
	"docflow/internal/service"
	"docflow/pkg/pagination"
	"docflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	approvals := router.Group("/api/documents/:id/approvals")
	{
		approvals.PUT("/:approvalId/decide", middleware.RequireAuth(), h.Decide)
	}
	router.GET("/api/approvals/pending", middleware.RequireAuth(), h.ListPending)
}

// Decide applies one approver's decision to one approval step
// @Summary      Decide an approval step
// @Description  Applies APPROVE, REJECT or REQUEST_REVISION to the current actionable step and cascades status, audit and notifications atomically
// @Tags         approvals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      string                 true  "Document ID"
// @Param        approvalId  path      string                 true  "Approval ID"
// @Param        payload     body      service.DecideRequest  true  "Decision Payload"
// @Success      200         {object}  response.Response{data=service.ApprovalResponse}
// @Failure      403         {object}  response.Response
// @Failure      409         {object}  response.Response
// @Router       /api/documents/{id}/approvals/{approvalId}/decide [put]
func (h *ApprovalHandler) Decide(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid document id"))
		return
	}
	approvalID, err := uuid.Parse(c.Param("approvalId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid approval id"))
		return
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "missing identity"))
		return
	}

	var req service.DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	approval, err := h.approvalService.Decide(c.Request.Context(), documentID, approvalID, userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, approval))
}

// ListPending returns the caller's pending approval steps
// @Summary      List my pending approvals
// @Tags         approvals
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /api/approvals/pending [get]
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "missing identity"))
		return
	}
	params := pagination.Parse(c)

	approvals, total, err := h.approvalService.ListPendingForApprover(c.Request.Context(), userID, params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   approvals,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}
