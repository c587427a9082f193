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

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

func (h *CommentHandler) RegisterRoutes(router *gin.RouterGroup) {
	comments := router.Group("/api/documents/:id/comments")
	{
		comments.POST("", middleware.RequireAuth(), h.AttachComment)
		comments.GET("", middleware.RequireAuth(), h.ListComments)
	}
	router.GET("/api/documents/:id/approvals/:approvalId/comments", middleware.RequireAuth(), h.ListApprovalComments)
}

// AttachComment attaches a comment to one approval step of the document
// @Summary      Attach a comment
// @Description  Binds a remark to a specific approval step, audits it and notifies the counterparty
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Document ID"
// @Param        payload  body      service.AttachCommentRequest  true  "Comment Payload"
// @Success      201      {object}  response.Response{data=service.CommentResponse}
// @Failure      404      {object}  response.Response
// @Router       /api/documents/{id}/comments [post]
func (h *CommentHandler) AttachComment(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid document id"))
		return
	}
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "missing identity"))
		return
	}

	var req service.AttachCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	approvalID, err := uuid.Parse(req.ApprovalID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid approval id"))
		return
	}

	comment, err := h.commentService.Attach(c.Request.Context(), documentID, approvalID, userID, req.Content)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, comment))
}

// ListApprovalComments lists the comments bound to one approval step
// @Summary      List comments of an approval step
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      string  true  "Document ID"
// @Param        approvalId  path      string  true  "Approval ID"
// @Success      200         {object}  response.Response{data=[]service.CommentResponse}
// @Failure      404         {object}  response.Response
// @Router       /api/documents/{id}/approvals/{approvalId}/comments [get]
func (h *CommentHandler) ListApprovalComments(c *gin.Context) {
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

	comments, err := h.commentService.ListForApproval(c.Request.Context(), documentID, approvalID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, comments))
}

// ListComments lists a document's comments in chronological order
// @Summary      List document comments
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  response.Response
// @Router       /api/documents/{id}/comments [get]
func (h *CommentHandler) ListComments(c *gin.Context) {
	documentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid document id"))
		return
	}
	params := pagination.Parse(c)

	comments, total, err := h.commentService.ListForDocument(c.Request.Context(), documentID, params.Page, params.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   comments,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}
