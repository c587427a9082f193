package handler

import (
	"net/http"

	"docflow/internal/middleware"
	"docflow/internal/model"
	"docflow/internal/service"
	"docflow/pkg/pagination"
	"docflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DocumentHandler struct {
	documentService service.DocumentService
	approvalService service.ApprovalService
	auditService    service.AuditService
}

// NewDocumentHandler sets up the routing dependencies for Document endpoints
func NewDocumentHandler(documentService service.DocumentService, approvalService service.ApprovalService, auditService service.AuditService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		approvalService: approvalService,
		auditService:    auditService,
	}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *DocumentHandler) RegisterRoutes(router *gin.RouterGroup) {
	docs := router.Group("/api/documents")
	{
		docs.POST("", middleware.RequireAuth(), h.CreateDocument)
		docs.GET("", middleware.RequireAuth(), h.ListDocuments)
		docs.GET("/:id", middleware.RequireAuth(), h.GetDocument)
		docs.PUT("/:id", middleware.RequireAuth(), h.UpdateDocument)
		docs.POST("/:id/resubmit", middleware.RequireAuth(), h.Resubmit)
		docs.POST("/:id/recompute", middleware.RequireRole(model.RoleAdmin), h.Recompute)
		docs.GET("/:id/audit", middleware.RequireAuth(), h.GetHistory)
	}
}

// CreateDocument creates a document together with its full approval chain
// @Summary      Create a document
// @Description  Creates a document and materializes its approval chain from a template or an explicit approver list
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateDocumentRequest  true  "Create Document Payload"
// @Success      201      {object}  response.Response{data=service.DocumentResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/documents [post]
func (h *DocumentHandler) CreateDocument(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "missing identity"))
		return
	}

	var req service.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.documentService.CreateDocument(c.Request.Context(), userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, doc))
}

// ListDocuments returns documents, optionally filtered by status/type/mine
// @Summary      List documents
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Document status filter"
// @Param        type    query     string  false  "Document type filter"
// @Param        mine    query     bool    false  "Only documents I initiated"
// @Success      200     {object}  response.Response
// @Router       /api/documents [get]
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.DocumentFilter{
		Status: c.Query("status"),
		Type:   c.Query("type"),
		Page:   params.Page,
		Limit:  params.Limit,
	}
	if c.Query("mine") == "true" {
		if userID, ok := middleware.UserID(c); ok {
			filter.InitiatorID = userID
		}
	}

	docs, total, err := h.documentService.ListDocuments(c.Request.Context(), filter)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"data":   docs,
		"total":  total,
		"page":   params.Page,
		"limit":  params.Limit,
	})
}

// GetDocument returns one document with its ordered approval chain
// @Summary      Get a document
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  response.Response{data=service.DocumentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid document id"))
		return
	}

	doc, err := h.documentService.GetDocument(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// UpdateDocument updates document metadata (initiator only)
// @Summary      Update document metadata
// @Tags         documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                         true  "Document ID"
// @Param        payload  body      service.UpdateDocumentRequest  true  "Update Payload"
// @Success      200      {object}  response.Response{data=service.DocumentResponse}
// @Failure      403      {object}  response.Response
// @Router       /api/documents/{id} [put]
func (h *DocumentHandler) UpdateDocument(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid document id"))
		return
	}
	userID, _ := middleware.UserID(c)

	var req service.UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	doc, err := h.documentService.UpdateDocument(c.Request.Context(), id, userID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Resubmit reopens the revision-requesting step after rework
// @Summary      Resubmit a document after revision
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  response.Response{data=service.DocumentResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/documents/{id}/resubmit [post]
func (h *DocumentHandler) Resubmit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid document id"))
		return
	}
	userID, _ := middleware.UserID(c)

	doc, err := h.documentService.Resubmit(c.Request.Context(), id, userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, doc))
}

// Recompute re-derives the document status from its chain (repair tool)
// @Summary      Recompute document status
// @Description  Re-derives the aggregate status from the approval chain; idempotent consistency repair
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  response.Response
// @Router       /api/documents/{id}/recompute [post]
func (h *DocumentHandler) Recompute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid document id"))
		return
	}

	status, err := h.approvalService.Recompute(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"status": status}))
}

// GetHistory replays the document's audit trail in decision order
// @Summary      Get document history
// @Tags         documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  response.Response{data=[]service.AuditLogResponse}
// @Router       /api/documents/{id}/audit [get]
func (h *DocumentHandler) GetHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid document id"))
		return
	}

	history, err := h.auditService.GetDocumentHistory(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, history))
}
