package service

import (
	"context"

	"docflow/internal/model"
	"docflow/internal/repository"

	"github.com/google/uuid"
)

type AuditLogResponse struct {
	ID         int64  `json:"id"`
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Action     string `json:"action"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

// AuditService exposes the read side of the audit log. Writes happen
// inside the workflow transactions via AuditRepository.
type AuditService interface {
	GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
	// GetDocumentHistory replays one document's full history in the exact
	// order the decisions were applied.
	GetDocumentHistory(ctx context.Context, documentID uuid.UUID) ([]AuditLogResponse, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toAuditResponse(l))
	}
	return res, total, nil
}

func (s *auditService) GetDocumentHistory(ctx context.Context, documentID uuid.UUID) ([]AuditLogResponse, error) {
	logs, err := s.repo.ListForDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		res = append(res, toAuditResponse(l))
	}
	return res, nil
}

func toAuditResponse(l model.AuditLog) AuditLogResponse {
	username := "System"
	userID := ""
	if l.User != nil {
		username = l.User.Username
	}
	if l.UserID != nil {
		userID = l.UserID.String()
	}

	return AuditLogResponse{
		ID:         l.ID,
		DocumentID: l.DocumentID.String(),
		UserID:     userID,
		Username:   username,
		Action:     l.Action,
		Details:    l.Details,
		CreatedAt:  l.CreatedAt.Format(timeFormat),
	}
}
