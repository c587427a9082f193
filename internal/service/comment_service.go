package service

import (
	"context"
	"errors"
	"fmt"

	"docflow/internal/model"
	"docflow/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type AttachCommentRequest struct {
	ApprovalID string `json:"approval_id" binding:"required"`
	Content    string `json:"content" binding:"required"`
}

type CommentResponse struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	ApprovalID string `json:"approval_id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name,omitempty"`
	Content    string `json:"content"`
	CreatedAt  string `json:"created_at"`
}

// --- Interface ---

// CommentService attaches discussion comments to a specific approval step,
// typically to give context for a revision request.
type CommentService interface {
	Attach(ctx context.Context, documentID, approvalID, authorID uuid.UUID, content string) (*CommentResponse, error)
	ListForDocument(ctx context.Context, documentID uuid.UUID, page, limit int) ([]CommentResponse, int64, error)
	// ListForApproval narrows the discussion to a single step, e.g. the
	// context behind one revision request.
	ListForApproval(ctx context.Context, documentID, approvalID uuid.UUID) ([]CommentResponse, error)
}

type commentService struct {
	txm           repository.TransactionManager
	comments      repository.CommentRepository
	approvals     repository.ApprovalRepository
	documents     repository.DocumentRepository
	audit         repository.AuditRepository
	notifications NotificationService
}

func NewCommentService(
	txm repository.TransactionManager,
	comments repository.CommentRepository,
	approvals repository.ApprovalRepository,
	documents repository.DocumentRepository,
	audit repository.AuditRepository,
	notifications NotificationService,
) CommentService {
	return &commentService{
		txm:           txm,
		comments:      comments,
		approvals:     approvals,
		documents:     documents,
		audit:         audit,
		notifications: notifications,
	}
}

// --- Implementation ---

func (s *commentService) Attach(ctx context.Context, documentID, approvalID, authorID uuid.UUID, content string) (*CommentResponse, error) {
	var (
		comment model.Comment
		pending []model.Notification
	)

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		approval, err := s.approvals.GetByID(txCtx, approvalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: approval %s", ErrNotFound, approvalID)
			}
			return err
		}
		if approval.DocumentID != documentID {
			return fmt.Errorf("%w: approval %s does not belong to document %s", ErrNotFound, approvalID, documentID)
		}

		doc, err := s.documents.GetByID(txCtx, documentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: document %s", ErrNotFound, documentID)
			}
			return err
		}

		comment = model.Comment{
			DocumentID: documentID,
			ApprovalID: approvalID,
			AuthorID:   authorID,
			Content:    content,
		}
		if err := s.comments.Create(txCtx, &comment); err != nil {
			return err
		}

		entry := model.AuditLog{
			DocumentID: documentID,
			UserID:     &authorID,
			Action:     model.AuditCommented,
			Details:    fmt.Sprintf("comment on step %d", approval.SequenceOrder),
		}
		if err := s.audit.Log(txCtx, &entry); err != nil {
			return err
		}

		pending, err = s.notifications.DispatchComment(txCtx, doc, approval, authorID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Push(pending)

	resp := toCommentResponse(comment)
	return &resp, nil
}

func (s *commentService) ListForDocument(ctx context.Context, documentID uuid.UUID, page, limit int) ([]CommentResponse, int64, error) {
	comments, total, err := s.comments.ListForDocument(ctx, documentID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		result = append(result, toCommentResponse(c))
	}
	return result, total, nil
}

func (s *commentService) ListForApproval(ctx context.Context, documentID, approvalID uuid.UUID) ([]CommentResponse, error) {
	approval, err := s.approvals.GetByID(ctx, approvalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: approval %s", ErrNotFound, approvalID)
		}
		return nil, err
	}
	if approval.DocumentID != documentID {
		return nil, fmt.Errorf("%w: approval %s does not belong to document %s", ErrNotFound, approvalID, documentID)
	}

	comments, err := s.comments.ListForApproval(ctx, approvalID)
	if err != nil {
		return nil, err
	}

	result := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		result = append(result, toCommentResponse(c))
	}
	return result, nil
}

func toCommentResponse(c model.Comment) CommentResponse {
	resp := CommentResponse{
		ID:         c.ID.String(),
		DocumentID: c.DocumentID.String(),
		ApprovalID: c.ApprovalID.String(),
		AuthorID:   c.AuthorID.String(),
		Content:    c.Content,
		CreatedAt:  c.CreatedAt.Format(timeFormat),
	}
	if c.Author != nil {
		resp.AuthorName = c.Author.Username
	}
	return resp
}
