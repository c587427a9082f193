package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docflow/internal/model"
	"docflow/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const timeFormat = time.RFC3339

// --- DTOs ---

type DecideRequest struct {
	Decision string `json:"decision" binding:"required,oneof=APPROVE REJECT REQUEST_REVISION"`
	Comment  string `json:"comment"`
}

type ApprovalResponse struct {
	ID            string  `json:"id"`
	DocumentID    string  `json:"document_id"`
	ApproverID    string  `json:"approver_id"`
	ApproverName  string  `json:"approver_name,omitempty"`
	SequenceOrder int     `json:"sequence_order"`
	Status        string  `json:"status"`
	ApprovedAt    *string `json:"approved_at"`
	CreatedAt     string  `json:"created_at"`
}

type PendingApprovalResponse struct {
	ApprovalResponse
	DocumentTitle  string `json:"document_title"`
	DocumentStatus string `json:"document_status"`
}

// --- Interface ---

// ApprovalService is the decision processor and status aggregator of the
// workflow engine. Decide applies one approver's decision to one step and
// cascades the document status recompute, the audit entry and the
// notifications in a single transaction.
type ApprovalService interface {
	Decide(ctx context.Context, documentID, approvalID, actorID uuid.UUID, req DecideRequest) (*ApprovalResponse, error)
	// Recompute re-derives the document status from its chain. Idempotent;
	// doubles as a consistency-repair tool.
	Recompute(ctx context.Context, documentID uuid.UUID) (string, error)
	ListPendingForApprover(ctx context.Context, approverID uuid.UUID, page, limit int) ([]PendingApprovalResponse, int64, error)
}

type approvalService struct {
	txm           repository.TransactionManager
	approvals     repository.ApprovalRepository
	documents     repository.DocumentRepository
	comments      repository.CommentRepository
	audit         repository.AuditRepository
	notifications NotificationService
}

func NewApprovalService(
	txm repository.TransactionManager,
	approvals repository.ApprovalRepository,
	documents repository.DocumentRepository,
	comments repository.CommentRepository,
	audit repository.AuditRepository,
	notifications NotificationService,
) ApprovalService {
	return &approvalService{
		txm:           txm,
		approvals:     approvals,
		documents:     documents,
		comments:      comments,
		audit:         audit,
		notifications: notifications,
	}
}

// --- Chain helpers ---

// CurrentActionable returns the single step of an ordered chain that is
// eligible to receive a decision, or nil. A step is actionable when it is
// PENDING and every step with a lower sequence_order is APPROVED. The
// actionable step is always derived from the chain, never cached, so it
// cannot drift from the per-step statuses.
func CurrentActionable(chain []model.Approval) *model.Approval {
	for i := range chain {
		switch chain[i].Status {
		case model.ApprovalApproved:
			continue
		case model.ApprovalPending:
			return &chain[i]
		default:
			// REJECTED or REVISION_REQUESTED blocks everything downstream.
			return nil
		}
	}
	return nil
}

// AggregateStatus derives the document status from its ordered chain,
// evaluated by precedence: any rejection wins, then any open revision
// request, then full approval. A chain nobody has touched yet is PENDING.
func AggregateStatus(chain []model.Approval) string {
	if len(chain) == 0 {
		return model.DocStatusPending
	}

	allApproved := true
	anyDecided := false
	for _, step := range chain {
		switch step.Status {
		case model.ApprovalRejected:
			return model.DocStatusRejected
		case model.ApprovalRevisionRequested:
			return model.DocStatusRevisionRequested
		case model.ApprovalApproved:
			anyDecided = true
		case model.ApprovalPending:
			allApproved = false
		}
	}

	if allApproved {
		return model.DocStatusApproved
	}
	if anyDecided {
		return model.DocStatusInProgress
	}
	return model.DocStatusPending
}

// --- Implementation ---

func (s *approvalService) Decide(ctx context.Context, documentID, approvalID, actorID uuid.UUID, req DecideRequest) (*ApprovalResponse, error) {
	targetStatus, auditAction, err := mapDecision(req.Decision)
	if err != nil {
		return nil, err
	}

	var (
		decided *model.Approval
		pending []model.Notification
	)

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
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

		if approval.ApproverID != actorID {
			return fmt.Errorf("%w: step %d of document %s belongs to %s",
				ErrNotAuthorized, approval.SequenceOrder, documentID, approval.ApproverID)
		}

		chain, err := s.approvals.ChainForDocument(txCtx, documentID)
		if err != nil {
			return err
		}

		actionable := CurrentActionable(chain)
		if actionable == nil || actionable.ID != approval.ID {
			if approval.Status != model.ApprovalPending {
				return fmt.Errorf("%w: step %d is %s", ErrAlreadyDecided, approval.SequenceOrder, approval.Status)
			}
			expected := "none"
			if actionable != nil {
				expected = fmt.Sprintf("step %d", actionable.SequenceOrder)
			}
			return fmt.Errorf("%w: step %d of document %s (current actionable: %s)",
				ErrOutOfSequence, approval.SequenceOrder, documentID, expected)
		}

		now := time.Now()
		updates := map[string]interface{}{"status": targetStatus}
		if targetStatus == model.ApprovalApproved {
			updates["approved_at"] = now
		}

		// Compare-and-swap on status=PENDING: a concurrent writer racing on
		// the same step loses here and observes AlreadyDecided.
		ok, err := s.approvals.DecideIfPending(txCtx, approval.ID, updates)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: step %d was decided concurrently", ErrAlreadyDecided, approval.SequenceOrder)
		}

		approval.Status = targetStatus
		if targetStatus == model.ApprovalApproved {
			approval.ApprovedAt = &now
		}
		for i := range chain {
			if chain[i].ID == approval.ID {
				chain[i] = *approval
			}
		}

		doc, err := s.documents.GetByID(txCtx, documentID)
		if err != nil {
			return err
		}

		if req.Comment != "" {
			comment := model.Comment{
				DocumentID: documentID,
				ApprovalID: approval.ID,
				AuthorID:   actorID,
				Content:    req.Comment,
			}
			if err := s.comments.Create(txCtx, &comment); err != nil {
				return err
			}
		}

		if err := s.recomputeChain(txCtx, doc, chain); err != nil {
			return err
		}

		details := fmt.Sprintf("step %d: %s", approval.SequenceOrder, req.Decision)
		if req.Comment != "" {
			details += ": " + req.Comment
		}
		entry := model.AuditLog{
			DocumentID: documentID,
			UserID:     &actorID,
			Action:     auditAction,
			Details:    details,
		}
		if err := s.audit.Log(txCtx, &entry); err != nil {
			return err
		}

		var next *model.Approval
		if targetStatus == model.ApprovalApproved {
			next = CurrentActionable(chain)
		}
		pending, err = s.notifications.DispatchStepDecided(txCtx, doc, approval, req.Decision, next)
		if err != nil {
			return err
		}

		decided = approval
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Out-of-band delivery only after the transaction committed.
	s.notifications.Push(pending)

	resp := toApprovalResponse(*decided)
	return &resp, nil
}

func (s *approvalService) Recompute(ctx context.Context, documentID uuid.UUID) (string, error) {
	var status string
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.documents.GetByID(txCtx, documentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: document %s", ErrNotFound, documentID)
			}
			return err
		}

		chain, err := s.approvals.ChainForDocument(txCtx, documentID)
		if err != nil {
			return err
		}

		if err := s.recomputeChain(txCtx, doc, chain); err != nil {
			return err
		}
		status = doc.Status
		return nil
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

// recomputeChain derives the document status from the chain and persists
// it, applying the revision reset rule: every step after a revision-
// requesting step returns to PENDING for re-review, while the revision
// step itself keeps its status until the initiator resubmits. Safe to call
// repeatedly; completed_at is only set the first time the chain completes.
func (s *approvalService) recomputeChain(ctx context.Context, doc *model.Document, chain []model.Approval) error {
	status := AggregateStatus(chain)

	if status == model.DocStatusRevisionRequested {
		var resetIDs []uuid.UUID
		past := false
		for _, step := range chain {
			if past && step.Status != model.ApprovalPending {
				resetIDs = append(resetIDs, step.ID)
			}
			if step.Status == model.ApprovalRevisionRequested {
				past = true
			}
		}
		if err := s.approvals.ResetToPending(ctx, resetIDs); err != nil {
			return err
		}
	}

	var completedAt *time.Time
	if status == model.DocStatusApproved && doc.CompletedAt == nil {
		now := time.Now()
		completedAt = &now
	}

	if doc.Status == status && completedAt == nil {
		return nil
	}

	if err := s.documents.SetStatus(ctx, doc.ID, status, completedAt); err != nil {
		return err
	}
	doc.Status = status
	if completedAt != nil {
		doc.CompletedAt = completedAt
	}
	return nil
}

func (s *approvalService) ListPendingForApprover(ctx context.Context, approverID uuid.UUID, page, limit int) ([]PendingApprovalResponse, int64, error) {
	approvals, total, err := s.approvals.PendingForApprover(ctx, approverID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]PendingApprovalResponse, 0, len(approvals))
	for _, a := range approvals {
		resp := PendingApprovalResponse{ApprovalResponse: toApprovalResponse(a)}
		if a.Document != nil {
			resp.DocumentTitle = a.Document.Title
			resp.DocumentStatus = a.Document.Status
		}
		result = append(result, resp)
	}
	return result, total, nil
}

// --- Helpers ---

func mapDecision(decision string) (status, auditAction string, err error) {
	switch decision {
	case DecisionApprove:
		return model.ApprovalApproved, model.AuditApproved, nil
	case DecisionReject:
		return model.ApprovalRejected, model.AuditRejected, nil
	case DecisionRequestRevision:
		return model.ApprovalRevisionRequested, model.AuditModified, nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrInvalidDecision, decision)
	}
}

func toApprovalResponse(a model.Approval) ApprovalResponse {
	resp := ApprovalResponse{
		ID:            a.ID.String(),
		DocumentID:    a.DocumentID.String(),
		ApproverID:    a.ApproverID.String(),
		SequenceOrder: a.SequenceOrder,
		Status:        a.Status,
		CreatedAt:     a.CreatedAt.Format(timeFormat),
	}
	if a.Approver != nil {
		resp.ApproverName = a.Approver.Username
	}
	if a.ApprovedAt != nil {
		s := a.ApprovedAt.Format(timeFormat)
		resp.ApprovedAt = &s
	}
	return resp
}
