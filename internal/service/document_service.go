package service

import (
	"context"
	"errors"
	"fmt"

	"docflow/internal/model"
	"docflow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateDocumentRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	DocumentType string   `json:"document_type"`
	Amount       string   `json:"amount"` // decimal string, optional
	FileName     string   `json:"file_name"`
	FilePath     string   `json:"file_path"`
	FileSize     int64    `json:"file_size"`
	TemplateID   string   `json:"template_id"`  // either a template...
	ApproverIDs  []string `json:"approver_ids"` // ...or an ad-hoc approver sequence
}

type UpdateDocumentRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

type DocumentFilter struct {
	Status      string
	Type        string
	InitiatorID uuid.UUID
	Page        int
	Limit       int
}

type DocumentResponse struct {
	ID            string             `json:"id"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	DocumentType  string             `json:"document_type"`
	Amount        string             `json:"amount"`
	FileName      string             `json:"file_name,omitempty"`
	Status        string             `json:"status"`
	InitiatorID   string             `json:"initiator_id"`
	InitiatorName string             `json:"initiator_name,omitempty"`
	TemplateID    *string            `json:"template_id"`
	Approvals     []ApprovalResponse `json:"approvals,omitempty"`
	CreatedAt     string             `json:"created_at"`
	CompletedAt   *string            `json:"completed_at"`
}

// --- Interface ---

// DocumentService creates documents with their approval chain (the chain
// builder), exposes document queries, and owns resubmission after a
// revision request.
type DocumentService interface {
	CreateDocument(ctx context.Context, initiatorID uuid.UUID, req CreateDocumentRequest) (*DocumentResponse, error)
	GetDocument(ctx context.Context, id uuid.UUID) (*DocumentResponse, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]DocumentResponse, int64, error)
	UpdateDocument(ctx context.Context, id, actorID uuid.UUID, req UpdateDocumentRequest) (*DocumentResponse, error)
	// Resubmit reopens the revision-requesting step after the initiator
	// reworked the document. In-place: same document, same chain.
	Resubmit(ctx context.Context, id, actorID uuid.UUID) (*DocumentResponse, error)
}

type documentService struct {
	txm           repository.TransactionManager
	documents     repository.DocumentRepository
	approvals     repository.ApprovalRepository
	templates     TemplateService
	audit         repository.AuditRepository
	notifications NotificationService
}

func NewDocumentService(
	txm repository.TransactionManager,
	documents repository.DocumentRepository,
	approvals repository.ApprovalRepository,
	templates TemplateService,
	audit repository.AuditRepository,
	notifications NotificationService,
) DocumentService {
	return &documentService{
		txm:           txm,
		documents:     documents,
		approvals:     approvals,
		templates:     templates,
		audit:         audit,
		notifications: notifications,
	}
}

// --- Chain builder ---

// BuildChain materializes the ordered approval chain for a document. The
// sequence must be non-empty and may repeat an approver, but not on two
// consecutive steps. Sequence orders are dense, starting at SequenceBase.
func BuildChain(documentID uuid.UUID, approvers []uuid.UUID) ([]model.Approval, error) {
	if len(approvers) == 0 {
		return nil, fmt.Errorf("%w: document %s", ErrEmptyChain, documentID)
	}

	chain := make([]model.Approval, 0, len(approvers))
	for i, approverID := range approvers {
		if i > 0 && approvers[i-1] == approverID {
			return nil, fmt.Errorf("%w: %s at steps %d and %d",
				ErrDuplicateApprover, approverID, model.SequenceBase+i-1, model.SequenceBase+i)
		}
		chain = append(chain, model.Approval{
			DocumentID:    documentID,
			ApproverID:    approverID,
			SequenceOrder: model.SequenceBase + i,
			Status:        model.ApprovalPending,
		})
	}
	return chain, nil
}

// --- Implementation ---

func (s *documentService) CreateDocument(ctx context.Context, initiatorID uuid.UUID, req CreateDocumentRequest) (*DocumentResponse, error) {
	amount := decimal.Zero
	if req.Amount != "" {
		parsed, err := decimal.NewFromString(req.Amount)
		if err != nil {
			return nil, fmt.Errorf("invalid amount: %w", err)
		}
		amount = parsed
	}

	docType := req.DocumentType
	if docType == "" {
		docType = model.DocTypeGeneral
	}

	doc := model.Document{
		Title:        req.Title,
		Description:  req.Description,
		DocumentType: docType,
		Amount:       amount,
		FileName:     req.FileName,
		FilePath:     req.FilePath,
		FileSize:     req.FileSize,
		Status:       model.DocStatusPending,
		InitiatorID:  initiatorID,
	}

	var pending []model.Notification
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		approvers, templateID, err := s.resolveApprovers(txCtx, req)
		if err != nil {
			return err
		}
		doc.TemplateID = templateID

		if err := s.documents.Create(txCtx, &doc); err != nil {
			return err
		}

		chain, err := BuildChain(doc.ID, approvers)
		if err != nil {
			return err
		}
		if err := s.approvals.CreateBatch(txCtx, chain); err != nil {
			return err
		}

		entry := model.AuditLog{
			DocumentID: doc.ID,
			UserID:     &initiatorID,
			Action:     model.AuditCreated,
			Details:    fmt.Sprintf("document created with %d approval steps", len(chain)),
		}
		if err := s.audit.Log(txCtx, &entry); err != nil {
			return err
		}

		pending, err = s.notifications.DispatchChainCreated(txCtx, &doc, chain[0].ApproverID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Push(pending)

	return s.GetDocument(ctx, doc.ID)
}

// resolveApprovers yields the approver sequence, either from the template
// lookup or from the explicit list. Template steps come back ordered.
func (s *documentService) resolveApprovers(ctx context.Context, req CreateDocumentRequest) ([]uuid.UUID, *uuid.UUID, error) {
	if req.TemplateID != "" {
		templateID, err := uuid.Parse(req.TemplateID)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid template_id: %w", err)
		}
		approvers, err := s.templates.GetSteps(ctx, templateID)
		if err != nil {
			return nil, nil, err
		}
		return approvers, &templateID, nil
	}

	approvers := make([]uuid.UUID, 0, len(req.ApproverIDs))
	for _, raw := range req.ApproverIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid approver id %q: %w", raw, err)
		}
		approvers = append(approvers, id)
	}
	return approvers, nil, nil
}

func (s *documentService) GetDocument(ctx context.Context, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.documents.GetByIDWithChain(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: document %s", ErrNotFound, id)
		}
		return nil, err
	}
	resp := toDocumentResponse(*doc)
	return &resp, nil
}

func (s *documentService) ListDocuments(ctx context.Context, filter DocumentFilter) ([]DocumentResponse, int64, error) {
	docs, total, err := s.documents.List(ctx, repository.DocumentFilter{
		Status:      filter.Status,
		Type:        filter.Type,
		InitiatorID: filter.InitiatorID,
	}, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		result = append(result, toDocumentResponse(d))
	}
	return result, total, nil
}

func (s *documentService) UpdateDocument(ctx context.Context, id, actorID uuid.UUID, req UpdateDocumentRequest) (*DocumentResponse, error) {
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.documents.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: document %s", ErrNotFound, id)
			}
			return err
		}
		if doc.InitiatorID != actorID {
			return fmt.Errorf("%w: only the initiator may edit document %s", ErrNotAuthorized, id)
		}
		if doc.Terminal() {
			return fmt.Errorf("%w: document %s is %s", ErrAlreadyDecided, id, doc.Status)
		}

		if req.Title != "" {
			doc.Title = req.Title
		}
		if req.Description != "" {
			doc.Description = req.Description
		}
		if req.Amount != "" {
			amount, err := decimal.NewFromString(req.Amount)
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}
			doc.Amount = amount
		}
		if err := s.documents.Update(txCtx, doc); err != nil {
			return err
		}

		entry := model.AuditLog{
			DocumentID: id,
			UserID:     &actorID,
			Action:     model.AuditModified,
			Details:    "document metadata updated",
		}
		return s.audit.Log(txCtx, &entry)
	})
	if err != nil {
		return nil, err
	}

	return s.GetDocument(ctx, id)
}

func (s *documentService) Resubmit(ctx context.Context, id, actorID uuid.UUID) (*DocumentResponse, error) {
	var pending []model.Notification
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.documents.GetByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: document %s", ErrNotFound, id)
			}
			return err
		}
		if doc.InitiatorID != actorID {
			return fmt.Errorf("%w: only the initiator may resubmit document %s", ErrNotAuthorized, id)
		}
		if doc.Status != model.DocStatusRevisionRequested {
			return fmt.Errorf("%w: document %s is %s", ErrNotResubmittable, id, doc.Status)
		}

		chain, err := s.approvals.ChainForDocument(txCtx, id)
		if err != nil {
			return err
		}

		var revisionStep *model.Approval
		for i := range chain {
			if chain[i].Status == model.ApprovalRevisionRequested {
				revisionStep = &chain[i]
				break
			}
		}
		if revisionStep == nil {
			// Status said REVISION_REQUESTED but no step holds it; the
			// aggregator repairs this on the next recompute.
			return fmt.Errorf("%w: no revision-requesting step on document %s", ErrNotResubmittable, id)
		}

		if err := s.approvals.ResetToPending(txCtx, []uuid.UUID{revisionStep.ID}); err != nil {
			return err
		}

		// Derive the reopened status from the chain rather than assuming
		// IN_PROGRESS: a revision requested at step one leaves the chain
		// all-PENDING, and the document must agree with the aggregator.
		revisionStep.Status = model.ApprovalPending
		if err := s.documents.SetStatus(txCtx, id, AggregateStatus(chain), nil); err != nil {
			return err
		}

		entry := model.AuditLog{
			DocumentID: id,
			UserID:     &actorID,
			Action:     model.AuditModified,
			Details:    fmt.Sprintf("resubmitted after revision, step %d reopened", revisionStep.SequenceOrder),
		}
		if err := s.audit.Log(txCtx, &entry); err != nil {
			return err
		}

		pending, err = s.notifications.DispatchResubmitted(txCtx, doc, revisionStep)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifications.Push(pending)

	return s.GetDocument(ctx, id)
}

// --- Helpers ---

func toDocumentResponse(d model.Document) DocumentResponse {
	resp := DocumentResponse{
		ID:           d.ID.String(),
		Title:        d.Title,
		Description:  d.Description,
		DocumentType: d.DocumentType,
		Amount:       d.Amount.String(),
		FileName:     d.FileName,
		Status:       d.Status,
		InitiatorID:  d.InitiatorID.String(),
		CreatedAt:    d.CreatedAt.Format(timeFormat),
	}
	if d.Initiator != nil {
		resp.InitiatorName = d.Initiator.Username
	}
	if d.TemplateID != nil {
		s := d.TemplateID.String()
		resp.TemplateID = &s
	}
	if d.CompletedAt != nil {
		s := d.CompletedAt.Format(timeFormat)
		resp.CompletedAt = &s
	}
	for _, a := range d.Approvals {
		resp.Approvals = append(resp.Approvals, toApprovalResponse(a))
	}
	return resp
}
