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

type CreateTemplateRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	ApproverIDs []string `json:"approver_ids" binding:"required,min=1"`
}

type TemplateStepResponse struct {
	ApproverID    string `json:"approver_id"`
	ApproverName  string `json:"approver_name,omitempty"`
	SequenceOrder int    `json:"sequence_order"`
}

type TemplateResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Steps       []TemplateStepResponse `json:"steps"`
	CreatedAt   string                 `json:"created_at"`
}

// --- Interface ---

// TemplateService manages reusable approver sequences. GetSteps is the
// read-only lookup the chain builder consumes.
type TemplateService interface {
	CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*TemplateResponse, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*TemplateResponse, error)
	ListTemplates(ctx context.Context, page, limit int) ([]TemplateResponse, int64, error)
	GetSteps(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
}

type templateService struct {
	repo repository.TemplateRepository
}

// NewTemplateService returns a new instance of TemplateService
func NewTemplateService(repo repository.TemplateRepository) TemplateService {
	return &templateService{repo: repo}
}

// --- Implementation ---

func (s *templateService) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*TemplateResponse, error) {
	if len(req.ApproverIDs) == 0 {
		return nil, fmt.Errorf("%w: template %q", ErrInvalidTemplate, req.Name)
	}

	template := model.Template{
		Name:        req.Name,
		Description: req.Description,
	}
	for i, raw := range req.ApproverIDs {
		approverID, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid approver id %q: %w", raw, err)
		}
		template.Steps = append(template.Steps, model.TemplateStep{
			ApproverID:    approverID,
			SequenceOrder: model.SequenceBase + i,
		})
	}

	if err := s.repo.Create(ctx, &template); err != nil {
		return nil, err
	}

	return s.GetTemplate(ctx, template.ID)
}

func (s *templateService) GetTemplate(ctx context.Context, id uuid.UUID) (*TemplateResponse, error) {
	template, err := s.repo.GetByIDWithSteps(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: template %s", ErrNotFound, id)
		}
		return nil, err
	}
	resp := toTemplateResponse(*template)
	return &resp, nil
}

func (s *templateService) ListTemplates(ctx context.Context, page, limit int) ([]TemplateResponse, int64, error) {
	templates, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		result = append(result, toTemplateResponse(t))
	}
	return result, total, nil
}

func (s *templateService) GetSteps(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	template, err := s.repo.GetByIDWithSteps(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: template %s", ErrNotFound, id)
		}
		return nil, err
	}
	if len(template.Steps) == 0 {
		return nil, fmt.Errorf("%w: template %s", ErrInvalidTemplate, id)
	}

	approvers := make([]uuid.UUID, 0, len(template.Steps))
	for _, step := range template.Steps {
		approvers = append(approvers, step.ApproverID)
	}
	return approvers, nil
}

func toTemplateResponse(t model.Template) TemplateResponse {
	resp := TemplateResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		CreatedAt:   t.CreatedAt.Format(timeFormat),
	}
	for _, step := range t.Steps {
		stepResp := TemplateStepResponse{
			ApproverID:    step.ApproverID.String(),
			SequenceOrder: step.SequenceOrder,
		}
		if step.Approver != nil {
			stepResp.ApproverName = step.Approver.Username
		}
		resp.Steps = append(resp.Steps, stepResp)
	}
	return resp
}
