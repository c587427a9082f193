package repository

import (
	"context"

	"docflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalRepository defines the interface for data access of Approval steps
type ApprovalRepository interface {
	CreateBatch(ctx context.Context, approvals []model.Approval) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Approval, error)
	ChainForDocument(ctx context.Context, documentID uuid.UUID) ([]model.Approval, error)
	// DecideIfPending applies updates to the step only while its status is
	// still PENDING and reports whether a row was written. A false return
	// means another writer decided the step first.
	DecideIfPending(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (bool, error)
	ResetToPending(ctx context.Context, ids []uuid.UUID) error
	PendingForApprover(ctx context.Context, approverID uuid.UUID, page, limit int) ([]model.Approval, int64, error)
}

type approvalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository returns a new instance of ApprovalRepository
func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) CreateBatch(ctx context.Context, approvals []model.Approval) error {
	return GetDB(ctx, r.db).Create(&approvals).Error
}

func (r *approvalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Approval, error) {
	var approval model.Approval
	if err := GetDB(ctx, r.db).First(&approval, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &approval, nil
}

func (r *approvalRepository) ChainForDocument(ctx context.Context, documentID uuid.UUID) ([]model.Approval, error) {
	var chain []model.Approval
	err := GetDB(ctx, r.db).
		Where("document_id = ?", documentID).
		Order("sequence_order ASC").
		Find(&chain).Error
	if err != nil {
		return nil, err
	}
	return chain, nil
}

func (r *approvalRepository) DecideIfPending(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Approval{}).
		Where("id = ? AND status = ?", id, model.ApprovalPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *approvalRepository) ResetToPending(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Model(&model.Approval{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": model.ApprovalPending, "approved_at": nil}).Error
}

// PendingForApprover lists the approver's PENDING steps on documents that
// are still open. Whether a step is currently actionable is decided by the
// service against the full chain, not here.
func (r *approvalRepository) PendingForApprover(ctx context.Context, approverID uuid.UUID, page, limit int) ([]model.Approval, int64, error) {
	var approvals []model.Approval
	var total int64

	db := GetDB(ctx, r.db)
	base := db.Model(&model.Approval{}).
		Joins("JOIN documents ON documents.id = approvals.document_id").
		Where("approvals.approver_id = ? AND approvals.status = ?", approverID, model.ApprovalPending).
		Where("documents.status IN ?", []string{model.DocStatusPending, model.DocStatusInProgress})

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := base.
		Preload("Document").
		Order("approvals.created_at ASC").
		Offset(offset).Limit(limit).
		Find(&approvals).Error
	if err != nil {
		return nil, 0, err
	}

	return approvals, total, nil
}
