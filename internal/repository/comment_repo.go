package repository

import (
	"context"

	"docflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for data access of Comment entities
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListForDocument(ctx context.Context, documentID uuid.UUID, page, limit int) ([]model.Comment, int64, error)
	ListForApproval(ctx context.Context, approvalID uuid.UUID) ([]model.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a new instance of CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	return GetDB(ctx, r.db).Create(comment).Error
}

func (r *commentRepository) ListForDocument(ctx context.Context, documentID uuid.UUID, page, limit int) ([]model.Comment, int64, error) {
	var comments []model.Comment
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Comment{}).Where("document_id = ?", documentID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Preload("Author").
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Offset(offset).Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}

	return comments, total, nil
}

func (r *commentRepository) ListForApproval(ctx context.Context, approvalID uuid.UUID) ([]model.Comment, error) {
	var comments []model.Comment
	err := GetDB(ctx, r.db).Preload("Author").
		Where("approval_id = ?", approvalID).
		Order("created_at ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}
