package repository

import (
	"context"
	"time"

	"docflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	Status      string    // empty for all
	InitiatorID uuid.UUID // uuid.Nil for all
	Type        string    // empty for all
}

// DocumentRepository defines the interface for data access of Document entities
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Document, error)
	GetByIDWithChain(ctx context.Context, id uuid.UUID) (*model.Document, error)
	List(ctx context.Context, filter DocumentFilter, page, limit int) ([]model.Document, int64, error)
	Update(ctx context.Context, doc *model.Document) error
	SetStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository returns a new instance of DocumentRepository
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Create(doc).Error
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	if err := GetDB(ctx, r.db).First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) GetByIDWithChain(ctx context.Context, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	err := GetDB(ctx, r.db).
		Preload("Initiator").
		Preload("Approvals", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order ASC")
		}).
		Preload("Approvals.Approver").
		First(&doc, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) List(ctx context.Context, filter DocumentFilter, page, limit int) ([]model.Document, int64, error) {
	var docs []model.Document
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Document{})
	query = applyDocumentFilter(query, filter)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := applyDocumentFilter(db.Preload("Initiator"), filter)
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}

func applyDocumentFilter(db *gorm.DB, filter DocumentFilter) *gorm.DB {
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.InitiatorID != uuid.Nil {
		db = db.Where("initiator_id = ?", filter.InitiatorID)
	}
	if filter.Type != "" {
		db = db.Where("document_type = ?", filter.Type)
	}
	return db
}

func (r *documentRepository) Update(ctx context.Context, doc *model.Document) error {
	return GetDB(ctx, r.db).Save(doc).Error
}

// SetStatus writes the derived status (and completed_at) without touching
// any client-settable column. Only the aggregator calls this.
func (r *documentRepository) SetStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if completedAt != nil {
		updates["completed_at"] = completedAt
	}
	return GetDB(ctx, r.db).Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error
}
