package repository

import (
	"context"

	"docflow/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TemplateRepository defines the interface for data access of Template entities
type TemplateRepository interface {
	Create(ctx context.Context, template *model.Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Template, error)
	GetByIDWithSteps(ctx context.Context, id uuid.UUID) (*model.Template, error)
	List(ctx context.Context, page, limit int) ([]model.Template, int64, error)
}

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository returns a new instance of TemplateRepository
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, template *model.Template) error {
	return GetDB(ctx, r.db).Create(template).Error
}

func (r *templateRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	var template model.Template
	if err := GetDB(ctx, r.db).First(&template, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) GetByIDWithSteps(ctx context.Context, id uuid.UUID) (*model.Template, error) {
	var template model.Template
	err := GetDB(ctx, r.db).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order ASC")
		}).
		Preload("Steps.Approver").
		First(&template, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *templateRepository) List(ctx context.Context, page, limit int) ([]model.Template, int64, error) {
	var templates []model.Template
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Template{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).Order("created_at DESC").Offset(offset).Limit(limit).Find(&templates).Error
	if err != nil {
		return nil, 0, err
	}

	return templates, total, nil
}
