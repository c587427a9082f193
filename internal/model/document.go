package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DocumentStatus enum constants (persisted, wire-stable).
// Status is always derived from the approval chain — never set by a client.
const (
	DocStatusPending           = "PENDING"
	DocStatusInProgress        = "IN_PROGRESS"
	DocStatusApproved          = "APPROVED"
	DocStatusRejected          = "REJECTED"
	DocStatusRevisionRequested = "REVISION_REQUESTED"
)

// Well-known document types. DocumentType is free-form; these are the
// values the frontend ships forms for.
const (
	DocTypeGeneral = "GENERAL"
	DocTypeCapex   = "CAPEX"
)

// Document is the unit of work moving through an approval chain.
type Document struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Title        string          `gorm:"type:varchar(255);not null" json:"title"`
	Description  string          `gorm:"type:text" json:"description"`
	DocumentType string          `gorm:"type:varchar(50);not null;default:'GENERAL';index" json:"document_type"`
	Amount       decimal.Decimal `gorm:"type:numeric(18,2);default:0" json:"amount"` // requested amount, zero when not applicable
	FileName     string          `gorm:"type:varchar(255)" json:"file_name"`
	FilePath     string          `gorm:"type:varchar(512)" json:"file_path"`
	FileSize     int64           `json:"file_size"`
	Status       string          `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	InitiatorID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"initiator_id"`
	Initiator    *User           `gorm:"foreignKey:InitiatorID" json:"initiator,omitempty"`
	TemplateID   *uuid.UUID      `gorm:"type:uuid;index" json:"template_id"`
	Approvals    []Approval      `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"approvals,omitempty"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
	CompletedAt  *time.Time      `json:"completed_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Terminal reports whether no further decisions are accepted on the document.
func (d *Document) Terminal() bool {
	return d.Status == DocStatusApproved || d.Status == DocStatusRejected
}
