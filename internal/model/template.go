package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Template is a reusable ordered list of approvers, consumed only when a
// chain is stamped out at document creation. The workflow engine never
// mutates it afterward.
type Template struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Steps       []TemplateStep `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"steps,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TemplateStep is one entry of a template's approver sequence.
type TemplateStep struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_tpl_seq,priority:1" json:"template_id"`
	ApproverID    uuid.UUID `gorm:"type:uuid;not null" json:"approver_id"`
	Approver      *User     `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	SequenceOrder int       `gorm:"not null;uniqueIndex:idx_tpl_seq,priority:2" json:"sequence_order"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (s *TemplateStep) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
