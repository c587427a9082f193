package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApprovalStatus enum constants (persisted, wire-stable)
const (
	ApprovalPending           = "PENDING"
	ApprovalApproved          = "APPROVED"
	ApprovalRejected          = "REJECTED"
	ApprovalRevisionRequested = "REVISION_REQUESTED"
)

// SequenceBase is the sequence_order of the first step in every chain.
const SequenceBase = 1

// Approval is one step in a document's approval chain. Steps are decided
// strictly in sequence_order; a step is mutated exactly once per terminal
// decision (re-decision is rejected, except after a revision reset).
type Approval struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_doc_seq,priority:1" json:"document_id"`
	Document      *Document  `gorm:"foreignKey:DocumentID" json:"-"`
	ApproverID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"approver_id"`
	Approver      *User      `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
	SequenceOrder int        `gorm:"not null;uniqueIndex:idx_doc_seq,priority:2" json:"sequence_order"`
	Status        string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	ApprovedAt    *time.Time `json:"approved_at"` // set only on APPROVE
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Approval) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// TerminalStep reports whether the step has received a decision that does
// not automatically transition further. REVISION_REQUESTED counts: it only
// leaves that state through an explicit resubmission.
func (a *Approval) TerminalStep() bool {
	return a.Status != ApprovalPending
}
