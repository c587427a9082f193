package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction enum constants (persisted, wire-stable)
const (
	AuditCreated   = "CREATED"
	AuditApproved  = "APPROVED"
	AuditRejected  = "REJECTED"
	AuditCommented = "COMMENTED"
	AuditModified  = "MODIFIED"
)

// AuditLog tracks Who, What, and When for every state-changing operation
// on a document. Append-only: rows are never updated or deleted. The
// auto-increment primary key gives a total insertion order, so reading
// back ordered by created_at then id reconstructs the exact decision
// history even for same-timestamp writes.
type AuditLog struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID uuid.UUID  `gorm:"type:uuid;not null;index" json:"document_id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nil for system-initiated entries
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(20);not null;index" json:"action"`
	Details    string     `gorm:"type:text" json:"details"` // free text, e.g. rejection reason
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
}
