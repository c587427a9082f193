package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType enum constants (persisted, wire-stable)
const (
	NotifyApprovalRequest = "APPROVAL_REQUEST"
	NotifyApprovalAction  = "APPROVAL_ACTION"
	NotifyComment         = "COMMENT"
	NotifySystem          = "SYSTEM"
)

// Notification is a fire-and-forget record for a single user. Rows are
// created by the dispatcher inside the workflow transaction; out-of-band
// delivery (websocket push) happens after commit and is best-effort.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Type        string     `gorm:"type:varchar(30);not null;index" json:"type"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	DocumentID  *uuid.UUID `gorm:"type:uuid;index" json:"document_id"`
	Message     string     `gorm:"type:text;not null" json:"message"`
	Read        bool       `gorm:"not null;default:false;index" json:"read"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
