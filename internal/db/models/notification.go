package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notification represents a message delivered to one recipient within one
// tenant. The feed endpoint polls this table for rows newer than its
// checkpoint.
type Notification struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"tenant_id"`
	RecipientID uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipient_id"`
	Title       string     `gorm:"not null" json:"title"`
	Message     string     `json:"message,omitempty"`
	Link        string     `json:"link,omitempty"`
	Read        bool       `gorm:"default:false" json:"read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

// GetTenantID returns the owning tenant id.
func (n *Notification) GetTenantID() uuid.UUID { return n.TenantID }

// SetTenantID stamps the owning tenant id.
func (n *Notification) SetTenantID(id uuid.UUID) { n.TenantID = id }

// BeforeCreate hook to set UUID if not provided.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name.
func (Notification) TableName() string {
	return "notifications"
}
