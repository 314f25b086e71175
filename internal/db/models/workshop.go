package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workshop represents a scheduled workshop with limited seats, owned by one tenant.
type Workshop struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description,omitempty"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Seats       int       `json:"seats"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetTenantID returns the owning tenant id.
func (w *Workshop) GetTenantID() uuid.UUID { return w.TenantID }

// SetTenantID stamps the owning tenant id.
func (w *Workshop) SetTenantID(id uuid.UUID) { w.TenantID = id }

// BeforeCreate hook to set UUID if not provided.
func (w *Workshop) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name.
func (Workshop) TableName() string {
	return "workshops"
}
