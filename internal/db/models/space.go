package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Space represents a reservable physical space belonging to one tenant.
type Space struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description,omitempty"`
	Capacity    int       `json:"capacity"`
	Location    string    `json:"location,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetTenantID returns the owning tenant id.
func (s *Space) GetTenantID() uuid.UUID { return s.TenantID }

// SetTenantID stamps the owning tenant id.
func (s *Space) SetTenantID(id uuid.UUID) { s.TenantID = id }

// BeforeCreate hook to set UUID if not provided.
func (s *Space) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name.
func (Space) TableName() string {
	return "spaces"
}
