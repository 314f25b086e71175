package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Equipment represents a reservable equipment item belonging to one tenant.
type Equipment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description,omitempty"`
	Quantity    int       `gorm:"default:1" json:"quantity"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GetTenantID returns the owning tenant id.
func (e *Equipment) GetTenantID() uuid.UUID { return e.TenantID }

// SetTenantID stamps the owning tenant id.
func (e *Equipment) SetTenantID(id uuid.UUID) { e.TenantID = id }

// BeforeCreate hook to set UUID if not provided.
func (e *Equipment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name.
func (Equipment) TableName() string {
	return "equipment"
}
