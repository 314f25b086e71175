package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Tenant represents an isolated organization partition of the platform.
// Slug routes subdomain traffic (e.g. "acme" for acme.fluxio.mx); CustomDomain,
// when set, is a second unique lookup key for tenant resolution.
type Tenant struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Slug         string         `gorm:"uniqueIndex;not null" json:"slug"`
	CustomDomain *string        `gorm:"uniqueIndex" json:"custom_domain,omitempty"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	Config       datatypes.JSON `json:"config,omitempty"` // branding/site configuration
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	// Relationships
	Users        []User        `gorm:"foreignKey:TenantID" json:"-"`
	Spaces       []Space       `gorm:"foreignKey:TenantID" json:"-"`
	Equipment    []Equipment   `gorm:"foreignKey:TenantID" json:"-"`
	Workshops    []Workshop    `gorm:"foreignKey:TenantID" json:"-"`
	Reservations []Reservation `gorm:"foreignKey:TenantID" json:"-"`
}

// BeforeCreate hook to set UUID if not provided.
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name.
func (Tenant) TableName() string {
	return "tenants"
}
