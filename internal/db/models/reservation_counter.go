package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationCounter holds the last issued display-ID sequence number for
// one tenant on one calendar day (UTC, "YYYY-MM-DD"). Rows are created
// lazily on first use per day and never deleted. LastNumber is only ever
// read and incremented inside a serialized transaction.
type ReservationCounter struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_counter_tenant_date"`
	Date       string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_counter_tenant_date"`
	LastNumber int       `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GetTenantID returns the owning tenant id.
func (c *ReservationCounter) GetTenantID() uuid.UUID { return c.TenantID }

// SetTenantID stamps the owning tenant id.
func (c *ReservationCounter) SetTenantID(id uuid.UUID) { c.TenantID = id }

// BeforeCreate hook to set UUID if not provided.
func (c *ReservationCounter) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name.
func (ReservationCounter) TableName() string {
	return "reservation_counters"
}
