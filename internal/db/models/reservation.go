package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationStatus represents the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationApproved  ReservationStatus = "APPROVED"
	ReservationRejected  ReservationStatus = "REJECTED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Reservation represents a booking of a space or equipment item.
// DisplayID is the human-readable identifier ({YYMMDD}_{LASTNAME}_{NNNN})
// assigned at creation time.
type Reservation struct {
	ID            uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID         `gorm:"type:uuid;not null;index" json:"tenant_id"`
	DisplayID     string            `gorm:"not null;index" json:"display_id"`
	UserID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	SpaceID       *uuid.UUID        `gorm:"type:uuid;index" json:"space_id,omitempty"`
	EquipmentID   *uuid.UUID        `gorm:"type:uuid;index" json:"equipment_id,omitempty"`
	Subject       string            `json:"subject,omitempty"`
	Justification string            `json:"justification,omitempty"`
	StartTime     time.Time         `gorm:"not null;index" json:"start_time"`
	EndTime       time.Time         `gorm:"not null" json:"end_time"`
	Status        ReservationStatus `gorm:"type:varchar(16);default:'PENDING'" json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`

	// Relationships
	User      User       `gorm:"foreignKey:UserID" json:"-"`
	Space     *Space     `gorm:"foreignKey:SpaceID" json:"-"`
	Equipment *Equipment `gorm:"foreignKey:EquipmentID" json:"-"`
}

// GetTenantID returns the owning tenant id.
func (r *Reservation) GetTenantID() uuid.UUID { return r.TenantID }

// SetTenantID stamps the owning tenant id.
func (r *Reservation) SetTenantID(id uuid.UUID) { r.TenantID = id }

// BeforeCreate hook to set UUID if not provided.
func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name.
func (Reservation) TableName() string {
	return "reservations"
}
