package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role represents a user role within a tenant.
type Role string

const (
	RoleSuperuser        Role = "SUPERUSER"
	RoleAdminResource    Role = "ADMIN_RESOURCE"
	RoleAdminReservation Role = "ADMIN_RESERVATION"
	RoleVigilancia       Role = "VIGILANCIA"
	RoleCalendarViewer   Role = "CALENDAR_VIEWER"
	RoleUser             Role = "USER"
)

// User represents an authenticated user. TenantID is nil only for the
// platform superuser, which belongs to no tenant.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email     string     `gorm:"uniqueIndex;not null"`
	Password  string     `gorm:"not null"` // bcrypt hash
	FirstName string
	LastName  string
	Role      Role       `gorm:"type:varchar(32);default:'USER'"`
	IsActive  bool       `gorm:"default:true"`
	TenantID  *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Tenant        *Tenant        `gorm:"foreignKey:TenantID"`
	Reservations  []Reservation  `gorm:"foreignKey:UserID"`
	Notifications []Notification `gorm:"foreignKey:RecipientID"`
}

// BeforeCreate hook to set UUID if not provided
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}
