package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReservationBeforeCreate tests UUID generation on reservation creation
func TestReservationBeforeCreate(t *testing.T) {
	db := setupTestDB(t)

	tenant := &Tenant{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(tenant).Error)

	user := &User{
		Email:    "user@acme.com",
		Password: "hashedpassword",
		LastName: "Garcia",
		TenantID: &tenant.ID,
	}
	require.NoError(t, db.Create(user).Error)

	res := &Reservation{
		TenantID:  tenant.ID,
		DisplayID: "250101_GARCIA_0001",
		UserID:    user.ID,
		Subject:   "Team meeting",
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(res).Error)

	assert.NotEqual(t, uuid.Nil, res.ID)
}

// TestReservationDefaultStatus tests the default lifecycle status
func TestReservationDefaultStatus(t *testing.T) {
	db := setupTestDB(t)

	tenant := &Tenant{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(tenant).Error)

	res := &Reservation{
		TenantID:  tenant.ID,
		DisplayID: "250101_USER_0001",
		UserID:    uuid.New(),
		StartTime: time.Now(),
		EndTime:   time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(res).Error)

	var loaded Reservation
	require.NoError(t, db.First(&loaded, res.ID).Error)
	assert.Equal(t, ReservationPending, loaded.Status)
}

// TestReservationCounterUniquePerTenantAndDate tests the composite unique key
func TestReservationCounterUniquePerTenantAndDate(t *testing.T) {
	db := setupTestDB(t)

	tenantA := uuid.New()
	tenantB := uuid.New()

	require.NoError(t, db.Create(&ReservationCounter{TenantID: tenantA, Date: "2025-01-01", LastNumber: 1}).Error)

	// Same tenant, same date must collide
	err := db.Create(&ReservationCounter{TenantID: tenantA, Date: "2025-01-01", LastNumber: 2}).Error
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")

	// Different tenant, same date is a distinct sequence
	require.NoError(t, db.Create(&ReservationCounter{TenantID: tenantB, Date: "2025-01-01", LastNumber: 1}).Error)

	// Same tenant, different date is a distinct sequence
	require.NoError(t, db.Create(&ReservationCounter{TenantID: tenantA, Date: "2025-01-02", LastNumber: 1}).Error)
}

// TestNotificationDefaults tests notification defaults and recipient scoping fields
func TestNotificationDefaults(t *testing.T) {
	db := setupTestDB(t)

	tenant := &Tenant{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(tenant).Error)

	n := &Notification{
		TenantID:    tenant.ID,
		RecipientID: uuid.New(),
		Title:       "Reservation approved",
	}
	require.NoError(t, db.Create(n).Error)

	var loaded Notification
	require.NoError(t, db.First(&loaded, n.ID).Error)
	assert.False(t, loaded.Read)
	assert.Nil(t, loaded.ReadAt)
	assert.NotZero(t, loaded.CreatedAt)
}
