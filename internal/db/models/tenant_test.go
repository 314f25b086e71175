package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&Tenant{}, &User{}, &Space{}, &Equipment{}, &Workshop{},
		&Reservation{}, &ReservationCounter{}, &Notification{},
	)
	require.NoError(t, err)

	return db
}

// TestTenantBeforeCreate tests UUID generation on tenant creation
func TestTenantBeforeCreate(t *testing.T) {
	db := setupTestDB(t)

	tenant := &Tenant{
		Name: "Acme Corp",
		Slug: "acme",
	}

	err := db.Create(tenant).Error
	require.NoError(t, err)

	// UUID should be auto-generated
	assert.NotEqual(t, uuid.Nil, tenant.ID)
}

// TestTenantBeforeCreate_WithProvidedID tests that provided UUID is preserved
func TestTenantBeforeCreate_WithProvidedID(t *testing.T) {
	db := setupTestDB(t)

	providedID := uuid.New()
	tenant := &Tenant{
		ID:   providedID,
		Name: "Acme Corp",
		Slug: "acme",
	}

	err := db.Create(tenant).Error
	require.NoError(t, err)

	assert.Equal(t, providedID, tenant.ID)
}

// TestTenantUniqueSlug tests slug uniqueness constraint
func TestTenantUniqueSlug(t *testing.T) {
	db := setupTestDB(t)

	err := db.Create(&Tenant{Name: "One", Slug: "acme"}).Error
	require.NoError(t, err)

	err = db.Create(&Tenant{Name: "Two", Slug: "acme"}).Error
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}

// TestTenantUniqueCustomDomain tests custom domain uniqueness constraint
func TestTenantUniqueCustomDomain(t *testing.T) {
	db := setupTestDB(t)

	domain := "acme.com"
	err := db.Create(&Tenant{Name: "One", Slug: "acme", CustomDomain: &domain}).Error
	require.NoError(t, err)

	other := "acme.com"
	err = db.Create(&Tenant{Name: "Two", Slug: "other", CustomDomain: &other}).Error
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "UNIQUE constraint failed")
}

// TestTenantNilCustomDomains tests that multiple tenants may omit a custom domain
func TestTenantNilCustomDomains(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Create(&Tenant{Name: "One", Slug: "one"}).Error)
	require.NoError(t, db.Create(&Tenant{Name: "Two", Slug: "two"}).Error)
}

// TestTenantDefaultValues tests default values
func TestTenantDefaultValues(t *testing.T) {
	db := setupTestDB(t)

	tenant := &Tenant{Name: "Defaults", Slug: "defaults"}
	require.NoError(t, db.Create(tenant).Error)

	var loaded Tenant
	require.NoError(t, db.First(&loaded, tenant.ID).Error)

	assert.True(t, loaded.IsActive, "IsActive should default to true")
	assert.Nil(t, loaded.CustomDomain)
}

// TestTenantWithUsers tests user relationships
func TestTenantWithUsers(t *testing.T) {
	db := setupTestDB(t)

	tenant := &Tenant{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(tenant).Error)

	user1 := &User{
		Email:    "user1@acme.com",
		Password: "hashedpassword",
		LastName: "Garcia",
		Role:     RoleUser,
		TenantID: &tenant.ID,
	}
	require.NoError(t, db.Create(user1).Error)

	user2 := &User{
		Email:    "admin@acme.com",
		Password: "hashedpassword",
		LastName: "Lopez",
		Role:     RoleAdminResource,
		TenantID: &tenant.ID,
	}
	require.NoError(t, db.Create(user2).Error)

	var loaded Tenant
	require.NoError(t, db.Preload("Users").First(&loaded, tenant.ID).Error)

	assert.Len(t, loaded.Users, 2)
	assert.Equal(t, "Acme", loaded.Name)
}
