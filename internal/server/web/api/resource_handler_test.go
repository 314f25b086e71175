package api

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxio-platform/fluxio/internal/db/models"
)

// TestCreateAndListSpaces tests space creation by a resource admin and
// member-visible listing
func TestCreateAndListSpaces(t *testing.T) {
	db, _, mux := setupAPITest(t)

	acme := &models.Tenant{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(acme).Error)
	createTestUser(t, db, "admin@acme.test", "admin-pass", models.RoleAdminResource, &acme.ID)
	createTestUser(t, db, "member@acme.test", "member-pass", models.RoleUser, &acme.ID)

	adminToken := loginAs(t, mux, "admin@acme.test", "admin-pass")
	memberToken := loginAs(t, mux, "member@acme.test", "member-pass")
	host := "acme." + testBaseDomain

	rec := doTenantJSON(t, mux, http.MethodPost, "/api/spaces", host, adminToken, CreateSpaceRequest{
		Name:     "Sala Magna",
		Capacity: 40,
		Location: "Building A",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var space models.Space
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &space))
	assert.Equal(t, acme.ID, space.TenantID)
	assert.True(t, space.IsActive)

	// Plain members can list but not create
	rec = doTenantJSON(t, mux, http.MethodPost, "/api/spaces", host, memberToken, CreateSpaceRequest{
		Name: "Rogue room",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doTenantJSON(t, mux, http.MethodGet, "/api/spaces", host, memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var spaces []models.Space
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spaces))
	require.Len(t, spaces, 1)
	assert.Equal(t, "Sala Magna", spaces[0].Name)
}

func TestCreateSpaceValidation(t *testing.T) {
	db, _, mux := setupAPITest(t)

	acme := &models.Tenant{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(acme).Error)
	createTestUser(t, db, "admin@acme.test", "admin-pass", models.RoleAdminResource, &acme.ID)
	token := loginAs(t, mux, "admin@acme.test", "admin-pass")
	host := "acme." + testBaseDomain

	rec := doTenantJSON(t, mux, http.MethodPost, "/api/spaces", host, token, CreateSpaceRequest{
		Capacity: 10,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestCreateEquipmentDefaultsQuantity tests that a missing quantity
// defaults to one
func TestCreateEquipmentDefaultsQuantity(t *testing.T) {
	db, _, mux := setupAPITest(t)

	acme := &models.Tenant{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(acme).Error)
	createTestUser(t, db, "admin@acme.test", "admin-pass", models.RoleAdminResource, &acme.ID)
	token := loginAs(t, mux, "admin@acme.test", "admin-pass")
	host := "acme." + testBaseDomain

	rec := doTenantJSON(t, mux, http.MethodPost, "/api/equipment", host, token, CreateEquipmentRequest{
		Name: "Projector",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var item models.Equipment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, acme.ID, item.TenantID)
}

func TestCreateWorkshopValidation(t *testing.T) {
	db, _, mux := setupAPITest(t)

	acme := &models.Tenant{Name: "Acme", Slug: "acme"}
	require.NoError(t, db.Create(acme).Error)
	createTestUser(t, db, "admin@acme.test", "admin-pass", models.RoleAdminResource, &acme.ID)
	token := loginAs(t, mux, "admin@acme.test", "admin-pass")
	host := "acme." + testBaseDomain

	start := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)

	// End before start is rejected
	rec := doTenantJSON(t, mux, http.MethodPost, "/api/workshops", host, token, CreateWorkshopRequest{
		Title:     "Go basics",
		StartTime: start,
		EndTime:   start.Add(-time.Hour),
		Seats:     20,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doTenantJSON(t, mux, http.MethodPost, "/api/workshops", host, token, CreateWorkshopRequest{
		Title:     "Go basics",
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Seats:     20,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var workshop models.Workshop
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &workshop))
	assert.Equal(t, "Go basics", workshop.Title)
	assert.Equal(t, acme.ID, workshop.TenantID)
}

// TestResourceListTenantIsolation tests that listings never leak another
// tenant's rows
func TestResourceListTenantIsolation(t *testing.T) {
	db, _, mux := setupAPITest(t)

	acme := &models.Tenant{Name: "Acme", Slug: "acme"}
	globex := &models.Tenant{Name: "Globex", Slug: "globex"}
	require.NoError(t, db.Create(acme).Error)
	require.NoError(t, db.Create(globex).Error)

	require.NoError(t, db.Create(&models.Space{TenantID: acme.ID, Name: "Acme room", IsActive: true}).Error)
	require.NoError(t, db.Create(&models.Space{TenantID: globex.ID, Name: "Globex room", IsActive: true}).Error)

	createTestUser(t, db, "member@globex.test", "member-pass", models.RoleUser, &globex.ID)
	token := loginAs(t, mux, "member@globex.test", "member-pass")

	rec := doTenantJSON(t, mux, http.MethodGet, "/api/spaces", "globex."+testBaseDomain, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var spaces []models.Space
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &spaces))
	require.Len(t, spaces, 1)
	assert.Equal(t, "Globex room", spaces[0].Name)
}
