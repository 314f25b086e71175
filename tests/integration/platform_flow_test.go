package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fluxio-platform/fluxio/internal/db"
	"github.com/fluxio-platform/fluxio/internal/db/models"
	"github.com/fluxio-platform/fluxio/internal/server/config"
	"github.com/fluxio-platform/fluxio/internal/server/web/api"
	"github.com/fluxio-platform/fluxio/internal/server/web/middleware"
	"github.com/fluxio-platform/fluxio/internal/tenant"
	"github.com/fluxio-platform/fluxio/pkg/utils"
)

const baseDomain = "platform.example"

// setupTestServer assembles the full HTTP stack the serve command builds:
// routes, CORS, request logging and security headers, backed by an
// in-memory database.
func setupTestServer(t *testing.T) (*gorm.DB, http.Handler) {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(database))

	// Platform superuser
	hashed, err := utils.HashPassword("root-pass")
	require.NoError(t, err)
	require.NoError(t, database.Create(&models.User{
		Email:    "root@platform.example",
		Password: hashed,
		Role:     models.RoleSuperuser,
		IsActive: true,
	}).Error)

	cfg := &config.Config{
		Server: config.ServerConfig{
			HTTPPort:   8080,
			BaseDomain: baseDomain,
		},
		Auth: config.AuthConfig{
			JWTSecret: "integration-test-secret",
		},
		Tenancy: config.TenancyConfig{
			DomainCacheTTL: tenant.DefaultCacheTTL,
		},
		Notifications: config.NotificationsConfig{
			PollInterval: 10 * time.Millisecond,
		},
		Logging: config.LoggingConfig{
			Level: "silent",
		},
	}

	cache := tenant.NewDomainCache(cfg.Tenancy.DomainCacheTTL)
	resolver := tenant.NewResolver(database, cache, cfg.Server.BaseDomain)

	mux := http.NewServeMux()
	api.NewHandler(database, cfg, cache, resolver).RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = api.CORSMiddleware(handler)
	handler = middleware.HTTPLoggerWithLevel(handler, cfg.Logging.Level)
	handler = middleware.SecurityHeaders(handler)

	return database, handler
}

func request(t *testing.T, handler http.Handler, method, path, host, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if host != "" {
		req.Host = host
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, handler http.Handler, email, password string) string {
	rec := request(t, handler, http.MethodPost, "/api/auth/login", "", "", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// TestPlatformFlow walks the whole lifecycle: provision a tenant and its
// users, book a space on the tenant host, approve the booking, and receive
// the resulting notification through the feed.
func TestPlatformFlow(t *testing.T) {
	database, handler := setupTestServer(t)

	rootToken := login(t, handler, "root@platform.example", "root-pass")

	// Superuser provisions the tenant
	rec := request(t, handler, http.MethodPost, "/api/tenants", "", rootToken, map[string]string{
		"name": "Acme Corp",
		"slug": "acme",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// ...and its users
	for _, u := range []map[string]string{
		{"email": "garcia@acme.test", "first_name": "Ana", "last_name": "Garcia", "password": "user-pass", "role": "USER"},
		{"email": "admin@acme.test", "first_name": "Luis", "last_name": "Mendez", "password": "admin-pass", "role": "ADMIN_RESERVATION"},
	} {
		rec = request(t, handler, http.MethodPost, "/api/tenants/"+created.ID+"/users", "", rootToken, u)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	host := "acme." + baseDomain
	userToken := login(t, handler, "garcia@acme.test", "user-pass")
	adminToken := login(t, handler, "admin@acme.test", "admin-pass")

	// Superuser provisions a space on the tenant host
	rec = request(t, handler, http.MethodPost, "/api/spaces", host, rootToken, map[string]interface{}{
		"name":     "Sala Magna",
		"capacity": 40,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var space models.Space
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &space))

	// Member books the space
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	rec = request(t, handler, http.MethodPost, "/api/reservations", host, userToken, map[string]interface{}{
		"space_id":   space.ID.String(),
		"subject":    "Town hall",
		"start_time": start.Format(time.RFC3339),
		"end_time":   start.Add(2 * time.Hour).Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reservation models.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reservation))
	datePart := time.Now().UTC().Format("060102")
	assert.Equal(t, fmt.Sprintf("%s_GARCIA_0001", datePart), reservation.DisplayID)

	// Admin approves it
	rec = request(t, handler, http.MethodPatch, "/api/reservations/"+reservation.ID.String()+"/status", host, adminToken, map[string]string{
		"status": "APPROVED",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The requester's notification list has the status change
	rec = request(t, handler, http.MethodGet, "/api/notifications", host, userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), reservation.DisplayID)
	assert.Contains(t, rec.Body.String(), "APPROVED")

	// Sanity: nothing about acme leaks into a second tenant
	rec = request(t, handler, http.MethodPost, "/api/tenants", "", rootToken, map[string]string{
		"name": "Globex",
		"slug": "globex",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = request(t, handler, http.MethodPost, "/api/tenants/"+mustTenantID(t, database, "globex")+"/users", "", rootToken, map[string]string{
		"email": "lopez@globex.test", "password": "user-pass", "role": "USER",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	globexToken := login(t, handler, "lopez@globex.test", "user-pass")
	rec = request(t, handler, http.MethodGet, "/api/reservations", "globex."+baseDomain, globexToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []models.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)
}

// TestStreamDeliversApproval runs the notification stream against a live
// approval happening on another goroutine.
func TestStreamDeliversApproval(t *testing.T) {
	database, handler := setupTestServer(t)

	acme := &models.Tenant{Name: "Acme", Slug: "acme"}
	require.NoError(t, database.Create(acme).Error)

	hashed, err := utils.HashPassword("user-pass")
	require.NoError(t, err)
	user := &models.User{
		Email: "garcia@acme.test", Password: hashed,
		FirstName: "Ana", LastName: "Garcia",
		Role: models.RoleUser, IsActive: true, TenantID: &acme.ID,
	}
	require.NoError(t, database.Create(user).Error)

	token := login(t, handler, "garcia@acme.test", "user-pass")
	host := "acme." + baseDomain

	// Insert the notification shortly after the stream opens
	go func() {
		time.Sleep(30 * time.Millisecond)
		database.Create(&models.Notification{
			TenantID:    acme.ID,
			RecipientID: user.ID,
			Title:       "Reservation approved",
			Message:     "Your reservation status changed to APPROVED",
		})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/stream", nil).WithContext(ctx)
	req.Host = host
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Reservation approved")
}

func mustTenantID(t *testing.T, database *gorm.DB, slug string) string {
	t.Helper()
	var tn models.Tenant
	require.NoError(t, database.Where("slug = ?", slug).First(&tn).Error)
	return tn.ID.String()
}
