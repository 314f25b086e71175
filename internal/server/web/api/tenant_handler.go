package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/fluxio-platform/fluxio/internal/db/models"
	"github.com/fluxio-platform/fluxio/internal/tenant"
	"github.com/fluxio-platform/fluxio/pkg/logger"
	"github.com/fluxio-platform/fluxio/pkg/utils"
)

// TenantHandler handles tenant management API requests
type TenantHandler struct {
	db         *gorm.DB
	cache      *tenant.DomainCache
	baseDomain string
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(db *gorm.DB, cache *tenant.DomainCache, baseDomain string) *TenantHandler {
	return &TenantHandler{
		db:         db,
		cache:      cache,
		baseDomain: baseDomain,
	}
}

// DTOs for tenant management

type CreateTenantRequest struct {
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	CustomDomain *string `json:"custom_domain,omitempty"`
}

type UpdateTenantRequest struct {
	Name         *string `json:"name,omitempty"`
	CustomDomain *string `json:"custom_domain,omitempty"`
	ClearDomain  bool    `json:"clear_domain,omitempty"`
}

type CreateTenantUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type TenantResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Subdomain    string  `json:"subdomain"`
	CustomDomain *string `json:"custom_domain,omitempty"`
	IsActive     bool    `json:"is_active"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// toResponse converts a Tenant model to TenantResponse
func (h *TenantHandler) toResponse(t *models.Tenant) TenantResponse {
	return TenantResponse{
		ID:           t.ID.String(),
		Name:         t.Name,
		Slug:         t.Slug,
		Subdomain:    fmt.Sprintf("%s.%s", t.Slug, h.baseDomain),
		CustomDomain: t.CustomDomain,
		IsActive:     t.IsActive,
		CreatedAt:    t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    t.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// CreateTenant creates a new tenant
func (h *TenantHandler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Name == "" || req.Slug == "" {
		respondError(w, http.StatusBadRequest, "Name and slug are required")
		return
	}

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	if utils.IsReservedSlug(slug) {
		respondError(w, http.StatusBadRequest, "Slug is reserved")
		return
	}
	if !utils.IsValidSlug(slug) {
		respondError(w, http.StatusBadRequest, "Invalid slug format (2-63 chars, lowercase alphanumeric and hyphens)")
		return
	}

	var existing models.Tenant
	if err := h.db.Where("slug = ?", slug).First(&existing).Error; err == nil {
		respondError(w, http.StatusConflict, "Tenant slug already taken")
		return
	}

	t := &models.Tenant{
		Name:     req.Name,
		Slug:     slug,
		IsActive: true,
	}

	if req.CustomDomain != nil {
		domain := utils.NormalizeHost(*req.CustomDomain)
		if domain == "" {
			respondError(w, http.StatusBadRequest, "Invalid custom domain")
			return
		}
		if err := h.db.Where("custom_domain = ?", domain).First(&existing).Error; err == nil {
			respondError(w, http.StatusConflict, "Custom domain already taken")
			return
		}
		t.CustomDomain = &domain
	}

	if err := h.db.Create(t).Error; err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to create tenant")
		respondError(w, http.StatusInternalServerError, "Failed to create tenant")
		return
	}

	logger.InfoEvent().
		Str("tenant_id", t.ID.String()).
		Str("slug", t.Slug).
		Msg("Tenant created")

	respondJSON(w, http.StatusCreated, h.toResponse(t))
}

// ListTenants lists all tenants
func (h *TenantHandler) ListTenants(w http.ResponseWriter, r *http.Request) {
	var tenants []models.Tenant
	if err := h.db.Order("created_at ASC").Find(&tenants).Error; err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to list tenants")
		respondError(w, http.StatusInternalServerError, "Failed to list tenants")
		return
	}

	responses := make([]TenantResponse, len(tenants))
	for i, t := range tenants {
		responses[i] = h.toResponse(&t)
	}

	respondJSON(w, http.StatusOK, responses)
}

// GetTenant gets a single tenant by ID
func (h *TenantHandler) GetTenant(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTenant(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.toResponse(t))
}

// UpdateTenant updates a tenant's name or custom domain. Domain changes
// invalidate both the old and the new cache entry so a moved domain cannot
// keep resolving to its previous owner for a cache TTL.
func (h *TenantHandler) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTenant(w, r)
	if !ok {
		return
	}

	var req UpdateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}

	oldDomain := ""
	if t.CustomDomain != nil {
		oldDomain = *t.CustomDomain
	}
	newDomain := ""

	switch {
	case req.ClearDomain:
		updates["custom_domain"] = nil
	case req.CustomDomain != nil:
		newDomain = utils.NormalizeHost(*req.CustomDomain)
		if newDomain == "" {
			respondError(w, http.StatusBadRequest, "Invalid custom domain")
			return
		}
		var existing models.Tenant
		err := h.db.Where("custom_domain = ? AND id != ?", newDomain, t.ID).First(&existing).Error
		if err == nil {
			respondError(w, http.StatusConflict, "Custom domain already taken")
			return
		}
		updates["custom_domain"] = newDomain
	}

	if len(updates) == 0 {
		respondJSON(w, http.StatusOK, h.toResponse(t))
		return
	}

	if err := h.db.Model(t).Updates(updates).Error; err != nil {
		logger.ErrorEvent().Err(err).Str("tenant_id", t.ID.String()).Msg("Failed to update tenant")
		respondError(w, http.StatusInternalServerError, "Failed to update tenant")
		return
	}

	if _, touched := updates["custom_domain"]; touched && h.cache != nil {
		if oldDomain != "" {
			h.cache.Invalidate(oldDomain)
		}
		if newDomain != "" {
			h.cache.Invalidate(newDomain)
		}
	}

	logger.InfoEvent().
		Str("tenant_id", t.ID.String()).
		Str("slug", t.Slug).
		Msg("Tenant updated")

	respondJSON(w, http.StatusOK, h.toResponse(t))
}

// ToggleTenant flips a tenant's active flag. Deactivation also drops the
// tenant's custom domain from the cache so suspended tenants stop resolving
// immediately rather than after the TTL.
func (h *TenantHandler) ToggleTenant(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTenant(w, r)
	if !ok {
		return
	}

	newState := !t.IsActive
	if err := h.db.Model(t).Update("is_active", newState).Error; err != nil {
		logger.ErrorEvent().Err(err).Str("tenant_id", t.ID.String()).Msg("Failed to toggle tenant")
		respondError(w, http.StatusInternalServerError, "Failed to toggle tenant")
		return
	}
	t.IsActive = newState

	if !newState && t.CustomDomain != nil && h.cache != nil {
		h.cache.Invalidate(*t.CustomDomain)
	}

	logger.InfoEvent().
		Str("tenant_id", t.ID.String()).
		Str("slug", t.Slug).
		Bool("is_active", newState).
		Msg("Tenant toggled")

	respondJSON(w, http.StatusOK, h.toResponse(t))
}

// DeleteTenant deletes a tenant
func (h *TenantHandler) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTenant(w, r)
	if !ok {
		return
	}

	if err := h.db.Delete(t).Error; err != nil {
		logger.ErrorEvent().Err(err).Str("tenant_id", t.ID.String()).Msg("Failed to delete tenant")
		respondError(w, http.StatusInternalServerError, "Failed to delete tenant")
		return
	}

	if t.CustomDomain != nil && h.cache != nil {
		h.cache.Invalidate(*t.CustomDomain)
	}

	logger.InfoEvent().
		Str("tenant_id", t.ID.String()).
		Str("slug", t.Slug).
		Msg("Tenant deleted")

	respondJSON(w, http.StatusOK, map[string]string{"message": "Tenant deleted"})
}

// CreateTenantUser creates a user inside a tenant
func (h *TenantHandler) CreateTenantUser(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTenant(w, r)
	if !ok {
		return
	}

	var req CreateTenantUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	role := models.Role(req.Role)
	switch role {
	case models.RoleAdminResource, models.RoleAdminReservation,
		models.RoleVigilancia, models.RoleCalendarViewer, models.RoleUser:
	case "":
		role = models.RoleUser
	default:
		respondError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to hash password")
		respondError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	user := &models.User{
		Email:     req.Email,
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
		IsActive:  true,
		TenantID:  &t.ID,
	}

	if err := h.db.Create(user).Error; err != nil {
		logger.ErrorEvent().Err(err).Str("email", req.Email).Msg("Failed to create tenant user")
		respondError(w, http.StatusConflict, "User with this email already exists")
		return
	}

	logger.InfoEvent().
		Str("user_id", user.ID.String()).
		Str("tenant_id", t.ID.String()).
		Str("role", string(role)).
		Msg("Tenant user created")

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       user.Role,
		"tenant_id":  t.ID,
	})
}

// ListTenantUsers lists users belonging to a tenant
func (h *TenantHandler) ListTenantUsers(w http.ResponseWriter, r *http.Request) {
	t, ok := h.loadTenant(w, r)
	if !ok {
		return
	}

	var users []models.User
	if err := h.db.Where("tenant_id = ?", t.ID).Order("created_at ASC").Find(&users).Error; err != nil {
		logger.ErrorEvent().Err(err).Str("tenant_id", t.ID.String()).Msg("Failed to list tenant users")
		respondError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}

	type userResponse struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
		IsActive  bool   `json:"is_active"`
	}

	responses := make([]userResponse, len(users))
	for i, u := range users {
		responses[i] = userResponse{
			ID:        u.ID.String(),
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      string(u.Role),
			IsActive:  u.IsActive,
		}
	}

	respondJSON(w, http.StatusOK, responses)
}

// CacheStats returns the domain cache contents for inspection
func (h *TenantHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		respondJSON(w, http.StatusOK, tenant.CacheStats{})
		return
	}
	respondJSON(w, http.StatusOK, h.cache.Stats())
}

// loadTenant fetches the tenant named by the {id} path value, writing the
// error response itself on failure.
func (h *TenantHandler) loadTenant(w http.ResponseWriter, r *http.Request) (*models.Tenant, bool) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "Tenant ID required")
		return nil, false
	}

	var t models.Tenant
	if err := h.db.Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(w, http.StatusNotFound, "Tenant not found")
			return nil, false
		}
		logger.ErrorEvent().Err(err).Str("tenant_id", id).Msg("Failed to load tenant")
		respondError(w, http.StatusInternalServerError, "Failed to load tenant")
		return nil, false
	}

	return &t, true
}
