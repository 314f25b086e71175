package api

import (
	"encoding/json"
	"net/http"

	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/fluxio-platform/fluxio/internal/db/models"
	"github.com/fluxio-platform/fluxio/internal/server/config"
	"github.com/fluxio-platform/fluxio/internal/server/web/middleware"
	"github.com/fluxio-platform/fluxio/internal/tenant"
	"github.com/fluxio-platform/fluxio/pkg/logger"
	"github.com/fluxio-platform/fluxio/pkg/utils"
)

// Handler handles API requests
type Handler struct {
	db           *gorm.DB
	config       *config.Config
	cache        *tenant.DomainCache
	tenantMW     *middleware.TenantMiddleware
	authMW       *middleware.AuthMiddleware
	rbac         *middleware.PermissionChecker
	loginLimiter *middleware.RateLimiter
}

// NewHandler creates a new API handler
func NewHandler(db *gorm.DB, cfg *config.Config, cache *tenant.DomainCache, resolver *tenant.Resolver) *Handler {
	return &Handler{
		db:       db,
		config:   cfg,
		cache:    cache,
		tenantMW: middleware.NewTenantMiddleware(resolver, db, cfg.Server.TrustProxyHeaders),
		authMW:   middleware.NewAuthMiddleware(cfg.Auth.JWTSecret),
		rbac:     middleware.NewPermissionChecker(),
		// 1 attempt per 2 seconds with a burst of 5 per IP
		loginLimiter: middleware.NewRateLimiter(rate.Limit(0.5), 5),
	}
}

// CORSMiddleware adds CORS headers to all responses
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// scoped wraps a handler with the full tenant-scoped chain: tenant
// resolution, JWT authentication, then tenant membership enforcement.
func (h *Handler) scoped(next http.Handler) http.Handler {
	return h.tenantMW.Resolve(h.authMW.Protect(h.rbac.RequireTenantMembership(next)))
}

// platform wraps a handler with JWT authentication plus a role check, with
// no tenant resolution. Used for the superuser's tenant management surface.
func (h *Handler) platform(next http.Handler, roles ...string) http.Handler {
	return h.authMW.Protect(h.rbac.RequireRole(roles...)(next))
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	tenantHandler := NewTenantHandler(h.db, h.cache, h.config.Server.BaseDomain)
	reservationHandler := NewReservationHandler()
	resourceHandler := NewResourceHandler()
	notificationHandler := NewNotificationHandler(h.config.Notifications.PollInterval)
	versionHandler := NewVersionHandler()

	superuser := string(models.RoleSuperuser)
	resourceAdmins := []string{superuser, string(models.RoleAdminResource)}
	reservationAdmins := []string{superuser, string(models.RoleAdminReservation)}

	// Public routes
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /api/health", h.health)
	mux.Handle("POST /api/auth/login", h.loginLimiter.Limit(http.HandlerFunc(h.login)))
	mux.HandleFunc("GET /api/version", versionHandler.GetVersion)

	// Tenant management - superuser only, addressed on the platform host
	mux.Handle("POST /api/tenants", h.platform(http.HandlerFunc(tenantHandler.CreateTenant), superuser))
	mux.Handle("GET /api/tenants", h.platform(http.HandlerFunc(tenantHandler.ListTenants), superuser))
	mux.Handle("GET /api/tenants/cache/stats", h.platform(http.HandlerFunc(tenantHandler.CacheStats), superuser))
	mux.Handle("GET /api/tenants/{id}", h.platform(http.HandlerFunc(tenantHandler.GetTenant), superuser))
	mux.Handle("PATCH /api/tenants/{id}", h.platform(http.HandlerFunc(tenantHandler.UpdateTenant), superuser))
	mux.Handle("DELETE /api/tenants/{id}", h.platform(http.HandlerFunc(tenantHandler.DeleteTenant), superuser))
	mux.Handle("PATCH /api/tenants/{id}/toggle", h.platform(http.HandlerFunc(tenantHandler.ToggleTenant), superuser))
	mux.Handle("POST /api/tenants/{id}/users", h.platform(http.HandlerFunc(tenantHandler.CreateTenantUser), superuser))
	mux.Handle("GET /api/tenants/{id}/users", h.platform(http.HandlerFunc(tenantHandler.ListTenantUsers), superuser))

	// Tenant info for the resolved host
	mux.Handle("GET /api/tenant", h.tenantMW.Resolve(http.HandlerFunc(h.tenantInfo)))

	// Reservations - tenant scoped
	mux.Handle("GET /api/reservations", h.scoped(http.HandlerFunc(reservationHandler.ListReservations)))
	mux.Handle("POST /api/reservations", h.scoped(http.HandlerFunc(reservationHandler.CreateReservation)))
	mux.Handle("GET /api/reservations/{id}", h.scoped(http.HandlerFunc(reservationHandler.GetReservation)))
	mux.Handle("PATCH /api/reservations/{id}/cancel", h.scoped(http.HandlerFunc(reservationHandler.CancelReservation)))
	mux.Handle("PATCH /api/reservations/{id}/status",
		h.scoped(h.rbac.RequireRole(reservationAdmins...)(http.HandlerFunc(reservationHandler.UpdateStatus))))

	// Resources - tenant scoped; listing is open to members, mutation to
	// resource admins
	mux.Handle("GET /api/spaces", h.scoped(http.HandlerFunc(resourceHandler.ListSpaces)))
	mux.Handle("POST /api/spaces",
		h.scoped(h.rbac.RequireRole(resourceAdmins...)(http.HandlerFunc(resourceHandler.CreateSpace))))
	mux.Handle("GET /api/equipment", h.scoped(http.HandlerFunc(resourceHandler.ListEquipment)))
	mux.Handle("POST /api/equipment",
		h.scoped(h.rbac.RequireRole(resourceAdmins...)(http.HandlerFunc(resourceHandler.CreateEquipment))))
	mux.Handle("GET /api/workshops", h.scoped(http.HandlerFunc(resourceHandler.ListWorkshops)))
	mux.Handle("POST /api/workshops",
		h.scoped(h.rbac.RequireRole(resourceAdmins...)(http.HandlerFunc(resourceHandler.CreateWorkshop))))

	// Notifications - tenant scoped
	mux.Handle("GET /api/notifications", h.scoped(http.HandlerFunc(notificationHandler.ListNotifications)))
	mux.Handle("PATCH /api/notifications/{id}/read", h.scoped(http.HandlerFunc(notificationHandler.MarkRead)))
	mux.Handle("PATCH /api/notifications/read-all", h.scoped(http.HandlerFunc(notificationHandler.MarkAllRead)))
	mux.Handle("GET /api/notifications/stream", h.scoped(http.HandlerFunc(notificationHandler.Stream)))
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// health returns a simple health check response
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "fluxio-server",
	})
}

// tenantInfo returns the tenant resolved for the request host
func (h *Handler) tenantInfo(w http.ResponseWriter, r *http.Request) {
	t := middleware.GetTenantFromContext(r.Context())
	if t == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized Tenant")
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// Auth handlers

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token      string  `json:"token"`
	User       string  `json:"user"`
	Role       string  `json:"role"`
	TenantID   *string `json:"tenant_id,omitempty"`
	TenantSlug *string `json:"tenant_slug,omitempty"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	var user models.User
	if err := h.db.Preload("Tenant").Where("email = ?", req.Email).First(&user).Error; err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !utils.ComparePassword(user.Password, req.Password) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if !user.IsActive {
		respondError(w, http.StatusUnauthorized, "User account is disabled")
		return
	}

	// A tenant member may not log in while their tenant is suspended
	if user.Tenant != nil && !user.Tenant.IsActive {
		respondError(w, http.StatusForbidden, "Tenant is inactive")
		return
	}

	var tenantIDStr *string
	var tenantSlug *string
	if user.TenantID != nil {
		s := user.TenantID.String()
		tenantIDStr = &s
		if user.Tenant != nil {
			tenantSlug = &user.Tenant.Slug
		}
	}

	token, err := h.authMW.GenerateToken(
		user.ID.String(),
		user.Email,
		string(user.Role),
		tenantIDStr,
	)
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to generate token")
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{
		Token:      token,
		User:       user.Email,
		Role:       string(user.Role),
		TenantID:   tenantIDStr,
		TenantSlug: tenantSlug,
	})
}
