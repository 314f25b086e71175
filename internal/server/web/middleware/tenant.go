package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/fluxio-platform/fluxio/internal/db"
	"github.com/fluxio-platform/fluxio/internal/db/models"
	"github.com/fluxio-platform/fluxio/internal/tenant"
	apperrors "github.com/fluxio-platform/fluxio/pkg/errors"
	"github.com/fluxio-platform/fluxio/pkg/logger"
	"gorm.io/gorm"
)

const (
	tenantContextKey contextKey = "tenant"
	scopeContextKey  contextKey = "scope"
)

// TenantMiddleware resolves the tenant for every request from the Host
// header and binds a tenant-scoped data handle into the request context.
// trustProxy controls whether X-Forwarded-Host is honored; it must stay
// off unless a fronting proxy strips client-supplied forwarding headers.
type TenantMiddleware struct {
	resolver   *tenant.Resolver
	database   *gorm.DB
	trustProxy bool
}

// NewTenantMiddleware creates tenant resolution middleware
func NewTenantMiddleware(resolver *tenant.Resolver, database *gorm.DB, trustProxy bool) *TenantMiddleware {
	return &TenantMiddleware{
		resolver:   resolver,
		database:   database,
		trustProxy: trustProxy,
	}
}

// Resolve identifies the tenant from the request host. Requests whose host
// maps to no active tenant are rejected before any handler runs; there is
// no fallback tenant.
func (tm *TenantMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.Get()
		host := tm.requestHost(r)

		t, err := tm.resolver.Resolve(r.Context(), host)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrTenantInactive):
				log.Warn().Str("host", host).Str("tenant", t.Slug).Msg("Request for inactive tenant")
				http.Error(w, "Tenant is inactive", http.StatusForbidden)
			default:
				log.Warn().Str("host", host).Msg("Request for unknown tenant")
				http.Error(w, "Unauthorized Tenant", http.StatusUnauthorized)
			}
			return
		}

		scope := db.NewScope(tm.database, t.ID)

		ctx := SetTenantInContext(r.Context(), t)
		ctx = SetScopeInContext(ctx, scope)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestHost returns the host the client addressed. In trusted-proxy
// mode the X-Forwarded-Host set by the fronting proxy wins over the raw
// Host header; otherwise the header is ignored, since a direct client
// could use it to pick its own tenant host.
func (tm *TenantMiddleware) requestHost(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-Host"); tm.trustProxy && fwd != "" {
		// The header accumulates a value per proxy hop; the first is
		// the host the client originally asked for.
		if idx := strings.Index(fwd, ","); idx != -1 {
			fwd = fwd[:idx]
		}
		return strings.TrimSpace(fwd)
	}
	return r.Host
}

// GetTenantFromContext retrieves the resolved tenant from request context
func GetTenantFromContext(ctx context.Context) *models.Tenant {
	if t, ok := ctx.Value(tenantContextKey).(*models.Tenant); ok {
		return t
	}
	return nil
}

// SetTenantInContext stores the resolved tenant in context
func SetTenantInContext(ctx context.Context, t *models.Tenant) context.Context {
	return context.WithValue(ctx, tenantContextKey, t)
}

// GetScopeFromContext retrieves the tenant-scoped data handle from context
func GetScopeFromContext(ctx context.Context) *db.Scope {
	if s, ok := ctx.Value(scopeContextKey).(*db.Scope); ok {
		return s
	}
	return nil
}

// SetScopeInContext stores the tenant-scoped data handle in context
func SetScopeInContext(ctx context.Context, s *db.Scope) context.Context {
	return context.WithValue(ctx, scopeContextKey, s)
}
