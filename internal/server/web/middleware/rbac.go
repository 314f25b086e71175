package middleware

import (
	"context"
	"net/http"

	"github.com/fluxio-platform/fluxio/internal/db/models"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	claimsContextKey contextKey = "claims"
)

// PermissionChecker provides role-based access control middleware
type PermissionChecker struct{}

// NewPermissionChecker creates a new permission checker
func NewPermissionChecker() *PermissionChecker {
	return &PermissionChecker{}
}

// RequireRole creates middleware that checks for specific role(s)
func (pc *PermissionChecker) RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			if claims == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			for _, role := range allowedRoles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		})
	}
}

// RequireTenantMembership ensures the authenticated user belongs to the
// tenant resolved for this request. The platform superuser bypasses the
// check; everyone else must carry the resolved tenant's id in their claims.
func (pc *PermissionChecker) RequireTenantMembership(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaimsFromContext(r.Context())
		if claims == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		if claims.Role == string(models.RoleSuperuser) {
			next.ServeHTTP(w, r)
			return
		}

		tenant := GetTenantFromContext(r.Context())
		if tenant == nil {
			http.Error(w, "Unauthorized Tenant", http.StatusUnauthorized)
			return
		}

		if claims.TenantID == nil || *claims.TenantID != tenant.ID.String() {
			http.Error(w, "Forbidden: not a member of this tenant", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetClaimsFromContext retrieves claims from request context
func GetClaimsFromContext(ctx context.Context) *Claims {
	if claims, ok := ctx.Value(claimsContextKey).(*Claims); ok {
		return claims
	}
	return nil
}

// SetClaimsInContext stores claims in context (used by auth middleware)
func SetClaimsInContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
