package tenant

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/fluxio-platform/fluxio/internal/db/models"
	apperrors "github.com/fluxio-platform/fluxio/pkg/errors"
	"github.com/fluxio-platform/fluxio/pkg/logger"
	"github.com/fluxio-platform/fluxio/pkg/utils"
)

// Resolver maps a request's Host header to the owning tenant. Subdomains of
// the platform base domain resolve directly by slug; any other host is
// treated as a possible custom domain and looked up through the cache, then
// the tenant store. There is no default-tenant fallback: a host that
// resolves to nothing is rejected, never silently mapped elsewhere.
type Resolver struct {
	db         *gorm.DB
	cache      *DomainCache
	baseDomain string
}

// NewResolver creates a resolver for the given platform base domain. The
// cache may be nil, in which case every custom-domain resolution hits the
// store directly.
func NewResolver(db *gorm.DB, cache *DomainCache, baseDomain string) *Resolver {
	return &Resolver{
		db:         db,
		cache:      cache,
		baseDomain: strings.ToLower(utils.StripPort(baseDomain)),
	}
}

// Resolve determines the tenant owning the given host. Exactly one of three
// outcomes is returned: an active tenant with nil error, the resolved tenant
// with ErrTenantInactive, or nil with ErrTenantNotFound. Callers must treat
// the latter two as request-rejection conditions.
func (r *Resolver) Resolve(ctx context.Context, host string) (*models.Tenant, error) {
	slug := utils.ExtractSubdomain(host, r.baseDomain)
	if slug == "" {
		var err error
		slug, err = r.resolveCustomDomain(ctx, host)
		if err != nil {
			return nil, err
		}
	} else if slug == "www" {
		// www.basedomain is the platform's own landing host, not a tenant.
		return nil, apperrors.ErrTenantNotFound
	}

	var tenant models.Tenant
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrTenantNotFound
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "loading tenant")
	}

	if !tenant.IsActive {
		// Resolvable for error messaging, but never authorizes data access.
		return &tenant, apperrors.ErrTenantInactive
	}

	return &tenant, nil
}

// resolveCustomDomain maps a non-platform host to a tenant slug, consulting
// the cache first and populating it on a store hit. Only active tenants may
// claim a custom domain match here; inactive ones surface through the slug
// load in Resolve.
func (r *Resolver) resolveCustomDomain(ctx context.Context, host string) (string, error) {
	domain := utils.NormalizeHost(host)
	if domain == "" {
		return "", apperrors.ErrTenantNotFound
	}

	if r.cache != nil {
		if slug, ok := r.cache.Get(domain); ok {
			return slug, nil
		}
	}

	var tenant models.Tenant
	err := r.db.WithContext(ctx).
		Where("custom_domain = ? AND is_active = ?", domain, true).
		First(&tenant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperrors.ErrTenantNotFound
	}
	if err != nil {
		return "", apperrors.Wrap(err, "looking up custom domain")
	}

	if r.cache != nil {
		r.cache.Set(domain, tenant.Slug)
	}

	logger.DebugEvent().
		Str("domain", domain).
		Str("slug", tenant.Slug).
		Msg("Resolved custom domain")

	return tenant.Slug, nil
}
